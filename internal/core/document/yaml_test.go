package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeYAML_ScalarsAndOrder(t *testing.T) {
	src := `
ServerSettings:
  ServerPVE: true
  DifficultyOffset: 1.0
  MaxPlayers: 70
  SessionName: My Server
  Password: null
  Quoted: "15"
  Huge: 18446744073709551615
`
	v, err := DecodeYAML([]byte(src), DecodeOptions{})
	require.NoError(t, err)

	root := v.(*Map)
	assert.Equal(t, []string{"ServerSettings"}, root.Keys())

	section, _ := root.Get("ServerSettings")
	want := MapOf(
		"ServerPVE", true,
		"DifficultyOffset", 1.0,
		"MaxPlayers", int64(70),
		"SessionName", "My Server",
		"Password", nil,
		"Quoted", "15",
		"Huge", "18446744073709551615",
	)
	assert.True(t, Equal(want, section), "got %v", section)
}

func TestDecodeYAML_Empty(t *testing.T) {
	v, err := DecodeYAML(nil, DecodeOptions{})
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDecodeYAML_InvalidSyntax(t *testing.T) {
	_, err := DecodeYAML([]byte("a: [1, 2"), DecodeOptions{})
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestDecodeYAML_AliasesAndMergeKeys(t *testing.T) {
	src := `
base: &base
  a: 1
  b: 2
other: &other
  b: 20
  d: 40
derived:
  <<: *base
  b: 3
  c: 4
multi:
  <<: [*other, *base]
copy: *base
`
	v, err := DecodeYAML([]byte(src), DecodeOptions{})
	require.NoError(t, err)
	root := v.(*Map)

	derived, _ := root.Get("derived")
	assert.True(t, Equal(MapOf("a", int64(1), "b", int64(3), "c", int64(4)), derived), "got %v", derived)

	multi, _ := root.Get("multi")
	assert.True(t, Equal(MapOf("b", int64(20), "d", int64(40), "a", int64(1)), multi), "got %v", multi)

	base, _ := root.Get("base")
	copied, _ := root.Get("copy")
	assert.True(t, Equal(base, copied))
}

func TestDecodeYAML_MergeRejectsScalars(t *testing.T) {
	_, err := DecodeYAML([]byte("a:\n  <<: 1\n"), DecodeOptions{})
	assert.ErrorContains(t, err, "merge value must be a mapping")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDecodeYAML_Includes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crates.yml", "- SupplyCrateClassString: A\n  Extra: !include extra.yml\n- SupplyCrateClassString: B\n")
	writeFile(t, dir, "extra.yml", "value: 1.5\n")

	v, err := DecodeYAML([]byte("Crates: !include crates.yml\n"), DecodeOptions{Includes: DirIncludes(dir)})
	require.NoError(t, err)

	crates, _ := v.(*Map).Get("Crates")
	want := []any{
		MapOf("SupplyCrateClassString", "A", "Extra", MapOf("value", 1.5)),
		MapOf("SupplyCrateClassString", "B"),
	}
	assert.True(t, Equal(want, crates), "got %v", crates)
}

func TestDecodeYAML_IncludeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yml", "x: !include b.yml\n")
	writeFile(t, dir, "b.yml", "y: !include a.yml\n")
	writeFile(t, dir, "broken.yml", "a: [1\n")

	opts := DecodeOptions{Includes: DirIncludes(dir)}

	t.Run("missing", func(t *testing.T) {
		_, err := DecodeYAML([]byte("k: !include nope.yml\n"), opts)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingInclude))

		var incErr *IncludeError
		require.ErrorAs(t, err, &incErr)
		assert.Equal(t, "nope.yml", incErr.Name)
		assert.Equal(t, filepath.Join(dir, "nope.yml"), incErr.Path)
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := DecodeYAML([]byte("k: !include a.yml\n"), opts)
		assert.ErrorIs(t, err, ErrIncludeCycle)
	})

	t.Run("broken_fragment", func(t *testing.T) {
		_, err := DecodeYAML([]byte("k: !include broken.yml\n"), opts)
		var incErr *IncludeError
		require.ErrorAs(t, err, &incErr)
		assert.Equal(t, "broken.yml", incErr.Name)
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := DecodeYAML([]byte("k: !include a.yml\n"), DecodeOptions{})
		var incErr *IncludeError
		assert.ErrorAs(t, err, &incErr)
	})
}

func TestEncodeYAML(t *testing.T) {
	doc := MapOf("Section", MapOf(
		"Flag", true,
		"Rate", 1.0,
		"Name", "true",
		"Count", int64(3),
		"Empty", "",
	))

	out, err := EncodeYAML(doc)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Section:\n")
	assert.Contains(t, text, "  Flag: true\n")
	assert.Contains(t, text, "  Rate: 1.0\n")
	assert.Contains(t, text, `  Name: "true"`)
	assert.Contains(t, text, "  Count: 3\n")

	back, err := DecodeYAML(out, DecodeOptions{})
	require.NoError(t, err)
	assert.True(t, Equal(doc, back), "got %v", back)
}

func TestEncodeYAML_RejectsUnknownTypes(t *testing.T) {
	_, err := EncodeYAML(MapOf("a", struct{}{}))
	assert.ErrorContains(t, err, "unsupported document value")
}

func TestEncodeJSON(t *testing.T) {
	doc := MapOf("b", int64(1), "a", []any{1.0, "<x>", nil, false}, "c", MapOf())

	compact, err := EncodeJSON(doc, "")
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":[1.0,"<x>",null,false],"c":{}}`, string(compact))

	indented, err := EncodeJSON(MapOf("a", []any{int64(1)}), "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    1\n  ]\n}", string(indented))
}

func drawValue(t *rapid.T, depth int) any {
	kinds := []string{"bool", "int", "float", "string", "null"}
	if depth < 3 {
		kinds = append(kinds, "map", "list")
	}

	switch rapid.SampledFrom(kinds).Draw(t, "kind") {
	case "bool":
		return rapid.Bool().Draw(t, "bool")
	case "int":
		return rapid.Int64().Draw(t, "int")
	case "float":
		return rapid.Float64Range(-1e6, 1e6).Draw(t, "float")
	case "string":
		return rapid.StringMatching(`[a-zA-Z0-9 .:#_-]{0,10}`).Draw(t, "string")
	case "map":
		return drawMap(t, depth+1)
	case "list":
		n := rapid.IntRange(0, 3).Draw(t, "len")
		out := make([]any, n)
		for i := range out {
			out[i] = drawValue(t, depth+1)
		}
		return out
	default:
		return nil
	}
}

func drawMap(t *rapid.T, depth int) *Map {
	m := NewMap()
	n := rapid.IntRange(0, 4).Draw(t, "keys")
	for i := 0; i < n; i++ {
		m.Set(rapid.StringMatching(`[A-Za-z][A-Za-z0-9]{0,6}`).Draw(t, "key"), drawValue(t, depth))
	}
	return m
}

// TestYAML_PropertyBased_RoundTrip checks that encoding then decoding any
// document reproduces it value for value and in order.
func TestYAML_PropertyBased_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		doc := drawMap(t, 0)

		out, err := EncodeYAML(doc)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		back, err := DecodeYAML(out, DecodeOptions{})
		if err != nil {
			t.Fatalf("decode: %v\n%s", err, out)
		}
		if doc.Len() == 0 {
			return
		}
		if !Equal(doc, back) {
			t.Fatalf("round trip mismatch\nwant %v\ngot  %v\nyaml:\n%s", doc, back, out)
		}
	})
}
