package complexvalue

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"arkman.dev/cli/internal/core/document"
	"arkman.dev/cli/internal/core/primitive"
)

var (
	literalLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Key", Pattern: `[A-Za-z_]\w*\s*=`},
		{Name: "Tagged", Pattern: `[A-Za-z_]\w*'[^']*'`},
		{Name: "String", Pattern: `"[^"]*"`},
		{Name: "Quoted", Pattern: `'[^']*'`},
		{Name: "Bare", Pattern: `[^\s(),="']+`},
		{Name: "Punct", Pattern: `[(),]`},
		{Name: "whitespace", Pattern: `\s+`},
	})
	literalParser = participle.MustBuild[literalTuple](
		participle.Lexer(literalLexer),
		participle.Elide("whitespace"),
	)
)

type literalTuple struct {
	Pos    lexer.Position
	Fields []*literalField `"(" ( @@ ( "," @@ )* )? ")"`
}

type literalField struct {
	Key   string        `( @Key )?`
	Value *literalValue `@@`
}

type literalValue struct {
	Tuple  *literalTuple `  @@`
	Tagged *string       `| @Tagged`
	String *string       `| @String`
	Quoted *string       `| @Quoted`
	Bare   *string       `| @Bare`
}

// ParseLiteral parses an inline literal such as
// (ItemClassString="PrimalItemResource_Stone_C",Quantity=(MaxItemQuantity=100,bIgnoreMultiplier=True))
// into document values. Keyed tuples become mappings, positional tuples
// become lists, quoted text stays text and bare tokens are classified.
// Tagged paths like BlueprintGeneratedClass'/Game/X' yield the path.
func ParseLiteral(text string) (any, error) {
	tuple, err := literalParser.ParseString("", strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("invalid literal: %w", err)
	}
	return tuple.toDocument()
}

func (t *literalTuple) toDocument() (any, error) {
	keyed := 0
	for _, f := range t.Fields {
		if f.Key != "" {
			keyed++
		}
	}

	switch {
	case keyed == 0:
		out := make([]any, 0, len(t.Fields))
		for _, f := range t.Fields {
			v, err := f.Value.toDocument()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case keyed == len(t.Fields):
		out := document.NewMap()
		for _, f := range t.Fields {
			v, err := f.Value.toDocument()
			if err != nil {
				return nil, err
			}
			out.Set(strings.TrimSpace(strings.TrimSuffix(f.Key, "=")), v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid literal: %s: tuple mixes keyed and positional fields", t.Pos)
	}
}

func (v *literalValue) toDocument() (any, error) {
	switch {
	case v.Tuple != nil:
		return v.Tuple.toDocument()
	case v.Tagged != nil:
		s := *v.Tagged
		return s[strings.IndexByte(s, '\'')+1 : len(s)-1], nil
	case v.String != nil:
		return strings.Trim(*v.String, `"`), nil
	case v.Quoted != nil:
		return strings.Trim(*v.Quoted, `'`), nil
	case v.Bare != nil:
		return primitive.Classify(*v.Bare), nil
	default:
		return nil, fmt.Errorf("invalid literal: empty value")
	}
}

// IsLiteral reports whether s looks like an inline tuple literal.
func IsLiteral(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
}

// RenderLiteral renders arbitrary document values in the inline syntax.
// It is used for mappings that are not tied to a registered variant.
func RenderLiteral(v any) string {
	switch x := v.(type) {
	case Value:
		return x.Literal()
	case *document.Map:
		parts := make([]string, 0, x.Len())
		for _, e := range x.Entries() {
			parts = append(parts, e.Key+"="+RenderLiteral(e.Value))
		}
		return "(" + strings.Join(parts, ",") + ")"
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = RenderLiteral(item)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case string:
		return `"` + x + `"`
	case bool:
		return primitive.FormatTitleBool(x)
	case nil:
		return ""
	default:
		return primitive.Render(v)
	}
}
