package cratesheet

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"arkman.dev/cli/internal/core/complexvalue"
	"arkman.dev/cli/internal/core/document"
)

const header = "SupplyCrateClassString(s),MinItemSets,MaxItemSets,bSetsRandomWithoutReplacement,bAppendItemSets," +
	"_SetWeight,_MinNumItems,_MaxNumItems,_bItemsRandomWithoutReplacement," +
	"__EntryWeight,__ItemClassStrings,__ItemsWeights,__MinQuantity,__MaxQuantity,__MinQuality,__MaxQuality," +
	"__bForceBlueprint,__ChanceToBeBlueprintOverride,Notes\n"

const sheet = header +
	`"CrateA, CrateB",1,2,TRUE,FALSE,1,1,1,TRUE,"0,5","Stone,Wood",1;2,10,20,1,1,FALSE,0,ignored` + "\n" +
	`,,,,,,,,,1,Metal,,1,1,,,,,` + "\n" +
	`,,,,,2,1,2,FALSE,1,Flint,,5,5,,,TRUE,1,` + "\n"

func TestReadCSV_GroupsAndForwardFills(t *testing.T) {
	crates, err := ReadCSV(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, crates, 2)

	assert.Equal(t, "CrateA", crates[0].SupplyCrateClassString)
	assert.Equal(t, "CrateB", crates[1].SupplyCrateClassString)
	assert.Equal(t, crates[0].ItemSets[0].Literal(), crates[1].ItemSets[0].Literal())

	c := crates[0]
	assert.Equal(t, int64(1), *c.MinItemSets)
	assert.Equal(t, int64(2), *c.MaxItemSets)
	assert.Equal(t, 1.0, *c.NumItemSetsPower)
	assert.True(t, *c.SetsRandomWithoutReplacement)
	assert.False(t, *c.AppendItemSets)
	require.Len(t, c.ItemSets, 2)

	first := c.ItemSets[0]
	assert.Equal(t, 1.0, *first.SetWeight)
	assert.Equal(t, 1.0, *first.NumItemsPower)
	assert.True(t, *first.ItemsRandomWithoutReplacement)
	require.Len(t, first.ItemEntries, 2)

	stone := first.ItemEntries[0]
	assert.Equal(t, []string{"Stone", "Wood"}, stone.ItemClassStrings)
	assert.Equal(t, []float64{1, 2}, stone.ItemsWeights)
	assert.Equal(t, 0.5, *stone.EntryWeight)
	assert.Equal(t, 20.0, *stone.MaxQuantity)
	assert.False(t, *stone.ForceBlueprint)

	metal := first.ItemEntries[1]
	assert.Equal(t, []string{"Metal"}, metal.ItemClassStrings)
	assert.Nil(t, metal.ItemsWeights)
	assert.Nil(t, metal.ForceBlueprint)

	second := c.ItemSets[1]
	assert.Equal(t, 2.0, *second.SetWeight)
	assert.Equal(t, 2.0, *second.MaxNumItems)
	assert.False(t, *second.ItemsRandomWithoutReplacement)
	require.Len(t, second.ItemEntries, 1)
	assert.True(t, *second.ItemEntries[0].ForceBlueprint)
}

func TestBuild_RowBeforeCompleteGroup(t *testing.T) {
	rows := [][]string{
		{CrateColumn, "MinItemSets", "__ItemClassStrings"},
		{"CrateA", "", "Stone"},
	}

	_, err := Build(rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteGroup)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Row)
}

func TestBuild_InvalidNumber(t *testing.T) {
	rows := [][]string{
		{CrateColumn, "MinItemSets", "__ItemClassStrings"},
		{"CrateA", "many", "Stone"},
	}

	_, err := Build(rows)
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "MinItemSets", rowErr.Column)
	assert.ErrorContains(t, err, `invalid number "many"`)
}

func TestBuild_InvalidEntry(t *testing.T) {
	rows := [][]string{
		{CrateColumn, "__EntryWeight"},
		{"CrateA", "1"},
	}

	_, err := Build(rows)
	assert.ErrorIs(t, err, complexvalue.ErrConstruction)
	assert.ErrorContains(t, err, "crate CrateA")
}

func TestBuild_RequiresCrateColumn(t *testing.T) {
	_, err := Build([][]string{{"MinItemSets"}})
	assert.ErrorContains(t, err, CrateColumn)

	_, err = Build(nil)
	assert.Error(t, err)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1", 1},
		{"0,25", 0.25},
		{"1\u00a0000", 1000},
		{" 2.5 ", 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseNumber(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber_RejectsNonFinite(t *testing.T) {
	for _, in := range []string{"inf", "-Inf", "NaN", "1e400", "abc"} {
		t.Run(in, func(t *testing.T) {
			_, err := parseNumber(in)
			assert.EqualError(t, err, fmt.Sprintf("invalid number %q", in))
		})
	}
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		name    string
		kind    cellKind
		raw     string
		want    any
		wantErr string
	}{
		{"int_truncates", cellInt, "2,9", int64(2), ""},
		{"int_nan", cellInt, "nan", nil, `invalid number "nan"`},
		{"int_out_of_range", cellInt, "1e19", nil, `integer "1e19" out of range`},
		{"float_inf", cellFloat, "inf", nil, `invalid number "inf"`},
		{"bool_upper", cellBool, "TRUE", true, ""},
		{"bool_lower", cellBool, "true", false, ""},
		{"bool_mixed", cellBool, "True", false, ""},
		{"float_list_nan", cellFloatList, "1;nan", nil, `invalid number "nan"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCell(tt.kind, tt.raw)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crates.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{CrateColumn, "MinItemSets", "MaxItemSets", "_SetWeight", "__ItemClassStrings", "__MinQuantity"},
		{"CrateX", "1", "1", "1", "Stone", "3"},
		{"", "", "", "", "Wood", "4"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	crates, err := ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, crates, 1)
	require.Len(t, crates[0].ItemSets, 1)
	assert.Len(t, crates[0].ItemSets[0].ItemEntries, 2)

	_, err = ReadXLSX(path, "Missing")
	assert.Error(t, err)
}

func TestFragment(t *testing.T) {
	crates, err := ReadCSV(strings.NewReader(sheet))
	require.NoError(t, err)

	out, err := Fragment(crates)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "- SupplyCrateClassString: CrateA\n"), "got:\n%s", out)

	decoded, err := document.DecodeYAML(out, document.DecodeOptions{})
	require.NoError(t, err)
	items := decoded.([]any)
	require.Len(t, items, 2)

	for i, item := range items {
		rebuilt, err := complexvalue.SupplyCrateItemsOverrideFromMapping(item.(*document.Map))
		require.NoError(t, err)
		assert.Equal(t, crates[i].Literal(), rebuilt.Literal())
	}
}
