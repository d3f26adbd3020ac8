// Package cratesheet turns supply crate spreadsheets into
// ConfigOverrideSupplyCrateItems values.
//
// A sheet has one row per item entry. Crate columns and item set columns
// are only filled on the first row of a group and carry forward until the
// next complete group header.
package cratesheet

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"arkman.dev/cli/internal/core/complexvalue"
	"arkman.dev/cli/internal/core/document"
)

// CrateColumn lists one or more crate class strings separated by commas.
const CrateColumn = "SupplyCrateClassString(s)"

var ErrIncompleteGroup = errors.New("row precedes the first complete group")

type cellKind int

const (
	cellString cellKind = iota
	cellInt
	cellFloat
	cellBool
	cellStrList
	cellFloatList
)

type column struct {
	header string
	field  string
	kind   cellKind
}

var (
	crateColumns = []column{
		{CrateColumn, "SupplyCrateClassString", cellString},
		{"MinItemSets", "MinItemSets", cellInt},
		{"MaxItemSets", "MaxItemSets", cellInt},
		{"bSetsRandomWithoutReplacement", "bSetsRandomWithoutReplacement", cellBool},
		{"bAppendItemSets", "bAppendItemSets", cellBool},
	}
	setColumns = []column{
		{"_SetWeight", "SetWeight", cellFloat},
		{"_MinNumItems", "MinNumItems", cellInt},
		{"_MaxNumItems", "MaxNumItems", cellInt},
		{"_bItemsRandomWithoutReplacement", "bItemsRandomWithoutReplacement", cellBool},
	}
	entryColumns = []column{
		{"__EntryWeight", "EntryWeight", cellFloat},
		{"__ItemClassStrings", "ItemClassStrings", cellStrList},
		{"__ItemsWeights", "ItemsWeights", cellFloatList},
		{"__MinQuantity", "MinQuantity", cellFloat},
		{"__MaxQuantity", "MaxQuantity", cellFloat},
		{"__MinQuality", "MinQuality", cellFloat},
		{"__MaxQuality", "MaxQuality", cellFloat},
		{"__bForceBlueprint", "bForceBlueprint", cellBool},
		{"__ChanceToBeBlueprintOverride", "ChanceToBeBlueprintOverride", cellFloat},
	}
)

// RowError points at the sheet row (1 based, header included) that failed.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type record struct {
	line  int
	cells map[string]string
}

// Build converts sheet rows into crate overrides. The first row is the
// header; unknown columns are ignored. Crates appear in first-seen order.
func Build(rows [][]string) ([]*complexvalue.SupplyCrateItemsOverride, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	header := make(map[string]int)
	for i, name := range rows[0] {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := header[CrateColumn]; !ok {
		return nil, fmt.Errorf("sheet has no %s column", CrateColumn)
	}

	records := make([]record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec := record{line: i + 2, cells: make(map[string]string)}
		empty := true
		for _, group := range [][]column{crateColumns, setColumns, entryColumns} {
			for _, col := range group {
				idx, ok := header[col.header]
				if !ok || idx >= len(row) {
					continue
				}
				value := strings.TrimSpace(row[idx])
				if value != "" {
					rec.cells[col.header] = value
					empty = false
				}
			}
		}
		if !empty {
			records = append(records, rec)
		}
	}

	if err := forwardFill(records, present(header, crateColumns)); err != nil {
		return nil, err
	}
	if err := forwardFill(records, present(header, setColumns)); err != nil {
		return nil, err
	}
	return group(records)
}

func present(header map[string]int, columns []column) []string {
	var out []string
	for _, col := range columns {
		if _, ok := header[col.header]; ok {
			out = append(out, col.header)
		}
	}
	return out
}

// forwardFill copies the group columns of the last row where all of them
// were filled onto every following row.
func forwardFill(records []record, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	var current map[string]string
	for _, rec := range records {
		complete := true
		for _, k := range keys {
			if rec.cells[k] == "" {
				complete = false
				break
			}
		}
		if complete {
			current = make(map[string]string, len(keys))
			for _, k := range keys {
				current[k] = rec.cells[k]
			}
		}
		if current == nil {
			return &RowError{Row: rec.line, Err: fmt.Errorf("%w (%s)", ErrIncompleteGroup, strings.Join(keys, ", "))}
		}
		for k, v := range current {
			rec.cells[k] = v
		}
	}
	return nil
}

type itemSet struct {
	key     string
	values  *document.Map
	entries []any
}

type crate struct {
	key  string
	base *document.Map
	sets []*itemSet
}

func group(records []record) ([]*complexvalue.SupplyCrateItemsOverride, error) {
	var crates []*crate
	byKey := make(map[string]*crate)

	for _, rec := range records {
		crateValues, err := parseColumns(rec, crateColumns[1:])
		if err != nil {
			return nil, err
		}
		setValues, err := parseColumns(rec, setColumns)
		if err != nil {
			return nil, err
		}
		entry, err := parseColumns(rec, entryColumns)
		if err != nil {
			return nil, err
		}

		setKey := groupKey(rec, setColumns)
		for _, class := range splitList(rec.cells[CrateColumn], ",") {
			key := class + "\x1f" + groupKey(rec, crateColumns[1:])
			c, ok := byKey[key]
			if !ok {
				base := document.MapOf("SupplyCrateClassString", class)
				for _, e := range crateValues.Entries() {
					base.Set(e.Key, e.Value)
				}
				base.Set("NumItemSetsPower", 1.0)
				c = &crate{key: key, base: base}
				byKey[key] = c
				crates = append(crates, c)
			}
			c.add(setKey, setValues, entry.Clone())
		}
	}

	out := make([]*complexvalue.SupplyCrateItemsOverride, 0, len(crates))
	for _, c := range crates {
		m := c.base.Clone()
		sets := make([]any, len(c.sets))
		for i, s := range c.sets {
			set := s.values.Clone()
			set.Set("NumItemsPower", 1.0)
			set.Set("ItemEntries", s.entries)
			sets[i] = set
		}
		m.Set("ItemSets", sets)

		built, err := complexvalue.SupplyCrateItemsOverrideFromMapping(m)
		if err != nil {
			class, _ := m.Get("SupplyCrateClassString")
			return nil, fmt.Errorf("crate %v: %w", class, err)
		}
		out = append(out, built)
	}
	return out, nil
}

func (c *crate) add(setKey string, values *document.Map, entry *document.Map) {
	for _, s := range c.sets {
		if s.key == setKey {
			s.entries = append(s.entries, entry)
			return
		}
	}
	c.sets = append(c.sets, &itemSet{key: setKey, values: values, entries: []any{entry}})
}

func groupKey(rec record, columns []column) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = rec.cells[col.header]
	}
	return strings.Join(parts, "\x1f")
}

func parseColumns(rec record, columns []column) (*document.Map, error) {
	out := document.NewMap()
	for _, col := range columns {
		raw, ok := rec.cells[col.header]
		if !ok {
			continue
		}
		v, err := parseCell(col.kind, raw)
		if err != nil {
			return nil, &RowError{Row: rec.line, Column: col.header, Err: err}
		}
		if v != nil {
			out.Set(col.field, v)
		}
	}
	return out, nil
}

func parseCell(kind cellKind, raw string) (any, error) {
	switch kind {
	case cellInt:
		f, err := parseNumber(raw)
		if err != nil {
			return nil, err
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Errorf("integer %q out of range", raw)
		}
		return int64(f), nil
	case cellFloat:
		return parseNumber(raw)
	case cellBool:
		return raw == "TRUE", nil
	case cellStrList:
		items := splitList(raw, ",")
		if len(items) == 0 {
			return nil, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out, nil
	case cellFloatList:
		items := splitList(raw, ";")
		if len(items) == 0 {
			return nil, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			f, err := parseNumber(item)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		return raw, nil
	}
}

// parseNumber accepts spreadsheet exports with decimal commas and
// non-breaking thousands separators.
func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(raw, ",", ".")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u202f", "")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return f, nil
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Fragment renders crates as a YAML list suitable for an !include file.
func Fragment(crates []*complexvalue.SupplyCrateItemsOverride) ([]byte, error) {
	items := make([]any, len(crates))
	for i, c := range crates {
		items[i] = c.ToMapping()
	}
	return document.EncodeYAML(items)
}
