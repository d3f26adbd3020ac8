package cratesheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"arkman.dev/cli/internal/core/complexvalue"
)

// ReadCSV builds crates from comma separated rows.
func ReadCSV(r io.Reader) ([]*complexvalue.SupplyCrateItemsOverride, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return Build(rows)
}

// ReadCSVFile opens path and calls ReadCSV.
func ReadCSVFile(path string) ([]*complexvalue.SupplyCrateItemsOverride, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	crates, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return crates, nil
}

// ReadXLSX builds crates from a workbook sheet. An empty sheet name selects
// the first sheet.
func ReadXLSX(path, sheet string) ([]*complexvalue.SupplyCrateItemsOverride, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("%s: xlsx has no sheets", path)
		}
		sheet = list[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", path, sheet, err)
	}
	crates, err := Build(rows)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", path, sheet, err)
	}
	return crates, nil
}
