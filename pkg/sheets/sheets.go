// Package sheets reads and writes the wallet spreadsheets used for import,
// export and bulk deletion. Both .xlsx and .csv files are supported.
package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet read from and written to .xlsx files
const SheetName = "Wallets"

// Column headers
const (
	ColPrivateKey = "private_key"
	ColName       = "name"
	ColProxy      = "proxy"
	ColAddress    = "address"
	ColStatus     = "status"
)

// ImportColumns are the columns of the import template
var ImportColumns = []string{ColPrivateKey, ColName, ColProxy}

// Row is one wallet line of an import sheet
type Row struct {
	PrivateKey string
	Name       string
	Proxy      string
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// ReadRows reads wallet rows from path. The first row is the header; columns
// are matched by name, case-insensitively. Rows without a private key are
// skipped.
func ReadRows(path string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	if isCSV(path) {
		records, err = readCSV(path)
	} else {
		records, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int)
	for i, h := range records[0] {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := index[ColPrivateKey]; !ok {
		return nil, fmt.Errorf("%s: missing %q column", path, ColPrivateKey)
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []Row
	for _, record := range records[1:] {
		row := Row{
			PrivateKey: cell(record, ColPrivateKey),
			Name:       cell(record, ColName),
			Proxy:      cell(record, ColProxy),
		}
		if row.PrivateKey == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return records, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// Write stores header and records at path, replacing any existing file
func Write(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if isCSV(path) {
		return writeCSV(path, header, records)
	}
	return writeXLSX(path, header, records)
}

func writeXLSX(path string, header []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	all := append([][]string{header}, records...)
	for i, record := range all {
		cells := make([]interface{}, len(record))
		for j, v := range record {
			cells[j] = v
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, axis, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// EnsureTemplate creates an empty import sheet at path when none exists and
// reports whether it did
func EnsureTemplate(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := Write(path, ImportColumns, nil); err != nil {
		return false, err
	}
	return true, nil
}
