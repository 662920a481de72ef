package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/dietdash/internal/contracts"
)

// Sheet names
const (
	SheetCovid   = "Covid"
	SheetDataset = "Dataset"
)

// TableXLSX writes the covid table as a single-sheet workbook.
// Missing mortality is left blank.
func TableXLSX(w io.Writer, table contracts.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCovid); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, col := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetCovid, cell, col.Name); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	for r, row := range table.Data {
		values := []interface{}{row.Country, row.Confirmed, row.Deaths, row.Active, cellNumber(float64(row.Mortality))}
		if err := setRow(f, SheetCovid, r+2, values); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// DatasetXLSX writes every cleaned record with all numeric and derived
// columns
func DatasetXLSX(w io.Writer, records []contracts.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDataset); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	header := DatasetHeader()
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := setRow(f, SheetDataset, 1, row); err != nil {
		return err
	}

	for r := range records {
		if err := setRow(f, SheetDataset, r+2, DatasetRow(&records[r])); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// DatasetHeader is the column order of dataset exports
func DatasetHeader() []string {
	header := []string{contracts.ColCountry, contracts.ColISOAlpha}
	header = append(header, contracts.NumericColumns()...)
	return append(header, contracts.ColMortality, contracts.ColObesityAboveAvg)
}

// DatasetRow returns rec's cells in DatasetHeader order
func DatasetRow(rec *contracts.Record) []interface{} {
	row := []interface{}{rec.Country, rec.ISOAlpha3}
	for _, col := range contracts.NumericColumns() {
		v, _ := rec.Value(col)
		row = append(row, cellNumber(v))
	}
	return append(row, cellNumber(float64(rec.Mortality)), rec.ObesityAboveAvg)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	return nil
}

// cellNumber maps non-finite values to an empty cell
func cellNumber(v float64) interface{} {
	if !finite(v) {
		return nil
	}
	return v
}
