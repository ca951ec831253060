// Package sheet converts between licenses and xlsx workbooks for bulk
// import and export.
package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/renovahub/renewal-api/internal/model"
)

var columns = []string{
	"Software Name",
	"Renewal Date",
	"Amount",
	"Currency",
	"Responsible Email",
	"Renewal URL",
	"Status",
}

// ParseWorkbook reads every sheet of an xlsx file into import rows. The
// first row of each sheet is treated as a header. Each row remembers the
// sheet it came from so imports stay traceable to their source.
func ParseWorkbook(r io.Reader) ([]model.LicenseImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var out []model.LicenseImportRow
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
		}
		for i, row := range rows {
			if i == 0 {
				continue
			}
			if isEmptyRow(row) {
				continue
			}
			out = append(out, rowToImport(row, sheetName))
		}
	}
	return out, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func rowToImport(row []string, sheetName string) model.LicenseImportRow {
	amount, _ := strconv.ParseFloat(strings.TrimSpace(cell(row, 2)), 64)
	return model.LicenseImportRow{
		SoftwareName:     strings.TrimSpace(cell(row, 0)),
		RenewalDate:      strings.TrimSpace(cell(row, 1)),
		Amount:           amount,
		Currency:         strings.TrimSpace(cell(row, 3)),
		ResponsibleEmail: strings.TrimSpace(cell(row, 4)),
		RenewalURL:       strings.TrimSpace(cell(row, 5)),
		Status:           strings.TrimSpace(cell(row, 6)),
		SourceSheet:      sheetName,
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// BuildWorkbook writes licenses to a single-sheet xlsx workbook in the
// same column order the importer expects, so an export re-imports cleanly.
func BuildWorkbook(licenses []*model.License) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheetName = "Licenses"

	f.SetSheetName(f.GetSheetName(0), sheetName)

	for i, header := range columns {
		cellRef, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cellRef, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for rowIdx, license := range licenses {
		values := []interface{}{
			license.SoftwareName,
			license.RenewalDate.Format("2006-01-02"),
			license.Amount,
			license.Currency,
			license.ResponsibleEmail,
			license.RenewalURL,
			license.Status,
		}
		for colIdx, value := range values {
			cellRef, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cellRef, value); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	return f, nil
}
