package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Reports"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render writes headers in bold on row one followed by one row per record.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	headers := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(xlsxSheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("style xlsx headers: %w", err)
	}

	for i, row := range data.Rows {
		values := data.record(row)
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &cells); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
