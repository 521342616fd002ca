package spreadsheet

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
	"github.com/custodia-labs/reqtrace/internal/core/ports/driven"
)

// Ensure Exporter implements the interface.
var _ driven.Exporter = (*Exporter)(nil)

// Exporter writes .xlsx workbooks.
type Exporter struct{}

// New creates a workbook exporter.
func New() *Exporter {
	return &Exporter{}
}

// Format returns "xlsx".
func (e *Exporter) Format() string {
	return "xlsx"
}

// Extension returns ".xlsx".
func (e *Exporter) Extension() string {
	return ".xlsx"
}

// Export writes the bundle as a workbook with a bold, frozen header row
// on every sheet.
func (e *Exporter) Export(ctx context.Context, bundle *domain.ExportBundle, w io.Writer) error {
	if bundle == nil {
		return domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := WriteWorkbook(BuildWorkbook(bundle))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteWorkbook renders the model into an excelize file. The caller closes it.
func WriteWorkbook(wb Workbook) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Vertical: "top"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating cell style: %w", err)
	}

	for i, sheet := range wb.Sheets {
		if err := writeSheet(f, i, sheet, header, wrap); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing sheet %s: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, index int, sheet Sheet, header, wrap int) error {
	if index == 0 {
		if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(sheet.Name); err != nil {
		return err
	}

	for r, values := range sheet.Values() {
		cellName, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := f.SetSheetRow(sheet.Name, cellName, &row); err != nil {
			return err
		}
	}

	if len(sheet.Columns) == 0 {
		return nil
	}
	last, err := excelize.ColumnNumberToName(len(sheet.Columns))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet.Name, "A", last, 24); err != nil {
		return err
	}
	if len(sheet.Rows) > 0 {
		if err := f.SetCellStyle(sheet.Name, "A2", fmt.Sprintf("%s%d", last, len(sheet.Rows)+1), wrap); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(sheet.Name, 1, 1, header); err != nil {
		return err
	}
	return f.SetPanes(sheet.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
