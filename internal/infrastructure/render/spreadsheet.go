package render

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/pkg/utils"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// SheetName is the worksheet holding the exported invoice
const SheetName = "Invoice"

const (
	partyRow     = 7
	itemsHeadRow = 15
)

// SpreadsheetExporter writes an invoice snapshot as an XLSX workbook
type SpreadsheetExporter struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewSpreadsheetExporter creates an XLSX renderer. A nil clock uses time.Now.
func NewSpreadsheetExporter(now func() time.Time, logger *zap.Logger) *SpreadsheetExporter {
	if now == nil {
		now = time.Now
	}
	return &SpreadsheetExporter{now: now, logger: logger}
}

// Format implements port.DocumentRenderer
func (e *SpreadsheetExporter) Format() string {
	return port.FormatXLSX
}

// Render implements port.DocumentRenderer
func (e *SpreadsheetExporter) Render(ctx context.Context, view entity.InvoiceView) (*port.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w := &sheetWriter{f: f}
	e.write(w, view)
	if w.err != nil {
		return nil, fmt.Errorf("failed to fill workbook: %w", w.err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return &port.Document{
		Filename:    Filename(view.Settings.InvoiceNumber, e.now(), port.FormatXLSX),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     buf.Bytes(),
	}, nil
}

func (e *SpreadsheetExporter) write(w *sheetWriter, view entity.InvoiceView) {
	s := view.Settings
	bold := w.style(&excelize.Style{Font: &excelize.Font{Bold: true}})
	title := w.style(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	money := w.style(&excelize.Style{NumFmt: 4})
	header := w.style(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"F0F0F0"}, Pattern: 1},
	})

	w.set("A1", "INVOICE", title)
	for i, kv := range [][2]string{
		{"Invoice #", s.InvoiceNumber},
		{"Date", s.InvoiceDate.String()},
		{"Due", s.DueDate.String()},
		{"Currency", s.Currency},
	} {
		w.set(cell(1, 2+i), kv[0], bold)
		w.set(cell(2, 2+i), kv[1], 0)
	}

	w.party(1, partyRow, "From", view.Issuer, bold)
	w.party(4, partyRow, "Bill To", view.Recipient, bold)

	for i, h := range []string{"Description", "Quantity", "Price", "Discount", "Taxable", "Amount"} {
		w.set(cell(1+i, itemsHeadRow), h, header)
	}
	row := itemsHeadRow + 1
	for _, item := range view.Items {
		w.set(cell(1, row), item.Description, 0)
		w.set(cell(2, row), item.Quantity, 0)
		w.set(cell(3, row), item.Price, money)
		w.set(cell(4, row), item.Discount, money)
		w.set(cell(5, row), item.Taxable, 0)
		w.set(cell(6, row), item.Amount(), money)
		row++
	}

	row++
	for _, kv := range []struct {
		label string
		value float64
	}{
		{"Subtotal", view.Totals.Subtotal},
		{fmt.Sprintf("Tax (%s%%)", formatQuantity(s.TaxRate)), view.Totals.TaxAmount},
		{"Discount", view.Totals.DiscountAmount},
		{"Total", view.Totals.Total},
	} {
		w.set(cell(5, row), kv.label, bold)
		w.set(cell(6, row), kv.value, money)
		row++
	}

	if w.err == nil {
		w.err = w.f.SetColWidth(SheetName, "A", "A", 36)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetName, "B", "F", 14)
	}
}

// TotalsRow is the first totals row for a sheet holding n items
func TotalsRow(n int) int {
	return itemsHeadRow + n + 2
}

// sheetWriter keeps the first error and skips further writes
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) style(s *excelize.Style) int {
	if w.err != nil {
		return 0
	}
	id, err := w.f.NewStyle(s)
	w.err = err
	return id
}

func (w *sheetWriter) set(ref string, value interface{}, style int) {
	if w.err != nil {
		return
	}
	// control characters are not allowed in the sheet XML
	if str, ok := value.(string); ok {
		value = utils.SanitizeString(str)
	}
	if w.err = w.f.SetCellValue(SheetName, ref, value); w.err != nil {
		return
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(SheetName, ref, ref, style)
	}
}

func (w *sheetWriter) party(col, row int, title string, p entity.Party, bold int) {
	w.set(cell(col, row), title, bold)
	for i, v := range []string{p.Name, p.Address, p.Email, p.Phone, p.Country, p.PinCode} {
		w.set(cell(col, row+1+i), v, 0)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
