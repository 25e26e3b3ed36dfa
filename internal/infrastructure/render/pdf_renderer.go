package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/pkg/utils"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

const (
	logoName   = "issuer-logo"
	logoHeight = 18.0
	ptToMM     = 25.4 / 72
)

// PDFOptions configures the PDF renderer
type PDFOptions struct {
	Page             PageSize
	MarginMM         float64
	AllowCrossOrigin bool
	Now              func() time.Time
}

// PDFRenderer lays an invoice out with gofpdf and fits it onto a single portrait page
type PDFRenderer struct {
	opts    PDFOptions
	fetcher port.LogoFetcher
	logger  *zap.Logger
}

// NewPDFRenderer creates a PDF renderer. fetcher may be nil when remote logos are disabled.
func NewPDFRenderer(opts PDFOptions, fetcher port.LogoFetcher, logger *zap.Logger) *PDFRenderer {
	if opts.Page.Width == 0 {
		opts.Page = PageA4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PDFRenderer{
		opts:    opts,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Format implements port.DocumentRenderer
func (r *PDFRenderer) Format() string {
	return port.FormatPDF
}

// Render lays the view out once on an unbounded scratch page to measure it, then
// draws it on the real page scaled by the single-page fit.
func (r *PDFRenderer) Render(ctx context.Context, view entity.InvoiceView) (*port.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := r.opts.Now()
	page := r.opts.Page
	margin := r.opts.MarginMM
	contentWidth := page.Width - 2*margin
	logo := r.loadLogo(ctx, view.Issuer.Logo)

	scratch := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: contentWidth, Ht: 10 * page.Height},
	})
	if logo != nil && !registerLogo(scratch, logo) {
		r.logger.Warn("Skipping logo that cannot be embedded",
			zap.String("draft_id", view.DraftID),
			zap.String("format", logo.imageType),
			zap.Error(scratch.Error()))
		scratch.ClearError()
		logo = nil
	}
	contentHeight := newSheet(scratch, view, logo != nil).draw(0, 0, contentWidth)
	if err := scratch.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out invoice: %w", err)
	}

	place := FitSinglePage(contentWidth, contentHeight, page, margin)
	scale := place.Scale(contentWidth)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetTitle("Invoice "+view.Settings.InvoiceNumber, true)
	pdf.SetCreator("invoxis", true)
	pdf.SetCreationDate(now)
	if logo != nil {
		registerLogo(pdf, logo)
	}
	pdf.AddPage()

	pdf.TransformBegin()
	pdf.TransformScale(scale*100, scale*100, margin+contentWidth/2, margin)
	newSheet(pdf, view, logo != nil).draw(margin, margin, contentWidth)
	pdf.TransformEnd()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	r.logger.Debug("Rendered PDF",
		zap.String("draft_id", view.DraftID),
		zap.Float64("content_height_mm", contentHeight),
		zap.Float64("scale", scale),
		zap.Int("size", buf.Len()))

	return &port.Document{
		Filename:    Filename(view.Settings.InvoiceNumber, now, port.FormatPDF),
		ContentType: "application/pdf",
		Content:     buf.Bytes(),
	}, nil
}

type logoImage struct {
	content   []byte
	imageType string
}

// loadLogo resolves the issuer logo. Failures only drop the logo.
func (r *PDFRenderer) loadLogo(ctx context.Context, logo string) *logoImage {
	if logo == "" {
		return nil
	}

	if utils.IsRemoteURL(logo) {
		if !r.opts.AllowCrossOrigin || r.fetcher == nil {
			r.logger.Debug("Remote logo skipped, cross-origin images disabled")
			return nil
		}
		fetched, err := r.fetcher.Fetch(ctx, logo)
		if err != nil {
			r.logger.Warn("Failed to fetch remote logo", zap.Error(err))
			return nil
		}
		logo = fetched
	}

	content, _, err := utils.DecodeDataURL(logo)
	if err != nil {
		r.logger.Warn("Invalid logo data URL", zap.Error(err))
		return nil
	}
	imageType, err := pdfImageType(content)
	if err != nil {
		r.logger.Warn("Unsupported logo", zap.Error(err))
		return nil
	}
	return &logoImage{content: content, imageType: imageType}
}

func registerLogo(pdf *gofpdf.Fpdf, logo *logoImage) bool {
	pdf.RegisterImageOptionsReader(logoName, gofpdf.ImageOptions{ImageType: logo.imageType}, bytes.NewReader(logo.content))
	return pdf.Ok()
}

// sheet draws the invoice body at a given origin and reports its height
type sheet struct {
	pdf        *gofpdf.Fpdf
	view       entity.InvoiceView
	hasLogo    bool
	tr         func(string) string
	fontSize   float64
	lineHeight float64
	padding    float64
}

func newSheet(pdf *gofpdf.Fpdf, view entity.InvoiceView, hasLogo bool) *sheet {
	style := view.Style
	if style == (entity.SurfaceStyle{}) {
		style = entity.DefaultSurfaceStyle
	}

	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetDrawColor(206, 212, 218)
	pdf.SetLineWidth(0.2)
	if pdf.PageCount() == 0 {
		pdf.AddPage()
	}

	fontSize := pxToPt(style.FontSizePx)
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	return &sheet{
		pdf:        pdf,
		view:       view,
		hasLogo:    hasLogo,
		tr:         func(str string) string { return translate(utils.SanitizeString(str)) },
		fontSize:   fontSize,
		lineHeight: fontSize * ptToMM * 1.5,
		padding:    pxToMM(style.PaddingPx),
	}
}

func (s *sheet) draw(x, y, width float64) float64 {
	left := x + s.padding
	inner := width - 2*s.padding

	bottom := s.header(left, y+s.padding, inner)
	bottom = s.parties(left, bottom+s.lineHeight, inner)
	bottom = s.items(left, bottom+s.lineHeight, inner)
	bottom = s.totals(left, bottom+s.lineHeight/2, inner)

	return bottom + s.padding - y
}

func (s *sheet) font(style string, scale float64) {
	s.pdf.SetFont("Helvetica", style, s.fontSize*scale)
}

func (s *sheet) header(x, y, width float64) float64 {
	pdf := s.pdf
	settings := s.view.Settings
	logoBottom := y
	if s.hasLogo {
		pdf.ImageOptions(logoName, x, y, 0, logoHeight, false, gofpdf.ImageOptions{}, 0, "")
		logoBottom = y + logoHeight
	}

	s.font("B", 1.8)
	pdf.SetXY(x, y)
	pdf.CellFormat(width, s.lineHeight*1.6, "INVOICE", "", 1, "R", false, 0, "")

	s.font("", 1)
	for _, line := range []string{
		"Invoice #: " + settings.InvoiceNumber,
		"Date: " + settings.InvoiceDate.String(),
		"Due: " + settings.DueDate.String(),
	} {
		pdf.SetX(x)
		pdf.CellFormat(width, s.lineHeight, s.tr(line), "", 1, "R", false, 0, "")
	}

	return maxFloat(logoBottom, pdf.GetY())
}

func (s *sheet) parties(x, y, width float64) float64 {
	colWidth := width/2 - 2
	fromBottom := s.party(x, y, colWidth, "From", s.view.Issuer)
	toBottom := s.party(x+width/2+2, y, colWidth, "Bill To", s.view.Recipient)
	return maxFloat(fromBottom, toBottom)
}

func (s *sheet) party(x, y, width float64, title string, p entity.Party) float64 {
	pdf := s.pdf

	s.font("B", 0.9)
	pdf.SetXY(x, y)
	pdf.CellFormat(width, s.lineHeight, strings.ToUpper(title), "B", 1, "L", false, 0, "")

	s.font("B", 1)
	pdf.SetX(x)
	pdf.CellFormat(width, s.lineHeight, s.tr(p.Name), "", 1, "L", false, 0, "")

	s.font("", 1)
	for _, line := range pdf.SplitLines([]byte(s.tr(p.Address)), width) {
		pdf.SetX(x)
		pdf.CellFormat(width, s.lineHeight, string(line), "", 1, "L", false, 0, "")
	}

	location := p.Country
	if p.PinCode != "" {
		location += " - PIN " + p.PinCode
	}
	for _, line := range []string{p.Email, p.Phone, location} {
		if line == "" {
			continue
		}
		pdf.SetX(x)
		pdf.CellFormat(width, s.lineHeight, s.tr(line), "", 1, "L", false, 0, "")
	}
	return pdf.GetY()
}

func (s *sheet) items(x, y, width float64) float64 {
	pdf := s.pdf
	currency := s.view.Settings.Currency
	headers := []string{"Description", "Qty", "Price", "Discount", "Amount"}
	ratios := []float64{0.42, 0.12, 0.16, 0.14, 0.16}
	cols := make([]float64, len(ratios))
	for i, r := range ratios {
		cols[i] = width * r
	}

	s.font("B", 1)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetXY(x, y)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(cols[i], s.lineHeight*1.2, h, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	s.font("", 1)
	anyExempt := false
	for _, item := range s.view.Items {
		desc := item.Description
		if !item.Taxable {
			desc += " *"
			anyExempt = true
		}
		lines := pdf.SplitLines([]byte(s.tr(desc)), cols[0]-2)
		if len(lines) == 0 {
			lines = [][]byte{nil}
		}
		rowHeight := float64(len(lines)) * s.lineHeight
		rowY := pdf.GetY()

		pdf.SetXY(x, rowY)
		pdf.CellFormat(cols[0], rowHeight, "", "1", 0, "L", false, 0, "")
		for i, line := range lines {
			pdf.SetXY(x+1, rowY+float64(i)*s.lineHeight)
			pdf.CellFormat(cols[0]-2, s.lineHeight, string(line), "", 0, "L", false, 0, "")
		}

		pdf.SetXY(x+cols[0], rowY)
		for i, v := range []string{
			formatQuantity(item.Quantity),
			formatMoney(currency, item.Price),
			formatMoney(currency, item.Discount),
			formatMoney(currency, item.Amount()),
		} {
			pdf.CellFormat(cols[i+1], rowHeight, v, "1", 0, "R", false, 0, "")
		}
		pdf.SetXY(x, rowY+rowHeight)
	}

	if anyExempt {
		s.font("I", 0.8)
		pdf.SetX(x)
		pdf.CellFormat(width, s.lineHeight, "* not taxable", "", 1, "L", false, 0, "")
	}
	return pdf.GetY()
}

func (s *sheet) totals(x, y, width float64) float64 {
	pdf := s.pdf
	settings := s.view.Settings
	totals := s.view.Totals
	labelWidth := width * 0.7
	valueWidth := width - labelWidth

	discountLabel := "Discount"
	if settings.DiscountType == entity.DiscountPercentage {
		discountLabel = fmt.Sprintf("Discount (%s%%)", formatQuantity(settings.Discount))
	}

	rows := []struct {
		label string
		value float64
		bold  bool
	}{
		{"Subtotal", totals.Subtotal, false},
		{fmt.Sprintf("Tax (%s%%)", formatQuantity(settings.TaxRate)), totals.TaxAmount, false},
		{discountLabel, -totals.DiscountAmount, false},
		{"Total", totals.Total, true},
	}

	pdf.SetY(y)
	for _, row := range rows {
		style, border := "", ""
		if row.bold {
			style, border = "B", "T"
		}
		s.font(style, 1)
		pdf.SetX(x)
		pdf.CellFormat(labelWidth, s.lineHeight, row.label, border, 0, "R", false, 0, "")
		pdf.CellFormat(valueWidth, s.lineHeight, formatMoney(settings.Currency, row.value), border, 1, "R", false, 0, "")
	}
	return pdf.GetY()
}

func formatMoney(currency string, v float64) string {
	return fmt.Sprintf("%s %.2f", currency, v)
}

func formatQuantity(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
