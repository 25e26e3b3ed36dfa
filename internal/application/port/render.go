package port

import (
	"context"

	"github.com/garyjia/invoxis/internal/domain/entity"
)

// Document formats
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Document is a rendered export
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

// DocumentRenderer turns an invoice snapshot into a downloadable document
type DocumentRenderer interface {
	Format() string
	Render(ctx context.Context, view entity.InvoiceView) (*Document, error)
}

// Rasterizer produces a PNG image of the first page of a PDF document
type Rasterizer interface {
	FirstPagePNG(ctx context.Context, pdf []byte, dpi float64) ([]byte, error)
}

// LogoFetcher resolves a remote logo URL into a data: URL
type LogoFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
