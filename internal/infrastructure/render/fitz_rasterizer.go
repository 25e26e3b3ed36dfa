package render

import (
	"context"
	"fmt"

	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// FitzRasterizer renders PDF pages to PNG through MuPDF
type FitzRasterizer struct {
	logger *zap.Logger
}

// NewFitzRasterizer creates a new rasterizer
func NewFitzRasterizer(logger *zap.Logger) port.Rasterizer {
	return &FitzRasterizer{logger: logger}
}

// FirstPagePNG implements port.Rasterizer
func (r *FitzRasterizer) FirstPagePNG(ctx context.Context, pdf []byte, dpi float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	img, err := doc.ImagePNG(0, dpi)
	if err != nil {
		r.logger.Error("Failed to rasterize page", zap.Float64("dpi", dpi), zap.Error(err))
		return nil, fmt.Errorf("failed to rasterize page: %w", err)
	}

	r.logger.Debug("Rasterized first page",
		zap.Int("page_count", doc.NumPage()),
		zap.Float64("dpi", dpi),
		zap.Int("size", len(img)))
	return img, nil
}
