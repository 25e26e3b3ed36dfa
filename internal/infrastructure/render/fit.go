package render

import "fmt"

// PageSize is a page in millimetres
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

// Supported page formats, portrait
var (
	PageA4     = PageSize{Name: "A4", Width: 210, Height: 297}
	PageLetter = PageSize{Name: "Letter", Width: 215.9, Height: 279.4}
)

// LookupPage resolves a configured page format name
func LookupPage(name string) (PageSize, error) {
	switch name {
	case "", "A4", "a4":
		return PageA4, nil
	case "Letter", "letter":
		return PageLetter, nil
	}
	return PageSize{}, fmt.Errorf("unsupported page format %q", name)
}

// Placement is where captured content lands on the page
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Scale is the factor applied to the content to reach the placement
func (p Placement) Scale(contentWidth float64) float64 {
	if contentWidth == 0 {
		return 1
	}
	return p.Width / contentWidth
}

// FitSinglePage scales content of the given size to fill the printable width,
// shrinks it further when it would overflow the printable height, and centres it
// horizontally. The top edge always sits on the margin.
func FitSinglePage(contentWidth, contentHeight float64, page PageSize, margin float64) Placement {
	imgWidth := page.Width - 2*margin
	if contentWidth <= 0 || contentHeight <= 0 {
		return Placement{X: margin, Y: margin, Width: imgWidth}
	}

	imgHeight := contentHeight * imgWidth / contentWidth
	maxHeight := page.Height - 2*margin

	finalHeight := imgHeight
	if finalHeight > maxHeight {
		finalHeight = maxHeight
	}
	finalWidth := contentWidth * finalHeight / contentHeight

	return Placement{
		X:      margin + (imgWidth-finalWidth)/2,
		Y:      margin,
		Width:  finalWidth,
		Height: finalHeight,
	}
}

// pxToMM converts CSS pixels at 96 DPI
func pxToMM(px int) float64 {
	return float64(px) * 25.4 / 96
}

// pxToPt converts CSS pixels to font points
func pxToPt(px int) float64 {
	return float64(px) * 0.75
}
