package entity

import "sync"

// SurfaceStyle is the inline style captured from a preview surface
type SurfaceStyle struct {
	FontSizePx int `json:"fontSizePx"`
	PaddingPx  int `json:"paddingPx"`
	MarginPx   int `json:"marginPx"`
}

// DefaultSurfaceStyle is the on-screen style of a freshly mounted preview
var DefaultSurfaceStyle = SurfaceStyle{FontSizePx: 14, PaddingPx: 40, MarginPx: 20}

// PrintSurfaceStyle is the compact style applied while capturing a single-page document
var PrintSurfaceStyle = SurfaceStyle{FontSizePx: 12, PaddingPx: 10, MarginPx: 0}

// PreviewSurface is the renderable preview of a draft. Export temporarily hides
// the action controls and compacts the style; both must be restored afterwards.
type PreviewSurface struct {
	mu             sync.Mutex
	mounted        bool
	actionsVisible bool
	style          SurfaceStyle
}

// SurfaceState is a point-in-time copy of a PreviewSurface
type SurfaceState struct {
	Mounted        bool         `json:"mounted"`
	ActionsVisible bool         `json:"actionsVisible"`
	Style          SurfaceStyle `json:"style"`
}

// NewPreviewSurface returns an unmounted surface
func NewPreviewSurface() *PreviewSurface {
	return &PreviewSurface{actionsVisible: true, style: DefaultSurfaceStyle}
}

// Mount makes the surface available for capture
func (s *PreviewSurface) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = true
	s.actionsVisible = true
	s.style = DefaultSurfaceStyle
}

// Unmount removes the surface
func (s *PreviewSurface) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
}

// Mounted reports whether the surface can be captured
func (s *PreviewSurface) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// State returns a copy of the current surface state
func (s *PreviewSurface) State() SurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SurfaceState{Mounted: s.mounted, ActionsVisible: s.actionsVisible, Style: s.style}
}

// PrepareForCapture hides the action controls and applies the print style.
// The returned function restores the previous visibility and style.
func (s *PreviewSurface) PrepareForCapture() (restore func()) {
	s.mu.Lock()
	prevVisible := s.actionsVisible
	prevStyle := s.style
	s.actionsVisible = false
	s.style = PrintSurfaceStyle
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.actionsVisible = prevVisible
			s.style = prevStyle
			s.mu.Unlock()
		})
	}
}

// InvoiceView is the immutable snapshot handed to document renderers
type InvoiceView struct {
	DraftID   string       `json:"draftId"`
	Issuer    Party        `json:"issuer"`
	Recipient Party        `json:"recipient"`
	Items     []LineItem   `json:"items"`
	Settings  Settings     `json:"settings"`
	Totals    Totals       `json:"totals"`
	Style     SurfaceStyle `json:"style"`
}
