package service

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/internal/domain/entity"
	"github.com/garyjia/invoxis/internal/domain/event"
	"github.com/garyjia/invoxis/internal/domain/workflow"
)

// ExportConfig configures the export pipeline
type ExportConfig struct {
	Scale      float64
	Preview    bool
	PreviewDPI float64
	Timeout    time.Duration
}

// ExportResult describes a stored export
type ExportResult struct {
	DraftID         string `json:"draftId"`
	Format          string `json:"format"`
	Filename        string `json:"filename"`
	Size            int    `json:"size"`
	PreviewFilename string `json:"previewFilename,omitempty"`
}

// ExportService renders drafts into downloadable documents
type ExportService interface {
	Export(ctx context.Context, draftID, format string) (*ExportResult, error)
	Open(ctx context.Context, draftID, filename string) (*port.Document, error)
}

type exportServiceImpl struct {
	cfg        ExportConfig
	drafts     DraftService
	renderers  map[string]port.DocumentRenderer
	rasterizer port.Rasterizer
	storage    port.FileStorage
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewExportService creates a new ExportService. rasterizer and d may be nil.
func NewExportService(
	cfg ExportConfig,
	drafts DraftService,
	renderers []port.DocumentRenderer,
	rasterizer port.Rasterizer,
	storage port.FileStorage,
	d dispatcher.Dispatcher,
	logger Logger,
) ExportService {
	byFormat := make(map[string]port.DocumentRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	return &exportServiceImpl{
		cfg:        cfg,
		drafts:     drafts,
		renderers:  byFormat,
		rasterizer: rasterizer,
		storage:    storage,
		dispatcher: d,
		logger:     logger,
	}
}

// Export captures the mounted preview of a draft and stores the rendered document.
// The surface is hidden and compacted for the capture and restored on every path.
func (s *exportServiceImpl) Export(ctx context.Context, draftID, format string) (*ExportResult, error) {
	if format == "" {
		format = port.FormatPDF
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	draft, err := s.drafts.Get(draftID)
	if err != nil {
		return nil, err
	}
	if !draft.Surface.Mounted() {
		return nil, ErrSurfaceNotMounted
	}

	end, ok := draft.TryBeginExport()
	if !ok {
		return nil, ErrExportInProgress
	}
	defer end()

	if err := draft.advanceExport(ctx, workflow.TriggerStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportInProgress, err)
	}

	restore := draft.Surface.PrepareForCapture()
	defer restore()

	view := draft.Engine.View(draft.Surface.State().Style)
	number := view.Settings.InvoiceNumber
	s.publish(ctx, event.NewEvent(event.TypeExportStarted, draftID, draft.ProfileID, number, map[string]interface{}{
		event.PayloadFormat: format,
	}))

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	result, err := s.renderAndStore(ctx, renderer, draftID, view)
	if err != nil {
		s.finish(draft, workflow.TriggerFail)
		s.logger.Error("Export failed", "draft_id", draftID, "format", format, "error", err)
		s.publish(ctx, event.NewEvent(event.TypeExportFailed, draftID, draft.ProfileID, number, map[string]interface{}{
			event.PayloadFormat: format,
			event.PayloadError:  ErrRenderFailed.Error(),
		}))
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	s.finish(draft, workflow.TriggerSucceed)
	s.logger.Info("Export completed",
		"draft_id", draftID,
		"format", format,
		"filename", result.Filename,
		"size", result.Size,
	)
	s.publish(ctx, event.NewEvent(event.TypeExportCompleted, draftID, draft.ProfileID, number, map[string]interface{}{
		event.PayloadFormat:   format,
		event.PayloadFilename: result.Filename,
		event.PayloadSize:     result.Size,
	}))
	return result, nil
}

func (s *exportServiceImpl) finish(draft *Draft, trigger workflow.Trigger) {
	if err := draft.advanceExport(context.Background(), trigger); err != nil {
		s.logger.Error("Export lifecycle out of sync", "draft_id", draft.ID, "trigger", trigger.String(), "error", err)
	}
}

func (s *exportServiceImpl) renderAndStore(ctx context.Context, renderer port.DocumentRenderer, draftID string, view entity.InvoiceView) (*ExportResult, error) {
	doc, err := renderer.Render(ctx, view)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if err := s.storage.Save(ctx, path.Join(draftID, doc.Filename), doc.Content); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	result := &ExportResult{
		DraftID:  draftID,
		Format:   renderer.Format(),
		Filename: doc.Filename,
		Size:     len(doc.Content),
	}

	if renderer.Format() == port.FormatPDF && s.cfg.Preview && s.rasterizer != nil {
		result.PreviewFilename = s.storePreview(ctx, draftID, doc)
	}
	return result, nil
}

// storePreview rasterizes page 1. A failed preview does not fail the export,
// but a thumbnail left by an earlier export of the same file is removed.
func (s *exportServiceImpl) storePreview(ctx context.Context, draftID string, doc *port.Document) string {
	dpi := s.cfg.PreviewDPI
	if dpi <= 0 {
		dpi = 72 * s.cfg.Scale
	}
	name := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename)) + ".png"
	rel := path.Join(draftID, name)

	img, err := s.rasterizer.FirstPagePNG(ctx, doc.Content, dpi)
	if err != nil {
		s.logger.Error("Preview rasterization failed", "draft_id", draftID, "error", err)
		s.dropPreview(ctx, rel)
		return ""
	}

	if err := s.storage.Save(ctx, rel, img); err != nil {
		s.logger.Error("Failed to store preview", "draft_id", draftID, "error", err)
		s.dropPreview(ctx, rel)
		return ""
	}
	return name
}

func (s *exportServiceImpl) dropPreview(ctx context.Context, rel string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), rel); err != nil {
		s.logger.Error("Failed to remove stale preview", "path", rel, "error", err)
	}
}

// Open returns a previously exported file of a draft
func (s *exportServiceImpl) Open(ctx context.Context, draftID, filename string) (*port.Document, error) {
	if _, err := s.drafts.Get(draftID); err != nil {
		return nil, err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, filename)
	}

	rel := path.Join(draftID, filename)
	if !s.storage.Exists(ctx, rel) {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, filename)
	}
	content, err := s.storage.Read(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}

	return &port.Document{
		Filename:    filename,
		ContentType: contentType(filename),
		Content:     content,
	}, nil
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".png":
		return "image/png"
	}
	return "application/octet-stream"
}

func (s *exportServiceImpl) publish(ctx context.Context, evt *event.Event) {
	if s.dispatcher == nil {
		return
	}
	// delivery ignores request cancellation
	if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), evt); err != nil {
		s.logger.Error("Event subscriber failed", "event_type", evt.Type.String(), "draft_id", evt.DraftID, "error", err)
	}
}
