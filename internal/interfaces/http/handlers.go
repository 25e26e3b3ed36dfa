package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoxis/internal/application/engine"
	"github.com/garyjia/invoxis/internal/application/service"
	"github.com/garyjia/invoxis/internal/domain/entity"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services       Services
	defaultProfile string
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, defaultProfile string, logger Logger) *Handlers {
	return &Handlers{
		services:       services,
		defaultProfile: defaultProfile,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DraftResponse is the full state of a draft
type DraftResponse struct {
	engine.State
	ProfileID    string              `json:"profileId"`
	Preview      entity.SurfaceState `json:"preview"`
	ExportStatus string              `json:"exportStatus"`
}

// FieldUpdateRequest updates one named field of a line item or the settings
type FieldUpdateRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}

// ValidationResponse reports the outcome of a validation run
type ValidationResponse struct {
	Scope  string                  `json:"scope"`
	Valid  bool                    `json:"valid"`
	Errors entity.ValidationErrors `json:"errors"`
}

// ExportResponse describes a finished export and where to download it
type ExportResponse struct {
	*service.ExportResult
	DownloadURL string `json:"downloadUrl"`
	PreviewURL  string `json:"previewUrl,omitempty"`
}

// ProfileResponse is the persistent state of a profile
type ProfileResponse struct {
	ProfileID   string        `json:"profileId"`
	DarkTheme   bool          `json:"darkTheme"`
	DisplayName string        `json:"displayName"`
	Issuer      *entity.Party `json:"issuer,omitempty"`
}

// ThemeRequest sets the theme flag
type ThemeRequest struct {
	Dark *bool `json:"dark" binding:"required"`
}

// DisplayNameRequest sets the greeting name
type DisplayNameRequest struct {
	Name string `json:"name"`
}

// RecentRecipientRequest picks a remembered recipient by email
type RecentRecipientRequest struct {
	Email string `json:"email" binding:"required"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Success: false, Error: msg})
}

// respondError maps application errors onto status codes. Render failures
// always carry the generic retry message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, service.ErrExportNotFound),
		errors.Is(err, service.ErrRecipientNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrExportInProgress):
		fail(c, http.StatusConflict, service.ErrExportInProgress.Error())
	case errors.Is(err, service.ErrSurfaceNotMounted):
		fail(c, http.StatusUnprocessableEntity, service.ErrSurfaceNotMounted.Error())
	case errors.Is(err, service.ErrRenderFailed):
		fail(c, http.StatusInternalServerError, service.ErrRenderFailed.Error())
	case errors.Is(err, service.ErrLogoTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, engine.ErrUnknownField),
		errors.Is(err, engine.ErrInvalidNumber),
		errors.Is(err, engine.ErrInvalidValue),
		errors.Is(err, entity.ErrUnsupportedCountry),
		errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrInvalidLogo):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handlers) profileID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(ProfileHeader)); id != "" {
		return id
	}
	return h.defaultProfile
}

// draft loads the draft named by the :id path parameter, writing the error response on failure
func (h *Handlers) draft(c *gin.Context) (*service.Draft, bool) {
	d, err := h.services.Drafts.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return d, true
}

func draftResponse(d *service.Draft) DraftResponse {
	return DraftResponse{
		State:        d.Engine.Snapshot(),
		ProfileID:    d.ProfileID,
		Preview:      d.Surface.State(),
		ExportStatus: d.ExportStatus().String(),
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// CreateDraft handles POST /api/v1/drafts
func (h *Handlers) CreateDraft(c *gin.Context) {
	d, err := h.services.Drafts.Create(c.Request.Context(), h.profileID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, draftResponse(d))
}

// ListDrafts handles GET /api/v1/drafts
func (h *Handlers) ListDrafts(c *gin.Context) {
	ok(c, http.StatusOK, h.services.Drafts.List())
}

// GetDraft handles GET /api/v1/drafts/:id
func (h *Handlers) GetDraft(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, draftResponse(d))
}

// DeleteDraft handles DELETE /api/v1/drafts/:id
func (h *Handlers) DeleteDraft(c *gin.Context) {
	if err := h.services.Drafts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateIssuer handles PATCH /api/v1/drafts/:id/issuer
func (h *Handlers) UpdateIssuer(c *gin.Context) {
	h.updateParty(c, entity.RoleIssuer)
}

// UpdateRecipient handles PATCH /api/v1/drafts/:id/recipient
func (h *Handlers) UpdateRecipient(c *gin.Context) {
	h.updateParty(c, entity.RoleRecipient)
}

func (h *Handlers) updateParty(c *gin.Context, role entity.PartyRole) {
	d, found := h.draft(c)
	if !found {
		return
	}

	var patch entity.PartyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	set, get := d.Engine.SetRecipient, d.Engine.Recipient
	if role == entity.RoleIssuer {
		set, get = d.Engine.SetIssuer, d.Engine.Issuer
	}
	if err := set(patch); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, get())
}

// UseRecentRecipient handles POST /api/v1/drafts/:id/recipient/recent
func (h *Handlers) UseRecentRecipient(c *gin.Context) {
	var req RecentRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "email is required")
		return
	}

	id := c.Param("id")
	if err := h.services.Drafts.UseRecentRecipient(c.Request.Context(), id, req.Email); err != nil {
		h.respondError(c, err)
		return
	}

	d, found := h.draft(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, d.Engine.Recipient())
}

// UploadLogo handles POST /api/v1/drafts/:id/logo (multipart field "logo")
func (h *Handlers) UploadLogo(c *gin.Context) {
	file, err := c.FormFile("logo")
	if err != nil {
		fail(c, http.StatusBadRequest, "logo file is required")
		return
	}
	if file.Size > service.MaxLogoBytes {
		h.respondError(c, service.ErrLogoTooLarge)
		return
	}

	f, err := file.Open()
	if err != nil {
		h.respondError(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, service.MaxLogoBytes+1))
	if err != nil {
		h.respondError(c, fmt.Errorf("read upload: %w", err))
		return
	}

	id := c.Param("id")
	if err := h.services.Drafts.SetLogo(c.Request.Context(), id, content); err != nil {
		h.respondError(c, err)
		return
	}

	d, found := h.draft(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, d.Engine.Issuer())
}

// RemoveLogo handles DELETE /api/v1/drafts/:id/logo
func (h *Handlers) RemoveLogo(c *gin.Context) {
	if err := h.services.Drafts.RemoveLogo(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddLineItem handles POST /api/v1/drafts/:id/items
func (h *Handlers) AddLineItem(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}
	ok(c, http.StatusCreated, d.Engine.AddLineItem())
}

// UpdateLineItem handles PATCH /api/v1/drafts/:id/items/:itemID.
// An unknown item id succeeds without changing anything.
func (h *Handlers) UpdateLineItem(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}

	var req FieldUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "field is required")
		return
	}

	if err := d.Engine.UpdateLineItem(c.Param("itemID"), req.Field, req.Value); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, d.Engine.Items())
}

// RemoveLineItem handles DELETE /api/v1/drafts/:id/items/:itemID
func (h *Handlers) RemoveLineItem(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}
	d.Engine.RemoveLineItem(c.Param("itemID"))
	ok(c, http.StatusOK, d.Engine.Items())
}

// UpdateSettings handles PATCH /api/v1/drafts/:id/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}

	var req FieldUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "field is required")
		return
	}

	if err := d.Engine.UpdateSettings(req.Field, req.Value); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, d.Engine.Settings())
}

// GetTotals handles GET /api/v1/drafts/:id/totals
func (h *Handlers) GetTotals(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}
	ok(c, http.StatusOK, d.Engine.Totals())
}

// Validate handles POST /api/v1/drafts/:id/validate?scope=issuer|recipient|items|all.
// A failed validation is still a successful request; the verdict is in the body.
func (h *Handlers) Validate(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}

	scope := c.DefaultQuery("scope", "all")
	var valid bool
	switch scope {
	case "issuer":
		valid = d.Engine.ValidateIssuer()
	case "recipient":
		valid = d.Engine.ValidateRecipient()
	case "items":
		valid = d.Engine.ValidateLineItems()
	case "all":
		valid = d.Engine.ValidateAll()
	default:
		fail(c, http.StatusBadRequest, fmt.Sprintf("unknown validation scope %q", scope))
		return
	}

	ok(c, http.StatusOK, ValidationResponse{
		Scope:  scope,
		Valid:  valid,
		Errors: d.Engine.Errors(),
	})
}

// MountPreview handles PUT /api/v1/drafts/:id/preview
func (h *Handlers) MountPreview(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}
	d.Surface.Mount()
	ok(c, http.StatusOK, d.Surface.State())
}

// UnmountPreview handles DELETE /api/v1/drafts/:id/preview
func (h *Handlers) UnmountPreview(c *gin.Context) {
	d, found := h.draft(c)
	if !found {
		return
	}
	d.Surface.Unmount()
	ok(c, http.StatusOK, d.Surface.State())
}

// Export handles POST /api/v1/drafts/:id/export?format=pdf|xlsx
func (h *Handlers) Export(c *gin.Context) {
	id := c.Param("id")
	result, err := h.services.Exports.Export(c.Request.Context(), id, c.Query("format"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := ExportResponse{
		ExportResult: result,
		DownloadURL:  exportURL(id, result.Filename),
	}
	if result.PreviewFilename != "" {
		resp.PreviewURL = exportURL(id, result.PreviewFilename)
	}
	ok(c, http.StatusOK, resp)
}

func exportURL(draftID, filename string) string {
	return "/api/v1/drafts/" + draftID + "/exports/" + filename
}

// DownloadExport handles GET /api/v1/drafts/:id/exports/:filename
func (h *Handlers) DownloadExport(c *gin.Context) {
	doc, err := h.services.Exports.Open(c.Request.Context(), c.Param("id"), c.Param("filename"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// GetProfile handles GET /api/v1/profile
func (h *Handlers) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	id := h.profileID(c)

	dark, err := h.services.Profiles.DarkTheme(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	name, err := h.services.Profiles.DisplayName(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	issuer, found, err := h.services.Profiles.LoadIssuer(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := ProfileResponse{ProfileID: id, DarkTheme: dark, DisplayName: name}
	if found {
		resp.Issuer = &issuer
	}
	ok(c, http.StatusOK, resp)
}

// SetTheme handles PUT /api/v1/profile/theme
func (h *Handlers) SetTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "dark is required")
		return
	}
	if err := h.services.Profiles.SetDarkTheme(c.Request.Context(), h.profileID(c), *req.Dark); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"darkTheme": *req.Dark})
}

// ToggleTheme handles POST /api/v1/profile/theme/toggle
func (h *Handlers) ToggleTheme(c *gin.Context) {
	dark, err := h.services.Profiles.ToggleTheme(c.Request.Context(), h.profileID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"darkTheme": dark})
}

// SetDisplayName handles PUT /api/v1/profile/display-name
func (h *Handlers) SetDisplayName(c *gin.Context) {
	var req DisplayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if err := h.services.Profiles.SetDisplayName(c.Request.Context(), h.profileID(c), name); err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"displayName": name})
}

// ResetProfile handles DELETE /api/v1/profile
func (h *Handlers) ResetProfile(c *gin.Context) {
	removed, err := h.services.Profiles.Reset(c.Request.Context(), h.profileID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cleared": removed})
}

// RecentRecipients handles GET /api/v1/profile/recipients
func (h *Handlers) RecentRecipients(c *gin.Context) {
	list, err := h.services.Profiles.RecentRecipients(c.Request.Context(), h.profileID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}
