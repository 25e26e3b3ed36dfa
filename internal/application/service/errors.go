package service

import "errors"

// Logger is the narrow logging dependency of the services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

var (
	// ErrDraftNotFound is returned for an unknown or evicted draft id
	ErrDraftNotFound = errors.New("draft not found")

	// ErrSurfaceNotMounted is returned when exporting a draft without a mounted preview
	ErrSurfaceNotMounted = errors.New("Invoice preview not found. Please switch to the Preview tab first.")

	// ErrExportInProgress is returned when a draft is already being exported
	ErrExportInProgress = errors.New("export already in progress")

	// ErrRenderFailed wraps every failure inside the render pipeline
	ErrRenderFailed = errors.New("Error generating PDF. Please try again.")

	// ErrUnsupportedFormat is returned for an export format without a renderer
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrExportNotFound is returned when downloading a file that was never exported
	ErrExportNotFound = errors.New("export not found")

	// ErrInvalidLogo is returned for uploads that are not images
	ErrInvalidLogo = errors.New("logo must be an image file")

	// ErrLogoTooLarge is returned for uploads above the logo size limit
	ErrLogoTooLarge = errors.New("logo must be 2MB or smaller")

	// ErrRecipientNotFound is returned when picking a recent recipient that is not stored
	ErrRecipientNotFound = errors.New("recent recipient not found")
)
