package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotDataURL is returned when a string is not a base64 data: URL
var ErrNotDataURL = errors.New("not a base64 data URL")

// EncodeDataURL builds data:<mime>;base64,<payload>
func EncodeDataURL(mimeType string, content []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// DecodeDataURL returns the payload and declared media type of a base64 data: URL
func DecodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", ErrNotDataURL
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return content, mimeType, nil
}

// IsRemoteURL reports whether s is an http or https URL
func IsRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
