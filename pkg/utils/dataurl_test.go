package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURLRoundTrip(t *testing.T) {
	url := EncodeDataURL("image/png", []byte{0x89, 'P', 'N', 'G'})
	assert.Equal(t, "data:image/png;base64,iVBORw==", url)

	content, mimeType, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, content)
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	for _, s := range []string{"", "https://example.com/logo.png", "data:image/png,raw", "data:image/png;base64"} {
		_, _, err := DecodeDataURL(s)
		assert.ErrorIs(t, err, ErrNotDataURL, s)
	}

	_, _, err := DecodeDataURL("data:image/png;base64,@@@")
	assert.Error(t, err)
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, IsRemoteURL("https://cdn.example.com/a.png"))
	assert.True(t, IsRemoteURL("http://cdn.example.com/a.png"))
	assert.False(t, IsRemoteURL("data:image/png;base64,AA=="))
	assert.False(t, IsRemoteURL("ftp://x"))
}
