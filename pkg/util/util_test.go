package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestDecodeImagePayload(t *testing.T) {
	t.Run("data URL", func(t *testing.T) {
		payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
		data, mime, err := DecodeImagePayload(payload)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)
		assert.Equal(t, "image/png", mime)
	})

	t.Run("bare base64 sniffs mime", func(t *testing.T) {
		jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
		data, mime, err := DecodeImagePayload(base64.StdEncoding.EncodeToString(jpeg))
		require.NoError(t, err)
		assert.Equal(t, jpeg, data)
		assert.Equal(t, "image/jpeg", mime)
	})

	t.Run("data URL mime wins over magic bytes", func(t *testing.T) {
		payload := "data:image/webp;base64," + base64.StdEncoding.EncodeToString(pngHeader)
		_, mime, err := DecodeImagePayload(payload)
		require.NoError(t, err)
		assert.Equal(t, "image/webp", mime)
	})

	t.Run("malformed data URL", func(t *testing.T) {
		_, _, err := DecodeImagePayload("data:image/png;base64")
		assert.Error(t, err)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, _, err := DecodeImagePayload("not-base64!!!")
		assert.Error(t, err)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, _, err := DecodeImagePayload("")
		assert.Error(t, err)
	})
}

func TestEncodeDataURLRoundTrip(t *testing.T) {
	url := EncodeDataURL("image/png", pngHeader)
	data, mime, err := DecodeImagePayload(url)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", mime)
}

func TestDetectImageMime(t *testing.T) {
	assert.Equal(t, "image/png", DetectImageMime(pngHeader))
	assert.Equal(t, "image/jpeg", DetectImageMime([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, "image/gif", DetectImageMime([]byte("GIF89a")))
	assert.Equal(t, "application/octet-stream", DetectImageMime([]byte{0x00}))
}

func TestRandomString(t *testing.T) {
	a := RandomString(16)
	b := RandomString(16)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
