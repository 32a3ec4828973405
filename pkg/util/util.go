package util

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

func RandomString(n int) string {
	bytes := make([]byte, n)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:n]
}

// DecodeImagePayload accepts either a bare base64 string or a data URL
// (data:image/png;base64,xxxx) and returns the raw bytes plus mime type.
// The mime type from the data URL prefix wins; otherwise it is sniffed
// from the magic bytes.
func DecodeImagePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	mime := ""

	if strings.HasPrefix(payload, "data:") {
		idx := strings.IndexByte(payload, ',')
		if idx < 0 {
			return nil, "", fmt.Errorf("malformed data URL: missing comma")
		}
		header := payload[len("data:"):idx]
		if semi := strings.IndexByte(header, ';'); semi >= 0 {
			mime = header[:semi]
		} else {
			mime = header
		}
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	if mime == "" {
		mime = DetectImageMime(data)
	}
	return data, mime, nil
}

// EncodeDataURL renders (mime, bytes) as a browser-consumable data URL.
func EncodeDataURL(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// DetectImageMime sniffs the image format from magic bytes, defaulting to PNG.
func DetectImageMime(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}
	switch {
	case data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg"
	case data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png"
	case data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46:
		return "image/gif"
	case data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46:
		return "image/webp"
	}
	return "image/png"
}
