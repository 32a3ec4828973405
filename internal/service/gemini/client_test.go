package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/httpclient"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		ImageModel: "image-model",
		TextModel:  "text-model",
		HTTPClient: httpclient.New(httpclient.Options{Timeout: 5 * time.Second}),
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredential(t *testing.T) {
	_, err := New(Options{HTTPClient: httpclient.New(httpclient.Options{})})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfig))
}

func TestGenerateImage(t *testing.T) {
	t.Run("success returns decoded image", func(t *testing.T) {
		pngBytes := []byte{0x89, 0x50, 0x4E, 0x47}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "image-model:generateContent")
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))

			var req generateContentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Contents, 1)
			// prompt text first, then the reference image.
			require.Len(t, req.Contents[0].Parts, 2)
			assert.Equal(t, "a prompt", req.Contents[0].Parts[0].Text)
			assert.NotNil(t, req.Contents[0].Parts[1].InlineData)

			json.NewEncoder(w).Encode(generateContentResponse{
				Candidates: []candidate{{Content: content{Parts: []part{{
					InlineData: &blob{
						MimeType: "image/png",
						Data:     base64.StdEncoding.EncodeToString(pngBytes),
					},
				}}}}},
			})
		})

		refs := []Image{{MimeType: "image/png", Data: []byte{0x01}}}
		img, err := c.GenerateImage(context.Background(), "a prompt", refs, nil)
		require.NoError(t, err)
		assert.Equal(t, pngBytes, img.Data)
	})

	t.Run("mask is sent as the last part", func(t *testing.T) {
		var gotParts int
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req generateContentRequest
			json.NewDecoder(r.Body).Decode(&req)
			gotParts = len(req.Contents[0].Parts)

			json.NewEncoder(w).Encode(generateContentResponse{
				Candidates: []candidate{{Content: content{Parts: []part{{
					InlineData: &blob{MimeType: "image/png", Data: base64.StdEncoding.EncodeToString([]byte{0x01})},
				}}}}},
			})
		})

		refs := []Image{{MimeType: "image/png", Data: []byte{0x01}}}
		mask := Image{MimeType: "image/png", Data: []byte{0x02}}
		_, err := c.GenerateImage(context.Background(), "edit", refs, &mask)
		require.NoError(t, err)
		assert.Equal(t, 3, gotParts) // text + base + mask
	})

	t.Run("429 maps to transient", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED","message":"quota"}}`))
		})
		_, err := c.GenerateImage(context.Background(), "p", nil, nil)
		require.Error(t, err)
		assert.True(t, errors.IsTransient(err))
	})

	t.Run("400 is terminal", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"status":"INVALID_ARGUMENT","message":"bad"}}`))
		})
		_, err := c.GenerateImage(context.Background(), "p", nil, nil)
		require.Error(t, err)
		assert.False(t, errors.IsTransient(err))
	})

	t.Run("empty reference image rejected locally", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request should be sent")
		})
		_, err := c.GenerateImage(context.Background(), "p", []Image{{}}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	})
}

func TestGenerateJSON(t *testing.T) {
	t.Run("unmarshals fenced payload", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "text-model:generateContent")
			json.NewEncoder(w).Encode(generateContentResponse{
				Candidates: []candidate{{Content: content{Parts: []part{{
					Text: "```json\n{\"title\":\"Urban Loft\"}\n```",
				}}}}},
			})
		})

		var out struct {
			Title string `json:"title"`
		}
		require.NoError(t, c.GenerateJSON(context.Background(), "write copy", nil, &out))
		assert.Equal(t, "Urban Loft", out.Title)
	})

	t.Run("unparseable reply is a terminal API error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(generateContentResponse{
				Candidates: []candidate{{Content: content{Parts: []part{{Text: "not json"}}}}},
			})
		})

		var out map[string]interface{}
		err := c.GenerateJSON(context.Background(), "write copy", nil, &out)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeGeminiAPI))
	})
}
