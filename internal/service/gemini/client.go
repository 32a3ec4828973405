package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/httpclient"
	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

// Client talks to the Gemini generateContent REST endpoint. One instance is
// constructed at startup with a validated credential and injected everywhere
// a generation call is needed.
type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	textModel  string
	httpClient *httpclient.Client
	logger     *logger.Logger
}

type Options struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	TextModel  string
	HTTPClient *httpclient.Client
	Logger     *logger.Logger
}

func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New(errors.ErrCodeConfig, "gemini: API key is required")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New(errors.ErrCodeConfig, "gemini: HTTP client is required")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		imageModel: opts.ImageModel,
		textModel:  opts.TextModel,
		httpClient: opts.HTTPClient,
		logger:     log,
	}, nil
}

// GenerateImage issues a single image-generation call: prompt text followed by
// the reference images in order, mask last when present. No retry happens
// here; the response is classified and returned as-is.
func (c *Client) GenerateImage(ctx context.Context, prompt string, refs []Image, mask *Image) (*Image, error) {
	parts := []part{{Text: prompt}}
	for _, ref := range refs {
		if len(ref.Data) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "reference image is empty")
		}
		parts = append(parts, part{InlineData: &blob{
			MimeType: ref.MimeType,
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
		}})
	}
	if mask != nil {
		if len(mask.Data) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "mask image is empty")
		}
		parts = append(parts, part{InlineData: &blob{
			MimeType: mask.MimeType,
			Data:     base64.StdEncoding.EncodeToString(mask.Data),
		}})
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return nil, err
	}
	return extractImage(resp)
}

// GenerateJSON asks the text model for a structured JSON reply and
// unmarshals it into out.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, refs []Image, out interface{}) error {
	parts := []part{{Text: prompt}}
	for _, ref := range refs {
		if len(ref.Data) == 0 {
			return errors.New(errors.ErrCodeInvalidInput, "reference image is empty")
		}
		parts = append(parts, part{InlineData: &blob{
			MimeType: ref.MimeType,
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
		}})
	}

	req := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			Temperature:      0.7,
			MaxOutputTokens:  4096,
			ResponseMimeType: "application/json",
		},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return err
	}

	text, err := extractText(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		c.logger.Error("unparseable structured reply", "text", text, "error", err)
		return errors.Wrap(err, errors.ErrCodeGeminiAPI, "parse structured reply")
	}
	return nil
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (*generateContentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "marshal request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	httpResp, err := c.httpClient.PostJSON(ctx, url, body)
	if err != nil {
		// Network-level failures are worth a retry upstream.
		return nil, errors.Wrap(err, errors.ErrCodeTransient, "gemini request failed")
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTransient, "read gemini response")
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, rawBody)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGeminiAPI, "decode gemini response")
	}
	return &decoded, nil
}

// classifyHTTPError maps a non-200 status to the error taxonomy: 429 and 5xx
// carry the transient signature, everything else is terminal.
func classifyHTTPError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = fmt.Sprintf("%s: %s", apiErr.Error.Status, apiErr.Error.Message)
	}

	if status == http.StatusTooManyRequests || status >= 500 {
		return errors.Newf(errors.ErrCodeTransient, "gemini API %d: %s", status, message)
	}
	return errors.Newf(errors.ErrCodeGeminiAPI, "gemini API %d: %s", status, message)
}
