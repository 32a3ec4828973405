package gemini

import (
	"encoding/base64"
	"strings"

	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

// finish reasons that signal the moderation layer rejected the request.
var safetyFinishReasons = map[string]bool{
	"SAFETY":             true,
	"IMAGE_SAFETY":       true,
	"PROHIBITED_CONTENT": true,
	"BLOCKLIST":          true,
}

// extractImage classifies a decoded generateContent response into exactly one
// of three outcomes: an inline image (the first part carrying image bytes
// wins, any accompanying text is ignored), a safety block, or a text-only
// refusal whose text is surfaced in the error for diagnostics.
//
// This is a pure classifier. Retry and fallback decisions belong to the
// generation layer.
func extractImage(resp *generateContentResponse) (*Image, error) {
	if resp == nil {
		return nil, errors.New(errors.ErrCodeGeminiAPI, "nil response")
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, errors.Newf(errors.ErrCodeBlocked,
			"prompt blocked by moderation: %s", resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.New(errors.ErrCodeNoImage, "response contains no candidates")
	}

	cand := resp.Candidates[0]
	if safetyFinishReasons[cand.FinishReason] {
		return nil, errors.Newf(errors.ErrCodeBlocked,
			"generation stopped by moderation: %s", cand.FinishReason)
	}

	var textParts []string
	for _, p := range cand.Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeGeminiAPI, "decode inline image data")
			}
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return &Image{MimeType: mime, Data: data}, nil
		}
		if p.Text != "" {
			textParts = append(textParts, p.Text)
		}
	}

	text := strings.TrimSpace(strings.Join(textParts, " "))
	if text == "" {
		text = "(no text returned)"
	}
	return nil, errors.Newf(errors.ErrCodeNoImage, "model returned text instead of an image: %q", text)
}

// extractText returns the concatenated text parts of the first candidate,
// with markdown code fences stripped so JSON payloads unmarshal cleanly.
func extractText(resp *generateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New(errors.ErrCodeGeminiAPI, "empty response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", errors.Newf(errors.ErrCodeBlocked,
			"prompt blocked by moderation: %s", resp.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	text := strings.TrimSpace(sb.String())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", errors.New(errors.ErrCodeGeminiAPI, "response contains no text")
	}
	return text, nil
}
