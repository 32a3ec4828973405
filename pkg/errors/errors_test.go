package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	t.Run("direct code", func(t *testing.T) {
		err := New(ErrCodeTransient, "upstream 503")
		assert.True(t, Is(err, ErrCodeTransient))
		assert.False(t, Is(err, ErrCodeBlocked))
	})

	t.Run("wrapped code is still found", func(t *testing.T) {
		inner := New(ErrCodeTransient, "upstream 503")
		outer := Wrap(inner, ErrCodeAllCandidates, "all 3 candidates failed")
		assert.True(t, Is(outer, ErrCodeAllCandidates))
		assert.True(t, Is(outer, ErrCodeTransient))
	})

	t.Run("plain error matches nothing", func(t *testing.T) {
		assert.False(t, Is(fmt.Errorf("boom"), ErrCodeTransient))
	})

	t.Run("nil error", func(t *testing.T) {
		assert.False(t, Is(nil, ErrCodeTransient))
	})
}

func TestCode(t *testing.T) {
	assert.Equal(t, ErrCodeBlocked, Code(New(ErrCodeBlocked, "nope")))
	assert.Equal(t, ErrCodeInternal, Code(fmt.Errorf("plain")))

	wrapped := Wrap(New(ErrCodeTransient, "inner"), ErrCodeGeminiAPI, "outer")
	assert.Equal(t, ErrCodeGeminiAPI, Code(wrapped))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(New(ErrCodeTransient, "429")))
	assert.True(t, IsTransient(Wrap(New(ErrCodeTransient, "429"), ErrCodeGeminiAPI, "call failed")))
	assert.False(t, IsTransient(New(ErrCodeBlocked, "moderation")))
	assert.False(t, IsTransient(New(ErrCodeNoImage, "text only")))
}

func TestErrorString(t *testing.T) {
	err := Wrap(fmt.Errorf("dial tcp: timeout"), ErrCodeTransient, "gemini request failed")
	assert.Contains(t, err.Error(), "TRANSIENT_UPSTREAM")
	assert.Contains(t, err.Error(), "gemini request failed")
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}
