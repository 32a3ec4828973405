package generation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

func newTestCoordinator() *Coordinator {
	return NewCoordinator(NewRetryer(fastPolicy(2), nil), nil)
}

func TestCoordinatorGenerate(t *testing.T) {
	t.Run("every candidate gets its own prompt", func(t *testing.T) {
		c := newTestCoordinator()
		var counter int32

		var mu sync.Mutex
		seen := make(map[string]bool)

		images, err := c.Generate(context.Background(), Request{
			CandidateCount: 4,
			BuildPrompt: func() string {
				n := atomic.AddInt32(&counter, 1)
				return string(rune('a' + n))
			},
			Call: func(ctx context.Context, prompt string) (*gemini.Image, error) {
				mu.Lock()
				seen[prompt] = true
				mu.Unlock()
				return testImage, nil
			},
		})
		require.NoError(t, err)
		assert.Len(t, images, 4)
		assert.Len(t, seen, 4)
	})

	t.Run("partial failure keeps the survivors", func(t *testing.T) {
		c := newTestCoordinator()
		var counter int32

		images, err := c.Generate(context.Background(), Request{
			CandidateCount: 4,
			BuildPrompt:    func() string { return "p" },
			Call: func(ctx context.Context, prompt string) (*gemini.Image, error) {
				if atomic.AddInt32(&counter, 1) == 1 {
					return nil, errors.New(errors.ErrCodeBlocked, "moderation")
				}
				return testImage, nil
			},
		})
		require.NoError(t, err)
		assert.Len(t, images, 3)
	})

	t.Run("one failure does not cancel siblings", func(t *testing.T) {
		c := newTestCoordinator()
		var calls int32

		_, err := c.Generate(context.Background(), Request{
			CandidateCount: 3,
			BuildPrompt:    func() string { return "p" },
			Call: func(ctx context.Context, prompt string) (*gemini.Image, error) {
				atomic.AddInt32(&calls, 1)
				if atomic.LoadInt32(&calls) == 1 {
					return nil, errors.New(errors.ErrCodeBlocked, "moderation")
				}
				// Siblings must still run to completion with a live context.
				require.NoError(t, ctx.Err())
				return testImage, nil
			},
		})
		require.NoError(t, err)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("all candidates failing fails the batch", func(t *testing.T) {
		c := newTestCoordinator()

		_, err := c.Generate(context.Background(), Request{
			CandidateCount: 3,
			BuildPrompt:    func() string { return "p" },
			Call: func(ctx context.Context, prompt string) (*gemini.Image, error) {
				return nil, errors.New(errors.ErrCodeBlocked, "moderation")
			},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeAllCandidates))
		assert.Contains(t, err.Error(), "all 3 candidates failed")
	})

	t.Run("single candidate surfaces the definitive error", func(t *testing.T) {
		c := newTestCoordinator()

		_, err := c.Generate(context.Background(), Request{
			CandidateCount: 1,
			BuildPrompt:    func() string { return "p" },
			Call: func(ctx context.Context, prompt string) (*gemini.Image, error) {
				return nil, errors.New(errors.ErrCodeBlocked, "moderation")
			},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeBlocked))
		assert.False(t, errors.Is(err, errors.ErrCodeAllCandidates))
	})

	t.Run("zero count treated as one", func(t *testing.T) {
		c := newTestCoordinator()
		calls := 0

		images, err := c.Generate(context.Background(), Request{
			CandidateCount: 0,
			BuildPrompt:    func() string { return "p" },
			Call: func(ctx context.Context, prompt string) (*gemini.Image, error) {
				calls++
				return testImage, nil
			},
		})
		require.NoError(t, err)
		assert.Len(t, images, 1)
		assert.Equal(t, 1, calls)
	})
}
