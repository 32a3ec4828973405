package generation

import (
	"context"
	"fmt"
	"sync"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

// Outcome is the settled result of one candidate generation.
type Outcome struct {
	Image *gemini.Image
	Err   error
}

// Request describes a multi-candidate generation batch. BuildPrompt is
// invoked once per candidate so every candidate carries an independently
// randomized prompt variation.
type Request struct {
	CandidateCount int
	BuildPrompt    func() string
	Fallback       FallbackFunc
	Call           CallFunc
}

// Coordinator fans out K independent candidate generations and waits for all
// of them to settle. One candidate's failure never cancels its siblings.
type Coordinator struct {
	retryer *Retryer
	logger  *logger.Logger
}

func NewCoordinator(retryer *Retryer, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{retryer: retryer, logger: log}
}

// Generate returns the successful candidate images in settle order. With
// CandidateCount == 1 the caller gets a single image or the definitive error.
// With more, failed candidates are logged and dropped; only when every
// candidate fails does the batch fail as a whole.
func (c *Coordinator) Generate(ctx context.Context, req Request) ([]*gemini.Image, error) {
	count := req.CandidateCount
	if count < 1 {
		count = 1
	}

	if count == 1 {
		img, err := c.retryer.DoWithFallback(ctx, req.BuildPrompt(), req.Fallback, req.Call)
		if err != nil {
			return nil, err
		}
		return []*gemini.Image{img}, nil
	}

	outcomes := make(chan Outcome, count)
	var wg sync.WaitGroup

	for i := 0; i < count; i++ {
		wg.Add(1)
		prompt := req.BuildPrompt()
		go func(candidate int, prompt string) {
			defer wg.Done()
			img, err := c.retryer.DoWithFallback(ctx, prompt, req.Fallback, req.Call)
			if err != nil {
				c.logger.Warn("candidate generation failed", "candidate", candidate, "error", err)
			}
			outcomes <- Outcome{Image: img, Err: err}
		}(i, prompt)
	}

	wg.Wait()
	close(outcomes)

	var images []*gemini.Image
	failed := 0
	var lastErr error
	for o := range outcomes {
		if o.Err != nil {
			failed++
			lastErr = o.Err
			continue
		}
		images = append(images, o.Image)
	}

	if len(images) == 0 {
		return nil, errors.Wrap(lastErr, errors.ErrCodeAllCandidates,
			fmt.Sprintf("all %d candidates failed", failed))
	}
	if failed > 0 {
		c.logger.Info("candidate batch settled with partial failures",
			"requested", count, "succeeded", len(images), "failed", failed)
	}
	return images, nil
}
