package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

// CallFunc performs one upstream generation attempt with the given prompt.
type CallFunc func(ctx context.Context, prompt string) (*gemini.Image, error)

// FallbackFunc derives a conservative substitute prompt from the original.
// ok is false when the original carries no substitutable parameter.
type FallbackFunc func(original string) (fallback string, ok bool)

// RetryPolicy governs one retry sequence. Immutable per call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// SimplePolicy is the default for scene edits and text calls.
func SimplePolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 60 * time.Second}
}

// PlanPolicy is the default for the architectural-image path, which the
// upstream rejects transiently far more often.
func PlanPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 7, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 60 * time.Second}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 60 * time.Second
	}
	return p
}

// delay returns the backoff before attempt n+1 (n is 1-based attempt just made).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retryer wraps a single logical generation call with bounded
// exponential-backoff retry and an optional fallback-prompt substitution.
//
// Policy, resolved once: transient upstream failures are retried with
// backoff; content blocks and every other error are terminal immediately.
type Retryer struct {
	policy RetryPolicy
	logger *logger.Logger
}

func NewRetryer(policy RetryPolicy, log *logger.Logger) *Retryer {
	if log == nil {
		log = logger.Nop()
	}
	return &Retryer{policy: policy.normalized(), logger: log}
}

// Do runs the attempt sequence for one prompt.
func (r *Retryer) Do(ctx context.Context, prompt string, call CallFunc) (*gemini.Image, error) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		img, err := call(ctx, prompt)
		if err == nil {
			return img, nil
		}
		lastErr = err

		if !errors.IsTransient(err) {
			return nil, err
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		wait := r.policy.delay(attempt)
		r.logger.Warn("transient generation failure, backing off",
			"attempt", attempt, "max_attempts", r.policy.MaxAttempts, "delay", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, errors.Wrap(lastErr, errors.Code(lastErr),
		fmt.Sprintf("gave up after %d attempts", r.policy.MaxAttempts))
}

// DoWithFallback runs the full sequence for the primary prompt and, when that
// exhausts with a text-only refusal and a substitute exists, re-runs the full
// sequence once with the fallback prompt. A failed fallback surfaces both
// failures.
func (r *Retryer) DoWithFallback(ctx context.Context, prompt string, fallbackFor FallbackFunc, call CallFunc) (*gemini.Image, error) {
	img, err := r.Do(ctx, prompt, call)
	if err == nil {
		return img, nil
	}

	if !errors.Is(err, errors.ErrCodeNoImage) || fallbackFor == nil {
		return nil, err
	}
	fallback, ok := fallbackFor(prompt)
	if !ok {
		return nil, err
	}

	r.logger.Info("primary prompt refused without image, substituting fallback prompt")
	img, fbErr := r.Do(ctx, fallback, call)
	if fbErr == nil {
		return img, nil
	}
	return nil, errors.Newf(errors.Code(fbErr),
		"original prompt failed (%v); fallback prompt also failed (%v)", err, fbErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
