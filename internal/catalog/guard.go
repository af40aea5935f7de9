package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/backend-quote/internal/resilience"
)

// GuardedSource retries Origin with jittered backoff behind a circuit breaker,
// so a flapping database fails fast instead of stalling reloads.
type GuardedSource struct {
	Origin    Source
	Breaker   *resilience.Breaker
	Attempts  int
	BaseDelay time.Duration
}

// Load implements Source.
func (s GuardedSource) Load(ctx context.Context) ([]Item, error) {
	if s.Origin == nil {
		return nil, errors.New("catalog: origin source not configured")
	}
	attempts := s.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		items, err := s.loadOnce(ctx)
		if err == nil {
			return items, nil
		}
		if errors.Is(err, resilience.ErrOpenCircuit) {
			return nil, fmt.Errorf("catalog: origin unavailable: %w", err)
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(resilience.Backoff(s.BaseDelay, attempt, 0.2))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (s GuardedSource) loadOnce(ctx context.Context) ([]Item, error) {
	if s.Breaker == nil {
		return s.Origin.Load(ctx)
	}
	var items []Item
	err := s.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.Origin.Load(ctx)
		return err
	})
	return items, err
}
