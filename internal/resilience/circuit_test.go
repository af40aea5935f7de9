package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/resilience"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestBreakerTransitions(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	breaker := resilience.NewBreaker(resilience.BreakerConfig{MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Minute, Now: clk.Now})
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.False(t, breaker.Allow(ctx), "breaker should open after threshold exceeded")
	require.Equal(t, resilience.Open, breaker.State())

	clk.now = clk.now.Add(time.Minute)
	require.True(t, breaker.Allow(ctx), "breaker should move to half-open after cool off")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerDoRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := resilience.NewMetrics("test", reg)
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Target: "catalog", MinRequests: 1, OpenFor: time.Hour, Metrics: metrics})
	ctx := context.Background()
	boom := errors.New("origin down")

	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return boom }), boom)
	require.ErrorIs(t, breaker.Do(ctx, func(context.Context) error { return nil }), resilience.ErrOpenCircuit)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.State.WithLabelValues("catalog")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Opened.WithLabelValues("catalog")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions.WithLabelValues("catalog", "closed", "open")))
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{MinRequests: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := breaker.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, base*4, resilience.Backoff(base, 3, 0))

	d := resilience.Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-(base*2/5))
	require.LessOrEqual(t, d, base*2+(base*2/5))
}
