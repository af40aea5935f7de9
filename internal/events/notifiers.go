package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// LogNotifier writes every event to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("event_id", event.ID.String()).
		Str("topic", event.Topic).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("event emitted")
	return nil
}

// MetricsNotifier counts auto-added and auto-removed rows from selection events.
type MetricsNotifier struct {
	Added   prometheus.Counter
	Removed prometheus.Counter
}

// Notify implements Notifier.
func (n MetricsNotifier) Notify(_ context.Context, event Event) error {
	if event.Topic != TopicSelectionChanged {
		return nil
	}
	var payload SelectionChanged
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Topic, err)
	}
	if n.Added != nil {
		n.Added.Add(float64(len(payload.Added)))
	}
	if n.Removed != nil {
		n.Removed.Add(float64(len(payload.Removed)))
	}
	return nil
}
