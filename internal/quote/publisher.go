package quote

import (
	"context"

	"github.com/noah-isme/backend-quote/internal/events"
	"github.com/noah-isme/backend-quote/internal/reconcile"
)

// BusPublisher forwards reconciled selections to the event bus.
type BusPublisher struct {
	Bus *events.Bus
}

// Publish implements reconcile.Publisher.
func (p BusPublisher) Publish(ctx context.Context, change reconcile.Change) error {
	if p.Bus == nil {
		return nil
	}
	_, err := p.Bus.Emit(ctx, events.TopicSelectionChanged, change.Key, events.SelectionChanged{
		QuoteID: change.Key,
		Version: change.Version,
		ItemIDs: change.Selection.IDs(),
		Added:   change.Added,
		Removed: change.Removed,
	})
	return err
}
