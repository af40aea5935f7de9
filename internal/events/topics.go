package events

// Topic constants for events emitted by the quote engine.
const (
	TopicSelectionChanged = "quote.selection.changed"
	TopicCatalogReloaded  = "catalog.reloaded"
)

// SelectionChanged is the payload of TopicSelectionChanged.
type SelectionChanged struct {
	QuoteID string   `json:"quoteId"`
	Version uint64   `json:"version"`
	ItemIDs []string `json:"itemIds"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// CatalogReloaded is the payload of TopicCatalogReloaded.
type CatalogReloaded struct {
	Items       int `json:"items"`
	Diagnostics int `json:"diagnostics"`
}
