package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrItemNotFound is returned when an item id is not in the current catalog.
var ErrItemNotFound = errors.New("catalog item not found")

type refresher interface {
	Refresh(ctx context.Context) error
}

// Service keeps the current catalog snapshot in memory and swaps it on reload.
type Service struct {
	source   Source
	logger   zerolog.Logger
	onReload func(*Catalog, []Issue)

	mu       sync.RWMutex
	current  *Catalog
	revision uint64
	issues   []Issue
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source Source
	Logger zerolog.Logger
	// OnReload is invoked after every successful reload with the new snapshot
	// and its tier diagnostics.
	OnReload func(*Catalog, []Issue)
}

// NewService constructs a Service. Call Reload before serving.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog: source is required")
	}
	return &Service{
		source:   cfg.Source,
		logger:   cfg.Logger,
		onReload: cfg.OnReload,
		current:  New(nil),
	}, nil
}

// Reload fetches the catalog from its source and publishes a new snapshot.
// When bypassCache is set, a caching source is refreshed first.
func (s *Service) Reload(ctx context.Context, bypassCache bool) (*Catalog, error) {
	if bypassCache {
		if r, ok := s.source.(refresher); ok {
			if err := r.Refresh(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("catalog cache refresh failed")
			}
		}
	}
	items, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: reload: %w", err)
	}
	cat := New(items)
	issues := cat.Diagnostics()

	s.mu.Lock()
	s.current = cat
	s.revision++
	s.issues = issues
	rev := s.revision
	s.mu.Unlock()

	evt := s.logger.Info().Int("items", cat.Len()).Uint64("revision", rev)
	if len(issues) > 0 {
		evt = evt.Int("tier_issues", len(issues))
	}
	evt.Msg("catalog loaded")
	for _, issue := range issues {
		s.logger.Warn().Str("item_id", issue.ItemID).Str("kind", string(issue.Kind)).Msg(issue.Detail)
	}
	if s.onReload != nil {
		s.onReload(cat, issues)
	}
	return cat, nil
}

// Current returns the latest snapshot and its revision.
func (s *Service) Current() (*Catalog, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.revision
}

// Get returns a single item from the current snapshot.
func (s *Service) Get(id string) (Item, error) {
	cat, _ := s.Current()
	it, ok := cat.Lookup(id)
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

// Diagnostics returns the tier-table issues found at the last reload.
func (s *Service) Diagnostics() []Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Ready reports whether at least one reload has succeeded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision > 0
}
