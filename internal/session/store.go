// Package session persists in-progress quotes in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-quote/internal/discount"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/selection"
)

// ErrNotFound is returned when a quote does not exist or has expired.
var ErrNotFound = errors.New("session: quote not found")

// ErrVersionConflict is returned by Save when the stored quote moved on.
var ErrVersionConflict = errors.New("session: version conflict")

const keyPrefix = "quote:"

// Client carries the report identity fields of a quote.
type Client struct {
	ClientName  string `json:"clientName"`
	ProjectName string `json:"projectName"`
	PreparedBy  string `json:"preparedBy"`
}

// Quote is one in-progress pricing session. CatalogRevision is the catalog revision the
// selection was last reconciled against.
type Quote struct {
	ID              string              `json:"id"`
	Client          Client              `json:"client"`
	Values          fields.Values       `json:"values"`
	Selection       selection.Selection `json:"selection"`
	Discount        discount.Config     `json:"discount"`
	Version         uint64              `json:"version"`
	CatalogRevision uint64              `json:"catalogRevision"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// Store keeps quotes as JSON documents with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore constructs a Store. A zero ttl keeps quotes forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, now: time.Now}
}

// Key returns the Redis key of a quote.
func Key(id string) string { return keyPrefix + id }

// Create assigns an id and version 1 and stores q.
func (s *Store) Create(ctx context.Context, q Quote) (Quote, error) {
	now := s.now().UTC()
	q.ID = uuid.NewString()
	q.Version = 1
	q.CreatedAt = now
	q.UpdatedAt = now
	if q.Values == nil {
		q.Values = fields.Values{}
	}
	if err := s.write(ctx, q); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Get loads a quote and refreshes its TTL.
func (s *Store) Get(ctx context.Context, id string) (Quote, error) {
	if s == nil || s.client == nil {
		return Quote{}, errors.New("session: redis client not configured")
	}
	data, err := s.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("session: get %s: %w", id, err)
	}
	var q Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return Quote{}, fmt.Errorf("session: decode %s: %w", id, err)
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, Key(id), s.ttl).Err()
	}
	return q, nil
}

// Save writes q if the stored version still equals q.Version, then bumps the
// version. Callers are expected to hold the quote lock.
func (s *Store) Save(ctx context.Context, q Quote) (Quote, error) {
	current, err := s.Get(ctx, q.ID)
	if err != nil {
		return Quote{}, err
	}
	if current.Version != q.Version {
		return Quote{}, ErrVersionConflict
	}
	q.Version++
	q.CreatedAt = current.CreatedAt
	q.UpdatedAt = s.now().UTC()
	if err := s.write(ctx, q); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// Delete removes a quote. Missing quotes are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.client == nil {
		return errors.New("session: redis client not configured")
	}
	return s.client.Del(ctx, Key(id)).Err()
}

func (s *Store) write(ctx context.Context, q Quote) error {
	if s == nil || s.client == nil {
		return errors.New("session: redis client not configured")
	}
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", q.ID, err)
	}
	if err := s.client.Set(ctx, Key(q.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: set %s: %w", q.ID, err)
	}
	return nil
}
