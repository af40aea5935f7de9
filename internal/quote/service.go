// Package quote exposes pricing sessions over HTTP: it loads a quote, applies
// an edit under the quote lock, reconciles the selection and persists it.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-quote/internal/autoadd"
	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/discount"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/obs"
	"github.com/noah-isme/backend-quote/internal/pricing"
	"github.com/noah-isme/backend-quote/internal/reconcile"
	"github.com/noah-isme/backend-quote/internal/rules"
	"github.com/noah-isme/backend-quote/internal/selection"
	"github.com/noah-isme/backend-quote/internal/session"
)

var (
	// ErrNotFound is returned when the quote or a row does not exist.
	ErrNotFound = errors.New("quote: not found")
	// ErrInvalidInput is returned for edits the quote cannot accept.
	ErrInvalidInput = errors.New("quote: invalid input")
	// ErrConflict is returned when a concurrent writer won.
	ErrConflict = errors.New("quote: conflict")
)

// CatalogProvider returns the current catalog snapshot.
type CatalogProvider interface {
	Current() (*catalog.Catalog, uint64)
}

// Store persists quotes.
type Store interface {
	Create(ctx context.Context, q session.Quote) (session.Quote, error)
	Get(ctx context.Context, id string) (session.Quote, error)
	Save(ctx context.Context, q session.Quote) (session.Quote, error)
	Delete(ctx context.Context, id string) error
}

// Locker serialises writers of one quote.
type Locker interface {
	WithQuote(ctx context.Context, id string, fn func(context.Context) error) error
}

// View is a quote together with its computed summary.
type View struct {
	Quote       session.Quote    `json:"quote"`
	Summary     discount.Summary `json:"summary"`
	Diagnostics []catalog.Issue  `json:"diagnostics"`
}

// CreateInput seeds a new quote.
type CreateInput struct {
	Client session.Client
	Values fields.Values
}

// RowPatch edits one row. Nil fields are left unchanged.
type RowPatch struct {
	Quantity      *int
	DiscountValue *float64
	DiscountType  *selection.DiscountType
	DiscountScope *selection.DiscountScope
	IsFree        *bool
}

// Config groups Service dependencies.
type Config struct {
	Catalog   CatalogProvider
	Rules     rules.RuleSet
	Store     Store
	Locker    Locker
	Publisher reconcile.Publisher
	Buckets   discount.Buckets
	Metrics   *obs.QuoteMetrics
	Logger    zerolog.Logger
	Tracer    trace.Tracer
}

// Service implements the quote operations.
type Service struct {
	catalog CatalogProvider
	rules   rules.RuleSet
	store   Store
	locker  Locker
	ctrl    *reconcile.Controller
	buckets discount.Buckets
	metrics *obs.QuoteMetrics
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewService constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("quote: catalog provider is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("quote: store is required")
	}
	if cfg.Locker == nil {
		return nil, errors.New("quote: locker is required")
	}
	buckets := cfg.Buckets
	if buckets.SetupCategory == "" && len(buckets.OneTimeUnits) == 0 {
		buckets = discount.DefaultBuckets()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("quote")
	}
	return &Service{
		catalog: cfg.Catalog,
		rules:   cfg.Rules,
		store:   cfg.Store,
		locker:  cfg.Locker,
		ctrl:    reconcile.NewController(cfg.Publisher),
		buckets: buckets,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		tracer:  tracer,
	}, nil
}

// Create stores a new quote and reconciles its initial configuration.
func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	q, err := s.store.Create(ctx, session.Quote{
		Client: trimClient(in.Client),
		Values: fields.Values{}.Merge(in.Values),
		Discount: discount.Config{
			Type:        selection.DiscountPercentage,
			Application: discount.ApplyNone,
		},
	})
	if err != nil {
		return View{}, fmt.Errorf("create quote: %w", err)
	}
	return s.refresh(ctx, q.ID)
}

// Get returns a quote and its summary. A quote last reconciled against an
// older catalog revision is reconciled and saved first.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if s.catalogMoved(q) {
		return s.refresh(ctx, id)
	}
	return s.view(q, nil), nil
}

// Summary returns the cost summary of a quote.
func (s *Service) Summary(ctx context.Context, id string) (discount.Summary, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return discount.Summary{}, err
	}
	if s.catalogMoved(q) {
		view, err := s.refresh(ctx, id)
		if err != nil {
			return discount.Summary{}, err
		}
		return view.Summary, nil
	}
	return s.buckets.Summarize(q.Selection, q.Discount), nil
}

// Delete drops a quote.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete quote %s: %w", id, err)
	}
	s.ctrl.Forget(id)
	return nil
}

// UpdateFields merges patch into the configuration values and reconciles.
// Absent values in patch clear the field. An empty patch reconciles against
// the current catalog only.
func (s *Service) UpdateFields(ctx context.Context, id string, patch fields.Values) (View, error) {
	return s.mutate(ctx, id, true, func(q *session.Quote) error {
		q.Values = q.Values.Merge(patch)
		return nil
	})
}

// AddRow adds a catalog item by hand. Quantity defaults to the item's
// resolved quantity and falls back to 1.
func (s *Service) AddRow(ctx context.Context, id, itemID string, qty *int) (View, error) {
	itemID = strings.TrimSpace(itemID)
	return s.mutate(ctx, id, false, func(q *session.Quote) error {
		if q.Selection.Contains(itemID) {
			return fmt.Errorf("%w: item %s already selected", ErrConflict, itemID)
		}
		cat, _ := s.catalog.Current()
		item, ok := rules.Merge(cat, s.rules).Item(itemID)
		if !ok {
			return fmt.Errorf("%w: unknown item %s", ErrInvalidInput, itemID)
		}
		quantity := pricing.ResolveQuantity(item, q.Values, 1)
		if qty != nil {
			if item.HasQuantitySources() {
				return fmt.Errorf("%w: quantity of %s follows configuration", ErrInvalidInput, itemID)
			}
			quantity = *qty
		}
		price := pricing.PriceItem(item, quantity)
		q.Selection = append(q.Selection.Clone(), autoadd.NewRow(item, quantity, price.UnitPrice))
		return nil
	})
}

// RemoveRow drops a row by hand. A rule-owned row whose trigger is still
// active comes back on the next configuration change.
func (s *Service) RemoveRow(ctx context.Context, id, itemID string) (View, error) {
	return s.mutate(ctx, id, false, func(q *session.Quote) error {
		idx := q.Selection.Index(itemID)
		if idx < 0 {
			return fmt.Errorf("%w: row %s", ErrNotFound, itemID)
		}
		next := make(selection.Selection, 0, len(q.Selection)-1)
		next = append(next, q.Selection[:idx]...)
		q.Selection = append(next, q.Selection[idx+1:]...)
		return nil
	})
}

// UpdateRow applies row-level edits. Quantity edits are rejected for items
// whose quantity is derived from configuration.
func (s *Service) UpdateRow(ctx context.Context, id, itemID string, patch RowPatch) (View, error) {
	return s.mutate(ctx, id, false, func(q *session.Quote) error {
		idx := q.Selection.Index(itemID)
		if idx < 0 {
			return fmt.Errorf("%w: row %s", ErrNotFound, itemID)
		}
		q.Selection = q.Selection.Clone()
		row := &q.Selection[idx]
		if patch.Quantity != nil {
			if *patch.Quantity < 0 {
				return fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
			}
			cat, _ := s.catalog.Current()
			item, known := rules.Merge(cat, s.rules).Item(itemID)
			if known && item.HasQuantitySources() {
				return fmt.Errorf("%w: quantity of %s follows configuration", ErrInvalidInput, itemID)
			}
			row.Quantity = *patch.Quantity
			if known && item.IsTiered() {
				row.UnitPrice = pricing.PriceItem(item, row.Quantity).UnitPrice
			}
		}
		if patch.DiscountValue != nil {
			if *patch.DiscountValue < 0 {
				return fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
			}
			row.DiscountValue = *patch.DiscountValue
		}
		if patch.DiscountType != nil {
			row.DiscountType = patch.DiscountType.Normalize()
		}
		if patch.DiscountScope != nil {
			row.DiscountScope = patch.DiscountScope.Normalize()
		}
		if patch.IsFree != nil {
			row.IsFree = *patch.IsFree
		}
		return nil
	})
}

// SetDiscount replaces the quote-wide discount.
func (s *Service) SetDiscount(ctx context.Context, id string, cfg discount.Config) (View, error) {
	if cfg.Value < 0 {
		return View{}, fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
	}
	return s.mutate(ctx, id, false, func(q *session.Quote) error {
		q.Discount = discount.Config{
			Value:       cfg.Value,
			Type:        cfg.Type.Normalize(),
			Application: cfg.Application.Normalize(),
		}
		return nil
	})
}

func (s *Service) load(ctx context.Context, id string) (session.Quote, error) {
	q, err := s.store.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return session.Quote{}, fmt.Errorf("%w: quote %s", ErrNotFound, id)
	}
	if err != nil {
		return session.Quote{}, fmt.Errorf("load quote %s: %w", id, err)
	}
	return q, nil
}

// mutate runs edit against the stored quote under its lock, optionally
// reconciles, and saves the result. A reconciled selection only counts as
// published once the save went through.
func (s *Service) mutate(ctx context.Context, id string, reconcileAfter bool, edit func(*session.Quote) error) (View, error) {
	var out View
	err := s.locker.WithQuote(ctx, id, func(ctx context.Context) error {
		q, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := edit(&q); err != nil {
			return err
		}
		var pass *reconcile.Result
		if reconcileAfter {
			if pass, err = s.reconcile(ctx, &q); err != nil {
				return err
			}
		}
		saved, err := s.store.Save(ctx, q)
		if errors.Is(err, session.ErrVersionConflict) {
			return fmt.Errorf("%w: quote %s changed concurrently", ErrConflict, id)
		}
		if err != nil {
			return fmt.Errorf("save quote %s: %w", id, err)
		}
		var diags []catalog.Issue
		if pass != nil {
			diags = pass.Diagnostics
			s.commit(ctx, *pass)
		}
		out = s.view(saved, diags)
		return nil
	})
	if errors.Is(err, session.ErrLockTimeout) {
		return View{}, fmt.Errorf("%w: quote %s is being edited", ErrConflict, id)
	}
	return out, err
}

// refresh reconciles a quote against the current catalog without editing it.
func (s *Service) refresh(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, true, func(*session.Quote) error { return nil })
}

func (s *Service) catalogMoved(q session.Quote) bool {
	_, revision := s.catalog.Current()
	return revision != 0 && q.CatalogRevision != revision
}

func (s *Service) reconcile(ctx context.Context, q *session.Quote) (*reconcile.Result, error) {
	ctx, span := s.tracer.Start(ctx, "quote.reconcile")
	defer span.End()

	cat, revision := s.catalog.Current()
	version := q.Version + 1
	start := time.Now()
	res := s.ctrl.Run(reconcile.Snapshot{
		Key:       q.ID,
		Version:   version,
		Catalog:   cat,
		Rules:     s.rules,
		Values:    q.Values,
		Selection: q.Selection,
	})
	elapsed := obs.DurationMillis(time.Since(start))

	span.SetAttributes(
		attribute.String("quote.id", q.ID),
		attribute.Int64("quote.version", int64(version)),
		attribute.Int64("catalog.revision", int64(revision)),
		attribute.Bool("quote.changed", res.Changed),
		attribute.Int("quote.diagnostics", len(res.Diagnostics)),
	)
	logger := obs.LoggerFrom(ctx, s.logger)
	if res.Stale {
		s.metrics.ObserveReconcile(obs.ReconcileStale, elapsed)
		logger.Warn().Str("quote_id", q.ID).Uint64("version", version).Msg("stale reconciliation discarded")
		return nil, fmt.Errorf("%w: quote %s has a newer version", ErrConflict, q.ID)
	}
	result := obs.ReconcileUnchanged
	if res.Changed {
		result = obs.ReconcileChanged
	}
	s.metrics.ObserveReconcile(result, elapsed)
	for _, issue := range res.Diagnostics {
		s.metrics.ObserveDiagnostic(string(issue.Kind))
	}
	logger.Info().
		Str("quote_id", q.ID).
		Uint64("version", version).
		Uint64("catalog_revision", revision).
		Bool("changed", res.Changed).
		Strs("added", res.Added).
		Strs("removed", res.Removed).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("quote reconciled")

	q.Selection = res.Selection
	q.CatalogRevision = revision
	return &res, nil
}

func (s *Service) commit(ctx context.Context, pass reconcile.Result) {
	logger := obs.LoggerFrom(ctx, s.logger)
	res := s.ctrl.Commit(ctx, pass)
	if res.Stale {
		logger.Warn().Str("quote_id", pass.Key).Uint64("version", pass.Version).Msg("saved selection overtaken before publish")
		return
	}
	if res.PublishErr != nil {
		logger.Error().Err(res.PublishErr).Str("quote_id", pass.Key).Msg("publish selection change")
	}
}

func (s *Service) view(q session.Quote, diags []catalog.Issue) View {
	if q.Selection == nil {
		q.Selection = selection.Selection{}
	}
	if diags == nil {
		diags = []catalog.Issue{}
	}
	return View{
		Quote:       q,
		Summary:     s.buckets.Summarize(q.Selection, q.Discount),
		Diagnostics: diags,
	}
}

func trimClient(c session.Client) session.Client {
	return session.Client{
		ClientName:  strings.TrimSpace(c.ClientName),
		ProjectName: strings.TrimSpace(c.ProjectName),
		PreparedBy:  strings.TrimSpace(c.PreparedBy),
	}
}
