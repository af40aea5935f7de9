package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by PGSource.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const listItemsSQL = `SELECT id, name, category, unit, pricing_type, default_price, tiers,
	quantity_source_fields, quantity_multiplier, auto_add_trigger_fields
FROM catalog_items
WHERE active
ORDER BY sort_order, id`

const upsertItemSQL = `INSERT INTO catalog_items (id, name, category, unit, pricing_type, default_price, tiers,
	quantity_source_fields, quantity_multiplier, auto_add_trigger_fields, sort_order, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	category = EXCLUDED.category,
	unit = EXCLUDED.unit,
	pricing_type = EXCLUDED.pricing_type,
	default_price = EXCLUDED.default_price,
	tiers = EXCLUDED.tiers,
	quantity_source_fields = EXCLUDED.quantity_source_fields,
	quantity_multiplier = EXCLUDED.quantity_multiplier,
	auto_add_trigger_fields = EXCLUDED.auto_add_trigger_fields,
	sort_order = EXCLUDED.sort_order,
	active = TRUE,
	updated_at = now()`

// PGSource reads catalog items from Postgres. Tier tables are stored as JSONB.
type PGSource struct {
	DB DB
}

// Load implements Source.
func (s PGSource) Load(ctx context.Context) ([]Item, error) {
	if s.DB == nil {
		return nil, errors.New("catalog: database not configured")
	}
	rows, err := s.DB.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("catalog: query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it       Item
			pricing  string
			tiersRaw []byte
		)
		if err := rows.Scan(
			&it.ID,
			&it.Name,
			&it.Category,
			&it.Unit,
			&pricing,
			&it.DefaultPrice,
			&tiersRaw,
			&it.QuantitySourceFields,
			&it.QuantityMultiplier,
			&it.AutoAddTriggerFields,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan item: %w", err)
		}
		it.PricingType = PricingType(pricing)
		if len(tiersRaw) > 0 {
			if err := json.Unmarshal(tiersRaw, &it.Tiers); err != nil {
				return nil, fmt.Errorf("catalog: decode tiers for %s: %w", it.ID, err)
			}
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate items: %w", err)
	}
	return items, nil
}

// Upsert writes items in order, keeping the slice position as sort order.
func (s PGSource) Upsert(ctx context.Context, items []Item) error {
	if s.DB == nil {
		return errors.New("catalog: database not configured")
	}
	for i, it := range items {
		tiers, err := json.Marshal(it.Tiers)
		if err != nil {
			return fmt.Errorf("catalog: encode tiers for %s: %w", it.ID, err)
		}
		if _, err := s.DB.Exec(ctx, upsertItemSQL,
			it.ID,
			it.Name,
			it.Category,
			it.Unit,
			string(it.PricingType),
			it.DefaultPrice,
			tiers,
			nonNil(it.QuantitySourceFields),
			it.QuantityMultiplier,
			nonNil(it.AutoAddTriggerFields),
			i,
		); err != nil {
			return fmt.Errorf("catalog: upsert %s: %w", it.ID, err)
		}
	}
	return nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
