package catalog

import "strings"

// PricingType selects how an item's unit price is derived.
type PricingType string

const (
	PricingFlat   PricingType = "flat"
	PricingTiered PricingType = "tiered"
)

// Tier is a quantity range with a price. Bounds are inclusive; a nil MaxQty
// leaves the tier open-ended. Flat tiers charge Price once for the whole range,
// otherwise Price is charged per unit.
type Tier struct {
	MinQty int     `json:"minQty" yaml:"min_qty"`
	MaxQty *int    `json:"maxQty,omitempty" yaml:"max_qty,omitempty"`
	Price  float64 `json:"price" yaml:"price"`
	Flat   bool    `json:"flat,omitempty" yaml:"flat,omitempty"`
}

// Contains reports whether qty falls inside the tier bounds.
func (t Tier) Contains(qty int) bool {
	if qty < t.MinQty {
		return false
	}
	return t.MaxQty == nil || qty <= *t.MaxQty
}

// Item is a priced service offered in quotes.
type Item struct {
	ID                   string      `json:"id" yaml:"id"`
	Name                 string      `json:"name" yaml:"name"`
	Category             string      `json:"category" yaml:"category"`
	Unit                 string      `json:"unit" yaml:"unit"`
	PricingType          PricingType `json:"pricingType" yaml:"pricing_type"`
	DefaultPrice         float64     `json:"defaultPrice" yaml:"default_price"`
	Tiers                []Tier      `json:"tiers,omitempty" yaml:"tiers,omitempty"`
	QuantitySourceFields []string    `json:"quantitySourceFields,omitempty" yaml:"quantity_source_fields,omitempty"`
	QuantityMultiplier   float64     `json:"quantityMultiplier,omitempty" yaml:"quantity_multiplier,omitempty"`
	AutoAddTriggerFields []string    `json:"autoAddTriggerFields,omitempty" yaml:"auto_add_trigger_fields,omitempty"`
}

// IsTiered reports whether the item prices through its tier table.
func (it Item) IsTiered() bool {
	return PricingType(strings.ToLower(strings.TrimSpace(string(it.PricingType)))) == PricingTiered
}

// Multiplier returns the quantity multiplier, defaulting to 1.
func (it Item) Multiplier() float64 {
	if it.QuantityMultiplier == 0 {
		return 1
	}
	return it.QuantityMultiplier
}

// HasQuantitySources reports whether the item derives its quantity from configuration.
func (it Item) HasQuantitySources() bool {
	return len(it.QuantitySourceFields) > 0
}

// Catalog is an ordered, read-only list of items indexed by id.
type Catalog struct {
	items []Item
	index map[string]int
}

// New builds a Catalog. When ids repeat the first item wins.
func New(items []Item) *Catalog {
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			continue
		}
		if _, dup := c.index[id]; dup {
			continue
		}
		it.ID = id
		c.index[id] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

// Items returns the items in catalog order. Callers must not mutate the result.
func (c *Catalog) Items() []Item {
	if c == nil {
		return nil
	}
	return c.items
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Lookup finds an item by id.
func (c *Catalog) Lookup(id string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Diagnostics validates every tier table in the catalog.
func (c *Catalog) Diagnostics() []Issue {
	var out []Issue
	for _, it := range c.Items() {
		out = append(out, ValidateTiers(it)...)
	}
	return out
}
