package selection

import "strings"

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Normalize maps unknown or empty types to percentage.
func (t DiscountType) Normalize() DiscountType {
	if DiscountType(strings.ToLower(strings.TrimSpace(string(t)))) == DiscountFixed {
		return DiscountFixed
	}
	return DiscountPercentage
}

// DiscountScope selects whether a row discount applies per unit or to the row subtotal.
type DiscountScope string

const (
	ScopeUnit  DiscountScope = "unit"
	ScopeTotal DiscountScope = "total"
)

// Normalize maps unknown or empty scopes to total.
func (s DiscountScope) Normalize() DiscountScope {
	if DiscountScope(strings.ToLower(strings.TrimSpace(string(s)))) == ScopeUnit {
		return ScopeUnit
	}
	return ScopeTotal
}

// Row is one selected catalog item in a quote. Name, Category and Unit are
// copied from the catalog so totals can be computed without it. UnitPrice is
// a cached value refreshed on reconciliation.
type Row struct {
	ItemID        string        `json:"itemId"`
	Name          string        `json:"name,omitempty"`
	Category      string        `json:"category,omitempty"`
	Unit          string        `json:"unit,omitempty"`
	Quantity      int           `json:"quantity"`
	UnitPrice     float64       `json:"unitPrice"`
	DiscountValue float64       `json:"discountValue,omitempty"`
	DiscountType  DiscountType  `json:"discountType,omitempty"`
	DiscountScope DiscountScope `json:"discountScope,omitempty"`
	IsFree        bool          `json:"isFree,omitempty"`
	AutoAdded     bool          `json:"autoAdded,omitempty"`
}

// Selection is the ordered list of rows in a quote. Each item id appears at most once.
type Selection []Row

// Index returns the position of itemID or -1.
func (s Selection) Index(itemID string) int {
	for i, row := range s {
		if row.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Contains reports whether itemID is selected.
func (s Selection) Contains(itemID string) bool {
	return s.Index(itemID) >= 0
}

// Clone copies the selection so rows can be mutated independently.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	copy(out, s)
	return out
}

// Equal compares selections by item id and quantity, in order.
func (s Selection) Equal(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].ItemID != other[i].ItemID || s[i].Quantity != other[i].Quantity {
			return false
		}
	}
	return true
}

// Dedupe drops repeated item ids, keeping the first occurrence. It reports
// whether anything was dropped.
func (s Selection) Dedupe() (Selection, bool) {
	seen := make(map[string]struct{}, len(s))
	out := make(Selection, 0, len(s))
	for _, row := range s {
		if _, dup := seen[row.ItemID]; dup {
			continue
		}
		seen[row.ItemID] = struct{}{}
		out = append(out, row)
	}
	return out, len(out) != len(s)
}

// IDs lists item ids in selection order.
func (s Selection) IDs() []string {
	out := make([]string, len(s))
	for i, row := range s {
		out[i] = row.ItemID
	}
	return out
}
