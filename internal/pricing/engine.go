package pricing

import (
	"fmt"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

// Money represents a monetary value in major currency units.
type Money = float64

// Price is the outcome of pricing one catalog item at a quantity.
type Price struct {
	UnitPrice Money
	Total     Money
	// Tier is the index of the tier used, or -1 when no tier lookup happened.
	Tier   int
	Issues []catalog.Issue
}

// PriceItem computes the unit price and row total for qty units of item.
// Flat items use DefaultPrice. Tiered items select the tier containing qty;
// per-unit tiers charge price*qty and flat-for-range tiers charge the tier
// price once, spread across the units. Quantity zero always totals zero.
func PriceItem(item catalog.Item, qty int) Price {
	if qty < 0 {
		qty = 0
	}
	if !item.IsTiered() {
		return Price{UnitPrice: item.DefaultPrice, Total: item.DefaultPrice * Money(qty), Tier: -1}
	}
	idx, issues := TierFor(item, qty)
	if idx < 0 {
		return Price{UnitPrice: item.DefaultPrice, Total: item.DefaultPrice * Money(qty), Tier: -1, Issues: issues}
	}
	tier := item.Tiers[idx]
	out := Price{Tier: idx, Issues: issues}
	if !tier.Flat {
		out.UnitPrice = tier.Price
		out.Total = tier.Price * Money(qty)
		return out
	}
	if qty == 0 {
		out.Issues = append(out.Issues, catalog.Issue{
			Kind:   catalog.DivisionByZero,
			ItemID: item.ID,
			Detail: "flat tier priced at quantity 0",
		})
		return out
	}
	out.UnitPrice = tier.Price / Money(qty)
	out.Total = tier.Price
	return out
}

// TierFor returns the index of the tier that prices qty, or -1 when the item
// has no tiers. Quantities below the first tier use the first tier. When the
// table is malformed the closest tier starting at or below qty is used and the
// table problems are returned alongside.
func TierFor(item catalog.Item, qty int) (int, []catalog.Issue) {
	tiers := item.Tiers
	if len(tiers) == 0 {
		return -1, []catalog.Issue{{
			Kind:   catalog.InvalidTierTable,
			ItemID: item.ID,
			Detail: "tiered item has no tiers, default price used",
		}}
	}
	issues := catalog.ValidateTiers(item)
	for i, t := range tiers {
		if t.Contains(qty) {
			return i, issues
		}
	}
	if qty < tiers[0].MinQty {
		return 0, issues
	}
	best := -1
	for i, t := range tiers {
		if t.MinQty <= qty && (best < 0 || t.MinQty >= tiers[best].MinQty) {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}
	issues = append(issues, catalog.Issue{
		Kind:   catalog.InvalidTierTable,
		ItemID: item.ID,
		Detail: fmt.Sprintf("no tier covers quantity %d, tier %d used", qty, best),
	})
	return best, issues
}
