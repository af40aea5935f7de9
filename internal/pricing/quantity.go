package pricing

import (
	"math"

	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/fields"
)

// ResolveQuantity derives an item's quantity from configuration values.
// See Resolve for the rules; diagnostics are discarded.
func ResolveQuantity(item catalog.Item, values fields.Values, current int) int {
	qty, _ := Resolve(item, values, current)
	return qty
}

// Resolve sums the numeric values of the item's quantity source fields and
// applies the multiplier. Missing or non-numeric fields count as zero; the
// latter are reported. A zero result on an item with an active trigger field
// resolves to 1. Items without source fields keep current. Fractional results
// round up to the next whole unit.
func Resolve(item catalog.Item, values fields.Values, current int) (int, []catalog.Issue) {
	if !item.HasQuantitySources() {
		return current, nil
	}
	var (
		sum    float64
		issues []catalog.Issue
	)
	for _, id := range item.QuantitySourceFields {
		v := values.Get(id)
		if n, ok := v.Number(); ok {
			sum += n
			continue
		}
		if !v.IsAbsent() {
			issues = append(issues, catalog.Issue{
				Kind:   catalog.NonNumericQuantitySource,
				ItemID: item.ID,
				Field:  id,
				Detail: "quantity source holds a " + v.Kind().String() + ", counted as 0",
			})
		}
	}
	raw := sum * item.Multiplier()
	qty := wholeUnits(raw)
	if qty == 0 && values.AnyActive(item.AutoAddTriggerFields) {
		qty = 1
	}
	return qty, issues
}

func wholeUnits(raw float64) int {
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	rounded := math.Round(raw*1e6) / 1e6
	if rounded >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Ceil(rounded))
}
