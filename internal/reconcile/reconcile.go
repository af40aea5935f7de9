// Package reconcile runs the single-pass remove/add/resync cycle that keeps a
// quote selection converged with its configuration, and the controller that
// serialises publication of reconciled selections.
package reconcile

import (
	"fmt"

	"github.com/noah-isme/backend-quote/internal/autoadd"
	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/pricing"
	"github.com/noah-isme/backend-quote/internal/rules"
	"github.com/noah-isme/backend-quote/internal/selection"
)

// Outcome is the result of one reconciliation pass.
type Outcome struct {
	Selection   selection.Selection
	Changed     bool
	Added       []string
	Removed     []string
	Diagnostics []catalog.Issue
}

// Reconcile converges sel with values in a single pass: remove rows whose
// triggers went inactive, add newly triggered items, then recompute quantity
// and tiered unit price for every row whose item has quantity sources. When
// nothing the pass writes has changed, the input slice is returned as is.
func Reconcile(sel selection.Selection, values fields.Values, cat *catalog.Catalog, rs rules.RuleSet) Outcome {
	deduped, dropped := sel.Dedupe()
	view := rules.Merge(cat, rs)
	diags := append([]catalog.Issue(nil), view.Issues()...)

	kept, removed := autoadd.RemovePass(deduped, values, view)
	next, added, addIssues := autoadd.AddPass(kept, values, view)
	diags = append(diags, addIssues...)

	fresh := make(map[string]struct{}, len(added))
	for _, id := range added {
		fresh[id] = struct{}{}
	}
	for i := range next {
		row := &next[i]
		if _, ok := fresh[row.ItemID]; ok {
			continue
		}
		item, ok := view.Item(row.ItemID)
		if !ok {
			diags = append(diags, catalog.Issue{
				Kind:   catalog.MissingCatalogReference,
				ItemID: row.ItemID,
				Detail: fmt.Sprintf("selected item %q is not in the catalog, row left unchanged", row.ItemID),
			})
			continue
		}
		row.Name = item.Name
		row.Category = item.Category
		row.Unit = item.Unit
		if !item.HasQuantitySources() {
			continue
		}
		qty, issues := pricing.Resolve(item, values, row.Quantity)
		diags = append(diags, issues...)
		row.Quantity = qty
		if item.IsTiered() {
			price := pricing.PriceItem(item, qty)
			diags = append(diags, price.Issues...)
			row.UnitPrice = price.UnitPrice
		}
	}

	out := Outcome{
		Added:       added,
		Removed:     removed,
		Diagnostics: diags,
	}
	if !dropped && sameRows(sel, next) {
		out.Selection = sel
		return out
	}
	out.Selection = next
	out.Changed = true
	return out
}

// sameRows extends the id+quantity comparison with the fields a pass writes,
// so a catalog price or label change at an unchanged quantity still publishes.
func sameRows(a, b selection.Selection) bool {
	if !a.Equal(b) {
		return false
	}
	for i := range a {
		if a[i].UnitPrice != b[i].UnitPrice ||
			a[i].Name != b[i].Name ||
			a[i].Category != b[i].Category ||
			a[i].Unit != b[i].Unit {
			return false
		}
	}
	return true
}
