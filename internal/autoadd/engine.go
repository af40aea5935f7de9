// Package autoadd keeps a selection consistent with configuration-driven
// presence rules: items whose trigger fields are active are added, and
// rule-owned items whose triggers all went inactive are removed.
package autoadd

import (
	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/pricing"
	"github.com/noah-isme/backend-quote/internal/rules"
	"github.com/noah-isme/backend-quote/internal/selection"
)

// RemovePass drops rows whose item is governed by trigger fields none of
// which is active. Manual items and rows referencing unknown items are kept.
// The input selection is not modified.
func RemovePass(sel selection.Selection, values fields.Values, view *rules.View) (selection.Selection, []string) {
	out := make(selection.Selection, 0, len(sel))
	var removed []string
	for _, row := range sel {
		item, ok := view.Item(row.ItemID)
		if !ok || len(item.AutoAddTriggerFields) == 0 {
			out = append(out, row)
			continue
		}
		if values.AnyActive(item.AutoAddTriggerFields) {
			out = append(out, row)
			continue
		}
		removed = append(removed, row.ItemID)
	}
	return out, removed
}

// AddPass appends a row for every catalog item that is not yet selected and
// has at least one active trigger field. Quantity comes from the resolver and
// unit price from the item's pricing. Item ids already present are never
// inserted twice.
func AddPass(sel selection.Selection, values fields.Values, view *rules.View) (selection.Selection, []string, []catalog.Issue) {
	present := make(map[string]struct{}, len(sel))
	for _, row := range sel {
		present[row.ItemID] = struct{}{}
	}
	out := sel.Clone()
	var (
		added  []string
		issues []catalog.Issue
	)
	for _, item := range view.Items() {
		if _, ok := present[item.ID]; ok {
			continue
		}
		if !values.AnyActive(item.AutoAddTriggerFields) {
			continue
		}
		qty, qtyIssues := pricing.Resolve(item, values, 1)
		price := pricing.PriceItem(item, qty)
		issues = append(issues, qtyIssues...)
		issues = append(issues, price.Issues...)
		out = append(out, NewRow(item, qty, price.UnitPrice))
		out[len(out)-1].AutoAdded = true
		present[item.ID] = struct{}{}
		added = append(added, item.ID)
	}
	return out, added, issues
}

// NewRow builds an undiscounted row for item.
func NewRow(item catalog.Item, qty int, unitPrice float64) selection.Row {
	return selection.Row{
		ItemID:        item.ID,
		Name:          item.Name,
		Category:      item.Category,
		Unit:          item.Unit,
		Quantity:      qty,
		UnitPrice:     unitPrice,
		DiscountType:  selection.DiscountPercentage,
		DiscountScope: selection.ScopeTotal,
	}
}
