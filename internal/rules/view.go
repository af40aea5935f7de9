package rules

import (
	"fmt"
	"sort"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

// View is the read-only merge of catalog-native rule fields and a RuleSet.
// Items returned by the view carry the merged trigger and quantity source
// fields; catalog-native data wins when both define a quantity source.
type View struct {
	catalog   *catalog.Catalog
	effective map[string]catalog.Item
	issues    []catalog.Issue
}

// Merge builds the view for one reconciliation pass.
func Merge(cat *catalog.Catalog, rs RuleSet) *View {
	v := &View{
		catalog:   cat,
		effective: make(map[string]catalog.Item, cat.Len()),
	}
	for _, it := range cat.Items() {
		merged := it
		merged.AutoAddTriggerFields = appendUnique(nil, it.AutoAddTriggerFields...)
		merged.QuantitySourceFields = append([]string(nil), it.QuantitySourceFields...)
		merged.Tiers = append([]catalog.Tier(nil), it.Tiers...)
		v.effective[it.ID] = merged
	}

	fieldIDs := make([]string, 0, len(rs.Triggers))
	for field := range rs.Triggers {
		fieldIDs = append(fieldIDs, field)
	}
	sort.Strings(fieldIDs)
	for _, field := range fieldIDs {
		for _, itemID := range rs.Triggers[field] {
			it, ok := v.effective[itemID]
			if !ok {
				v.issues = append(v.issues, catalog.Issue{
					Kind:   catalog.MissingCatalogReference,
					ItemID: itemID,
					Field:  field,
					Detail: fmt.Sprintf("trigger field %q references unknown item", field),
				})
				continue
			}
			it.AutoAddTriggerFields = appendUnique(it.AutoAddTriggerFields, field)
			v.effective[itemID] = it
		}
	}

	syncIDs := make([]string, 0, len(rs.QuantitySync))
	for id := range rs.QuantitySync {
		syncIDs = append(syncIDs, id)
	}
	sort.Strings(syncIDs)
	for _, itemID := range syncIDs {
		rule := rs.QuantitySync[itemID]
		it, ok := v.effective[itemID]
		if !ok {
			v.issues = append(v.issues, catalog.Issue{
				Kind:   catalog.MissingCatalogReference,
				ItemID: itemID,
				Field:  rule.Field,
				Detail: "quantity sync rule references unknown item",
			})
			continue
		}
		if it.HasQuantitySources() || rule.Field == "" {
			continue
		}
		it.QuantitySourceFields = []string{rule.Field}
		it.QuantityMultiplier = rule.Multiplier
		v.effective[itemID] = it
	}
	return v
}

// Item returns the merged item for id.
func (v *View) Item(id string) (catalog.Item, bool) {
	if v == nil {
		return catalog.Item{}, false
	}
	it, ok := v.effective[id]
	return it, ok
}

// Items returns merged items in catalog order.
func (v *View) Items() []catalog.Item {
	if v == nil {
		return nil
	}
	out := make([]catalog.Item, 0, len(v.effective))
	for _, it := range v.catalog.Items() {
		out = append(out, v.effective[it.ID])
	}
	return out
}

// Owned reports whether the item is governed by at least one trigger field.
// Only owned items are ever removed automatically.
func (v *View) Owned(id string) bool {
	it, ok := v.Item(id)
	return ok && len(it.AutoAddTriggerFields) > 0
}

// Issues returns the references that could not be resolved during the merge.
func (v *View) Issues() []catalog.Issue {
	if v == nil {
		return nil
	}
	return v.issues
}

func appendUnique(dst []string, values ...string) []string {
	for _, val := range values {
		if val == "" {
			continue
		}
		dup := false
		for _, existing := range dst {
			if existing == val {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, val)
		}
	}
	return dst
}
