package catalog

import (
	"fmt"
	"sort"
)

// IssueKind classifies a locally recovered data-quality problem.
type IssueKind string

const (
	// MissingCatalogReference: a rule or selection row points at an unknown item id.
	MissingCatalogReference IssueKind = "missing_catalog_reference"
	// InvalidTierTable: tiers overlap, leave a gap or do not cover every quantity.
	InvalidTierTable IssueKind = "invalid_tier_table"
	// NonNumericQuantitySource: a quantity source field holds a non-numeric value.
	NonNumericQuantitySource IssueKind = "non_numeric_quantity_source"
	// DivisionByZero: a flat tier was priced at quantity zero.
	DivisionByZero IssueKind = "division_by_zero"
)

// Issue is a diagnostic attached to a result instead of an error.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	ItemID string    `json:"itemId,omitempty"`
	Field  string    `json:"field,omitempty"`
	Detail string    `json:"detail"`
}

func (i Issue) String() string {
	if i.ItemID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Kind, i.ItemID, i.Detail)
}

// ValidateTiers checks that a tiered item's table is sorted, contiguous and
// covers every quantity from 1 upwards. Flat items always validate.
func ValidateTiers(it Item) []Issue {
	if !it.IsTiered() {
		return nil
	}
	invalid := func(format string, args ...any) Issue {
		return Issue{Kind: InvalidTierTable, ItemID: it.ID, Detail: fmt.Sprintf(format, args...)}
	}
	tiers := it.Tiers
	if len(tiers) == 0 {
		return []Issue{invalid("tiered item has no tiers")}
	}
	var issues []Issue
	sorted := sort.SliceIsSorted(tiers, func(i, j int) bool { return tiers[i].MinQty < tiers[j].MinQty })
	if !sorted {
		issues = append(issues, invalid("tiers are not sorted by lower bound"))
	}
	if tiers[0].MinQty > 1 {
		issues = append(issues, invalid("first tier starts at %d, quantities below it are uncovered", tiers[0].MinQty))
	}
	for i, t := range tiers {
		if t.MinQty < 0 {
			issues = append(issues, invalid("tier %d has negative lower bound %d", i, t.MinQty))
		}
		if t.MaxQty != nil && *t.MaxQty < t.MinQty {
			issues = append(issues, invalid("tier %d upper bound %d is below lower bound %d", i, *t.MaxQty, t.MinQty))
		}
		if t.Price < 0 {
			issues = append(issues, invalid("tier %d has negative price", i))
		}
		if i == len(tiers)-1 {
			if t.MaxQty != nil {
				issues = append(issues, invalid("last tier is bounded at %d, larger quantities are uncovered", *t.MaxQty))
			}
			continue
		}
		next := tiers[i+1]
		if t.MaxQty == nil {
			issues = append(issues, invalid("tier %d is open-ended but is followed by tier %d", i, i+1))
			continue
		}
		switch {
		case next.MinQty <= *t.MaxQty:
			issues = append(issues, invalid("tier %d overlaps tier %d at quantity %d", i, i+1, next.MinQty))
		case next.MinQty > *t.MaxQty+1:
			issues = append(issues, invalid("gap between tier %d and tier %d: %d..%d", i, i+1, *t.MaxQty+1, next.MinQty-1))
		}
	}
	return issues
}
