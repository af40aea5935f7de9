package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/reconcile"
	"github.com/noah-isme/backend-quote/internal/rules"
	"github.com/noah-isme/backend-quote/internal/selection"
)

func intPtr(v int) *int { return &v }

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Item{
		{ID: "CC-FEE", Name: "Card processing", Category: "processing", Unit: "month", PricingType: catalog.PricingFlat, DefaultPrice: 25, AutoAddTriggerFields: []string{"hasCreditCards"}},
		{
			ID: "SMS", Name: "SMS bundle", Category: "messaging", Unit: "month", PricingType: catalog.PricingTiered,
			QuantitySourceFields: []string{"monthlySMS"},
			AutoAddTriggerFields: []string{"monthlySMS"},
			Tiers: []catalog.Tier{
				{MinQty: 1, MaxQty: intPtr(10), Price: 5},
				{MinQty: 11, Price: 4},
			},
		},
		{ID: "TRAINING", Name: "Training", Category: "setup", Unit: "session", PricingType: catalog.PricingFlat, DefaultPrice: 300},
	})
}

func TestReconcileAddsAndRemovesOnTriggerToggle(t *testing.T) {
	cat := testCatalog()
	on := fields.Values{"hasCreditCards": fields.Bool(true)}

	first := reconcile.Reconcile(nil, on, cat, rules.RuleSet{})
	require.True(t, first.Changed)
	require.Equal(t, []string{"CC-FEE"}, first.Added)
	require.Equal(t, []string{"CC-FEE"}, first.Selection.IDs())
	require.Equal(t, 1, first.Selection[0].Quantity)
	require.Equal(t, 25.0, first.Selection[0].UnitPrice)

	off := fields.Values{"hasCreditCards": fields.Bool(false)}
	second := reconcile.Reconcile(first.Selection, off, cat, rules.RuleSet{})
	require.True(t, second.Changed)
	require.Equal(t, []string{"CC-FEE"}, second.Removed)
	require.Empty(t, second.Selection)
}

func TestReconcileIsIdempotent(t *testing.T) {
	cat := testCatalog()
	values := fields.Values{"hasCreditCards": fields.Bool(true), "monthlySMS": fields.Number(12)}
	sel := selection.Selection{{ItemID: "TRAINING", Quantity: 2, UnitPrice: 300, Name: "Training", Category: "setup", Unit: "session"}}

	first := reconcile.Reconcile(sel, values, cat, rules.RuleSet{})
	require.True(t, first.Changed)

	second := reconcile.Reconcile(first.Selection, values, cat, rules.RuleSet{})
	require.False(t, second.Changed)
	require.True(t, second.Selection.Equal(first.Selection))
	require.Same(t, &first.Selection[0], &second.Selection[0])
}

func TestReconcileResyncsQuantityAndTierPrice(t *testing.T) {
	cat := testCatalog()
	sel := selection.Selection{{ItemID: "SMS", Quantity: 5, UnitPrice: 5}}

	out := reconcile.Reconcile(sel, fields.Values{"monthlySMS": fields.Number(11)}, cat, rules.RuleSet{})
	require.True(t, out.Changed)
	require.Equal(t, 11, out.Selection[0].Quantity)
	require.Equal(t, 4.0, out.Selection[0].UnitPrice)
	require.Equal(t, "SMS bundle", out.Selection[0].Name)
	require.Equal(t, 5, sel[0].Quantity)
}

func TestReconcileKeepsManualRowsAndUnknownItems(t *testing.T) {
	cat := testCatalog()
	sel := selection.Selection{
		{ItemID: "TRAINING", Quantity: 3, UnitPrice: 250, Name: "Training", Category: "setup", Unit: "session"},
		{ItemID: "RETIRED", Quantity: 1, UnitPrice: 9},
	}

	out := reconcile.Reconcile(sel, fields.Values{}, cat, rules.RuleSet{})
	require.False(t, out.Changed)
	require.Equal(t, 3, out.Selection[0].Quantity)
	require.Equal(t, 250.0, out.Selection[0].UnitPrice)
	require.Len(t, out.Diagnostics, 1)
	require.Equal(t, catalog.MissingCatalogReference, out.Diagnostics[0].Kind)
	require.Equal(t, "RETIRED", out.Diagnostics[0].ItemID)
}

func TestReconcileCollapsesDuplicateRows(t *testing.T) {
	cat := testCatalog()
	sel := selection.Selection{
		{ItemID: "TRAINING", Quantity: 1, UnitPrice: 300, Name: "Training", Category: "setup", Unit: "session"},
		{ItemID: "TRAINING", Quantity: 4, UnitPrice: 300, Name: "Training", Category: "setup", Unit: "session"},
	}

	out := reconcile.Reconcile(sel, fields.Values{}, cat, rules.RuleSet{})
	require.True(t, out.Changed)
	require.Equal(t, []string{"TRAINING"}, out.Selection.IDs())
}

func TestReconcilePropagatesCatalogPriceChange(t *testing.T) {
	sel := selection.Selection{{ItemID: "SMS", Quantity: 11, UnitPrice: 4, Name: "SMS bundle", Category: "messaging", Unit: "month"}}
	repriced := catalog.New([]catalog.Item{{
		ID: "SMS", Name: "SMS bundle", Category: "messaging", Unit: "month", PricingType: catalog.PricingTiered,
		QuantitySourceFields: []string{"monthlySMS"},
		Tiers:                []catalog.Tier{{MinQty: 1, Price: 3}},
	}})

	out := reconcile.Reconcile(sel, fields.Values{"monthlySMS": fields.Number(11)}, repriced, rules.RuleSet{})
	require.True(t, out.Changed)
	require.Equal(t, 3.0, out.Selection[0].UnitPrice)
}

func TestReconcileAppliesLegacyRules(t *testing.T) {
	rs := rules.RuleSet{
		Triggers:     map[string][]string{"wantsTraining": {"TRAINING"}},
		QuantitySync: map[string]rules.QuantitySync{"TRAINING": {Field: "trainees", Multiplier: 0.5}},
	}
	values := fields.Values{"wantsTraining": fields.Bool(true), "trainees": fields.Number(5)}

	out := reconcile.Reconcile(nil, values, testCatalog(), rs)
	require.Equal(t, []string{"TRAINING"}, out.Added)
	require.Equal(t, 3, out.Selection[0].Quantity)
}
