package autoadd_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/autoadd"
	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/rules"
	"github.com/noah-isme/backend-quote/internal/selection"
)

func intPtr(v int) *int { return &v }

func view(rs rules.RuleSet) *rules.View {
	return rules.Merge(catalog.New([]catalog.Item{
		{ID: "CC-FEE", Name: "Card processing", Category: "processing", Unit: "month", PricingType: catalog.PricingFlat, DefaultPrice: 25, AutoAddTriggerFields: []string{"hasCreditCards"}},
		{
			ID: "SMS", Name: "SMS", Unit: "month", PricingType: catalog.PricingTiered,
			QuantitySourceFields: []string{"monthlySMS"},
			AutoAddTriggerFields: []string{"monthlySMS"},
			Tiers: []catalog.Tier{
				{MinQty: 1, MaxQty: intPtr(10), Price: 5},
				{MinQty: 11, Price: 4},
			},
		},
		{ID: "ACH", PricingType: catalog.PricingFlat, DefaultPrice: 10},
		{ID: "TRAINING", PricingType: catalog.PricingFlat, DefaultPrice: 300},
	}), rs)
}

func TestAddPassAddsTriggeredItems(t *testing.T) {
	v := view(rules.RuleSet{})
	values := fields.Values{"hasCreditCards": fields.Bool(true), "monthlySMS": fields.Number(11)}

	out, added, issues := autoadd.AddPass(nil, values, v)
	require.Empty(t, issues)
	require.Equal(t, []string{"CC-FEE", "SMS"}, added)
	require.Len(t, out, 2)
	require.Equal(t, 1, out[0].Quantity)
	require.Equal(t, 25.0, out[0].UnitPrice)
	require.Equal(t, "processing", out[0].Category)
	require.True(t, out[0].AutoAdded)
	require.Equal(t, 11, out[1].Quantity)
	require.Equal(t, 4.0, out[1].UnitPrice)
}

func TestAddPassIsIdempotentUnion(t *testing.T) {
	v := view(rules.RuleSet{})
	values := fields.Values{"hasCreditCards": fields.Bool(true)}
	existing := selection.Selection{{ItemID: "CC-FEE", Quantity: 4, UnitPrice: 20}}

	out, added, _ := autoadd.AddPass(existing, values, v)
	require.Empty(t, added)
	require.Len(t, out, 1)
	require.Equal(t, 4, out[0].Quantity)
}

func TestAddPassHonoursLegacyTriggers(t *testing.T) {
	v := view(rules.RuleSet{Triggers: map[string][]string{"hasACH": {"ACH", "WIRE"}}})
	out, added, _ := autoadd.AddPass(nil, fields.Values{"hasACH": fields.String("yes")}, v)
	require.Equal(t, []string{"ACH"}, added)
	require.Equal(t, []string{"ACH"}, out.IDs())
}

func TestRemovePassDropsInactiveOwnedRowsOnly(t *testing.T) {
	v := view(rules.RuleSet{})
	sel := selection.Selection{
		{ItemID: "CC-FEE", Quantity: 1},
		{ItemID: "TRAINING", Quantity: 2},
		{ItemID: "RETIRED", Quantity: 1},
	}
	out, removed := autoadd.RemovePass(sel, fields.Values{"hasCreditCards": fields.Bool(false)}, v)
	require.Equal(t, []string{"CC-FEE"}, removed)
	require.Equal(t, []string{"TRAINING", "RETIRED"}, out.IDs())
	require.Len(t, sel, 3)
}

func TestRemovePassKeepsActiveRows(t *testing.T) {
	v := view(rules.RuleSet{})
	sel := selection.Selection{{ItemID: "CC-FEE", Quantity: 1}}
	out, removed := autoadd.RemovePass(sel, fields.Values{"hasCreditCards": fields.Bool(true)}, v)
	require.Empty(t, removed)
	require.Len(t, out, 1)
}
