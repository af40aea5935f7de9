package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/catalog"
	"github.com/noah-isme/backend-quote/internal/fields"
	"github.com/noah-isme/backend-quote/internal/pricing"
)

func TestResolveQuantity(t *testing.T) {
	cases := []struct {
		name    string
		item    catalog.Item
		values  fields.Values
		current int
		want    int
	}{
		{
			name:   "single source",
			item:   catalog.Item{QuantitySourceFields: []string{"monthlySMS"}, QuantityMultiplier: 1},
			values: fields.Values{"monthlySMS": fields.Number(500)},
			want:   500,
		},
		{
			name: "summed sources with multiplier",
			item: catalog.Item{QuantitySourceFields: []string{"locations", "kiosks"}, QuantityMultiplier: 2},
			values: fields.Values{
				"locations": fields.Number(3),
				"kiosks":    fields.Number(4),
			},
			want: 14,
		},
		{
			name:   "default multiplier",
			item:   catalog.Item{QuantitySourceFields: []string{"terminals"}},
			values: fields.Values{"terminals": fields.Number(7)},
			want:   7,
		},
		{
			name:   "non numeric counts as zero",
			item:   catalog.Item{QuantitySourceFields: []string{"terminals", "label"}},
			values: fields.Values{"terminals": fields.Number(2), "label": fields.String("9")},
			want:   2,
		},
		{
			name: "boolean trigger yields one",
			item: catalog.Item{
				QuantitySourceFields: []string{"monthlyCards"},
				AutoAddTriggerFields: []string{"hasCreditCards"},
			},
			values: fields.Values{"hasCreditCards": fields.Bool(true)},
			want:   1,
		},
		{
			name: "inactive trigger stays zero",
			item: catalog.Item{
				QuantitySourceFields: []string{"monthlyCards"},
				AutoAddTriggerFields: []string{"hasCreditCards"},
			},
			values: fields.Values{"hasCreditCards": fields.Bool(false)},
			want:   0,
		},
		{
			name:    "manual item keeps current",
			item:    catalog.Item{},
			values:  fields.Values{"monthlySMS": fields.Number(500)},
			current: 3,
			want:    3,
		},
		{
			name:   "fraction rounds up",
			item:   catalog.Item{QuantitySourceFields: []string{"hours"}, QuantityMultiplier: 0.25},
			values: fields.Values{"hours": fields.Number(9)},
			want:   3,
		},
		{
			name:   "negative clamps to zero",
			item:   catalog.Item{QuantitySourceFields: []string{"delta"}},
			values: fields.Values{"delta": fields.Number(-4)},
			want:   0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pricing.ResolveQuantity(tc.item, tc.values, tc.current)
			require.Equal(t, tc.want, got)
			require.Equal(t, got, pricing.ResolveQuantity(tc.item, tc.values, tc.current))
		})
	}
}

func TestResolveReportsNonNumericSources(t *testing.T) {
	item := catalog.Item{ID: "SMS", QuantitySourceFields: []string{"monthlySMS"}}
	qty, issues := pricing.Resolve(item, fields.Values{"monthlySMS": fields.String("lots")}, 0)
	require.Zero(t, qty)
	require.Len(t, issues, 1)
	require.Equal(t, catalog.NonNumericQuantitySource, issues[0].Kind)
	require.Equal(t, "monthlySMS", issues[0].Field)
}
