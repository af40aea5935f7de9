package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

func intPtr(v int) *int { return &v }

func TestValidateTiers(t *testing.T) {
	cases := []struct {
		name   string
		tiers  []catalog.Tier
		issues int
	}{
		{
			name: "contiguous",
			tiers: []catalog.Tier{
				{MinQty: 1, MaxQty: intPtr(10), Price: 5},
				{MinQty: 11, Price: 4},
			},
		},
		{
			name: "gap",
			tiers: []catalog.Tier{
				{MinQty: 1, MaxQty: intPtr(10), Price: 5},
				{MinQty: 15, Price: 4},
			},
			issues: 1,
		},
		{
			name: "overlap",
			tiers: []catalog.Tier{
				{MinQty: 1, MaxQty: intPtr(10), Price: 5},
				{MinQty: 8, Price: 4},
			},
			issues: 1,
		},
		{
			name: "bounded last tier",
			tiers: []catalog.Tier{
				{MinQty: 0, MaxQty: intPtr(100), Price: 5},
			},
			issues: 1,
		},
		{
			name: "starts too high",
			tiers: []catalog.Tier{
				{MinQty: 5, Price: 5},
			},
			issues: 1,
		},
		{
			name:   "empty",
			issues: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := catalog.Item{ID: "SMS", PricingType: catalog.PricingTiered, Tiers: tc.tiers}
			issues := catalog.ValidateTiers(item)
			require.Len(t, issues, tc.issues)
			for _, issue := range issues {
				require.Equal(t, catalog.InvalidTierTable, issue.Kind)
				require.Equal(t, "SMS", issue.ItemID)
			}
		})
	}
}

func TestValidateTiersIgnoresFlatItems(t *testing.T) {
	item := catalog.Item{ID: "SETUP", PricingType: catalog.PricingFlat, DefaultPrice: 200}
	require.Empty(t, catalog.ValidateTiers(item))
}

func TestCatalogLookupFirstWins(t *testing.T) {
	cat := catalog.New([]catalog.Item{
		{ID: "A", Name: "first"},
		{ID: " A ", Name: "second"},
		{ID: "", Name: "blank"},
		{ID: "B", Name: "bee"},
	})
	require.Equal(t, 2, cat.Len())
	it, ok := cat.Lookup("A")
	require.True(t, ok)
	require.Equal(t, "first", it.Name)
	_, ok = cat.Lookup("missing")
	require.False(t, ok)
}
