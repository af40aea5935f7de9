package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

const sampleCatalog = `
items:
  - id: SETUP
    name: Onboarding
    category: setup
    unit: one-time
    pricing_type: flat
    default_price: 200
  - id: SMS
    name: SMS notifications
    category: messaging
    unit: message
    pricing_type: tiered
    quantity_source_fields: [monthlySMS]
    tiers:
      - {min_qty: 1, max_qty: 10, price: 5}
      - {min_qty: 11, price: 4}
  - id: CC-FEE
    name: Card processing
    category: processing
    unit: month
    pricing_type: flat
    default_price: 25
    auto_add_trigger_fields: [hasCreditCards]
`

func TestFileSourceLoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	items, err := catalog.FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	sms := items[1]
	require.Equal(t, "SMS", sms.ID)
	require.True(t, sms.IsTiered())
	require.Equal(t, []string{"monthlySMS"}, sms.QuantitySourceFields)
	require.Len(t, sms.Tiers, 2)
	require.NotNil(t, sms.Tiers[0].MaxQty)
	require.Equal(t, 10, *sms.Tiers[0].MaxQty)
	require.Nil(t, sms.Tiers[1].MaxQty)
	require.Equal(t, 1.0, sms.Multiplier())

	require.Equal(t, []string{"hasCreditCards"}, items[2].AutoAddTriggerFields)
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := catalog.FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}.Load(context.Background())
	require.Error(t, err)

	_, err = catalog.FileSource{}.Load(context.Background())
	require.Error(t, err)
}
