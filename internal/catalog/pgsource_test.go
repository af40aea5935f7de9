package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-quote/internal/catalog"
)

var itemColumns = []string{
	"id", "name", "category", "unit", "pricing_type", "default_price", "tiers",
	"quantity_source_fields", "quantity_multiplier", "auto_add_trigger_fields",
}

func TestPGSourceLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, name, category").
		WillReturnRows(pgxmock.NewRows(itemColumns).
			AddRow("SMS", "SMS notifications", "messaging", "message", "tiered", 0.0,
				[]byte(`[{"minQty":1,"maxQty":10,"price":5},{"minQty":11,"price":4}]`),
				[]string{"monthlySMS"}, 1.0, []string{}).
			AddRow("CC-FEE", "Card processing", "processing", "month", "flat", 25.0,
				[]byte(nil), []string{}, 0.0, []string{"hasCreditCards"}))

	items, err := catalog.PGSource{DB: mock}.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, catalog.PricingTiered, items[0].PricingType)
	require.Len(t, items[0].Tiers, 2)
	assert.Equal(t, 4.0, items[0].Tiers[1].Price)
	assert.Empty(t, items[1].Tiers)
	assert.Equal(t, []string{"hasCreditCards"}, items[1].AutoAddTriggerFields)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSourceLoadQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, name, category").WillReturnError(errors.New("connection refused"))

	_, err = catalog.PGSource{DB: mock}.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query items")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGSourceUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO catalog_items").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO catalog_items").WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = catalog.PGSource{DB: mock}.Upsert(context.Background(), []catalog.Item{
		{ID: "SETUP", PricingType: catalog.PricingFlat, DefaultPrice: 200},
		{ID: "CC-FEE", PricingType: catalog.PricingFlat, DefaultPrice: 25},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
