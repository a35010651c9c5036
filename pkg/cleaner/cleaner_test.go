package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cafedata/cleanse/pkg/model"
)

func newTestCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c, err := New(model.DefaultMenu(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func testRow(id, item, qty, price, total, payment, location, date interface{}) model.Row {
	return model.Row{
		model.ColTransactionID:   id,
		model.ColItem:            item,
		model.ColQuantity:        qty,
		model.ColPricePerUnit:    price,
		model.ColTotalSpent:      total,
		model.ColPaymentMethod:   payment,
		model.ColLocation:        location,
		model.ColTransactionDate: date,
	}
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = New(model.DefaultMenu(), nil)
	assert.Error(t, err)
}

func TestCleanItemInferredFromPrice(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "", "2", "2.0", "10", "Cash", "In-store", "2024-01-01"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	require.Len(t, cleaned, 1)

	assert.Equal(t, "Coffee", cleaned[0][model.ColItem])
	// The recorded total is never trusted; it is recomputed from the
	// repaired quantity and price.
	assert.Equal(t, 4.0, cleaned[0][model.ColTotalSpent])

	require.Len(t, log.ItemsInferred, 1)
	assert.Equal(t, model.PriceDetail{Item: "Coffee", Price: 2.0, Count: 1}, log.ItemsInferred[0])
}

func TestCleanQuantityErrorRepairedToOne(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "Tea", "ERROR", "1.5", "1.5", "Cash", "In-store", "2024-01-01"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	require.Len(t, cleaned, 1)

	assert.Equal(t, 1.0, cleaned[0][model.ColQuantity])
	assert.Equal(t, 1.5, cleaned[0][model.ColTotalSpent])
	assert.Equal(t, 1, log.QuantityRepairs)
	assert.Equal(t, 1.0, log.QuantityFallback)
}

func TestCleanPriceCorrectedFromMenu(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "Cake", "2", "99", "198", "Card", "Takeaway", "2024-01-01"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	require.Len(t, cleaned, 1)

	assert.Equal(t, 3.0, cleaned[0][model.ColPricePerUnit])
	assert.Equal(t, 6.0, cleaned[0][model.ColTotalSpent])
	assert.Equal(t, 1, log.PriceCorrectionCount())
	require.Len(t, log.PriceCorrections, 1)
	assert.Equal(t, model.PriceDetail{Item: "Cake", Price: 3.0, Count: 1}, log.PriceCorrections[0])
}

func TestCleanMissingTransactionIDDropsRow(t *testing.T) {
	rows := []model.Row{
		testRow(nil, "Coffee", "1", "2.0", "2.0", "Cash", "In-store", "2024-01-01"),
		testRow("T2", "Coffee", "1", "2.0", "2.0", "Cash", "In-store", "2024-01-01"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	require.Len(t, cleaned, 1)
	assert.Equal(t, "T2", cleaned[0][model.ColTransactionID])
	assert.Equal(t, 1, log.RowsRemovedByOperation[model.ReasonMissingTransactionID])
}

func TestCleanPaymentFallbackWhenAllNull(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "Coffee", "1", "2.0", "2.0", nil, "In-store", "2024-01-01"),
		testRow("T2", "Tea", "1", "1.5", "1.5", "ERROR", "In-store", "2024-01-02"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	require.Len(t, cleaned, 2)

	for _, row := range cleaned {
		assert.Equal(t, "Cash", row[model.ColPaymentMethod])
	}
	assert.Equal(t, 2, log.ValuesImputedByField[model.ColPaymentMethod])
	assert.Equal(t, "Cash", log.ImputationValues[model.ColPaymentMethod])
}

func TestCleanPriceFilledFromMenu(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "Salad", "2", "UNKNOWN", "", "Cash", "In-store", "2024-01-01"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	require.Len(t, cleaned, 1)

	assert.Equal(t, 5.0, cleaned[0][model.ColPricePerUnit])
	assert.Equal(t, 10.0, cleaned[0][model.ColTotalSpent])
	require.Len(t, log.PriceFills, 1)
	assert.Equal(t, model.PriceDetail{Item: "Salad", Price: 5.0, Count: 1}, log.PriceFills[0])
}

func TestCleanUnresolvableItemDropsRow(t *testing.T) {
	rows := []model.Row{
		// No item, and price 9.99 matches nothing on the menu.
		testRow("T1", "UNKNOWN", "1", "9.99", "9.99", "Cash", "In-store", "2024-01-01"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	assert.Empty(t, cleaned)
	assert.Equal(t, 1, log.RowsRemovedByOperation[model.ReasonUnresolvableItem])
}

func TestCleanMissingDateDropsRow(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "Coffee", "1", "2.0", "2.0", "Cash", "In-store", ""),
		testRow("T2", "Coffee", "1", "2.0", "2.0", "Cash", "In-store", "2024-01-05"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	require.Len(t, cleaned, 1)
	assert.Equal(t, "T2", cleaned[0][model.ColTransactionID])
	assert.Equal(t, 1, log.RowsRemovedByOperation[model.ReasonMissingTransactionDate])
	assert.True(t, log.DatesParsed)

	date, ok := cleaned[0][model.ColTransactionDate].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), date)
}

// A maximally defective input still terminates with an empty dataset and a
// complete log.
func TestCleanAllRowsDefective(t *testing.T) {
	rows := []model.Row{
		testRow("", "Coffee", "1", "2.0", "2.0", "Cash", "In-store", "2024-01-01"),
		testRow("T2", "", "1", "ERROR", "", "Cash", "In-store", "2024-01-01"),
		testRow("T3", "Coffee", "1", "2.0", "2.0", "Cash", "In-store", "UNKNOWN"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)
	assert.Empty(t, cleaned)
	assert.True(t, log.Finalized())
	assert.Equal(t, 3, log.RowsRemoved())
	assert.Equal(t, 0.0, log.RetentionRate)
}

// Post-pipeline invariants over a mixed defective dataset.
func TestCleanInvariants(t *testing.T) {
	menu := model.DefaultMenu()
	rows := []model.Row{
		testRow("T1", "", "2", "2.0", "10", "Cash", "In-store", "2024-01-01"),
		testRow("T2", "Cake", "ERROR", "99", "", "", "Takeaway", "2024-01-02"),
		testRow(nil, "Coffee", "1", "2.0", "2.0", "Cash", "In-store", "2024-01-03"),
		testRow("T4", "Juice", "-3", "UNKNOWN", "ERROR", "Card", nil, "2024-01-04"),
		testRow("T5", "Smoothie", "2", "4.0", "8.0", "Card", "In-store", ""),
		testRow("T6", "UNKNOWN", "1", "7.77", "7.77", "Cash", "In-store", "2024-01-06"),
	}

	cleaned, log := newTestCleaner(t).Clean(rows)

	// Retention accounting.
	assert.Equal(t, len(rows), log.InitialRows)
	assert.Equal(t, len(cleaned), log.FinalRows)
	assert.Equal(t, log.InitialRows-log.RowsRemoved(), log.FinalRows)
	assert.GreaterOrEqual(t, log.InitialRows, log.FinalRows)

	for _, row := range cleaned {
		assert.NotNil(t, row[model.ColTransactionID])
		assert.NotNil(t, row[model.ColItem])
		assert.NotNil(t, row[model.ColTransactionDate])

		item := model.AsString(row[model.ColItem])
		menuPrice, inMenu := menu.Price(item)
		require.True(t, inMenu, "item %q not on menu", item)

		qty := row[model.ColQuantity].(float64)
		price := row[model.ColPricePerUnit].(float64)
		total := row[model.ColTotalSpent].(float64)

		assert.Greater(t, qty, 0.0)
		assert.Equal(t, menuPrice, price)
		assert.Equal(t, qty*price, total)
	}
}

// A cleaned dataset is a fixed point: a second run removes nothing and
// corrects nothing.
func TestCleanIdempotent(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "", "2", "2.0", "10", "Cash", "In-store", "2024-01-01"),
		testRow("T2", "Cake", "ERROR", "99", "", "", "Takeaway", "2024-01-02"),
		testRow("T3", "Smoothie", "2", "4.0", "8.0", "Card", nil, "2024-01-03"),
	}

	c := newTestCleaner(t)
	firstPass, _ := c.Clean(rows)
	secondPass, log := c.Clean(firstPass)

	assert.Equal(t, len(firstPass), len(secondPass))
	assert.Equal(t, 0, log.RowsRemoved())
	assert.Equal(t, 0, log.PriceCorrectionCount())
	assert.Equal(t, 0, log.QuantityRepairs)
	assert.Empty(t, log.ItemsInferred)
	assert.Empty(t, log.PriceFills)
	assert.Empty(t, log.ValuesImputedByField)
	assert.Empty(t, log.SentinelsNormalized)
	assert.Equal(t, secondPass, firstPass)
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	rows := []model.Row{
		testRow("T1", "ERROR", "2", "2.0", "10", "Cash", "In-store", "2024-01-01"),
	}

	newTestCleaner(t).Clean(rows)
	assert.Equal(t, "ERROR", rows[0][model.ColItem])
	assert.Equal(t, "2", rows[0][model.ColQuantity])
}
