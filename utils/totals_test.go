package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

func TestReconcileTotalsFillsMissing(t *testing.T) {
	items := []dto.LineItem{
		{Description: "A", Quantity: "2", UnitPrice: "50,00", TaxRate: "18.0"},
		{Description: "B", Quantity: "1", UnitPrice: "100,00", TaxRate: "18.0"},
	}

	totals := ReconcileTotals(items, Totals{}, "18")

	assert.Equal(t, "100.00", items[0].Amount)
	assert.Equal(t, "100.00", items[1].Amount)
	assert.Equal(t, "200.00", totals.Subtotal)
	assert.Equal(t, "36.00", totals.TaxAmount)
	assert.Equal(t, "236.00", totals.Total)
}

func TestReconcileTotalsKeepsConsistentExtraction(t *testing.T) {
	items := []dto.LineItem{
		{Description: "A", Quantity: "1", UnitPrice: "100,00", Amount: "100,00", TaxRate: "18.0"},
	}
	extracted := Totals{Subtotal: "100.00", TaxAmount: "18.00", Total: "118.00"}

	totals := ReconcileTotals(items, extracted, "18")

	assert.Equal(t, "100.00", totals.Subtotal)
	assert.Equal(t, "18.00", totals.TaxAmount)
	assert.Equal(t, "118.00", totals.Total)
}

func TestReconcileTotalsRepairsInconsistentTotal(t *testing.T) {
	items := []dto.LineItem{
		{Description: "A", Quantity: "1", UnitPrice: "100,00", Amount: "100,00", TaxRate: "18.0"},
	}
	extracted := Totals{Subtotal: "100.00", TaxAmount: "18.00", Total: "999.99"}

	totals := ReconcileTotals(items, extracted, "18")

	assert.Equal(t, "118.00", totals.Total)
}

func TestReconcileTotalsDefaultRateForUnratedItems(t *testing.T) {
	items := []dto.LineItem{
		{Description: "A", Quantity: "1", UnitPrice: "200,00"},
	}

	totals := ReconcileTotals(items, Totals{}, "20")

	assert.Equal(t, "40.00", totals.TaxAmount)
	assert.Equal(t, "240.00", totals.Total)
}

func TestReconcileTotalsNoItems(t *testing.T) {
	totals := ReconcileTotals(nil, Totals{Total: "150.00"}, "18")

	assert.Empty(t, totals.Subtotal)
	assert.Empty(t, totals.TaxAmount)
	assert.Equal(t, "150.00", totals.Total)
}
