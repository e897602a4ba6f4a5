package utils

import (
	"github.com/shopspring/decimal"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

var reconcileTolerance = decimal.NewFromFloat(0.01)

// Totals holds the document-level money fields after reconciliation.
type Totals struct {
	Subtotal  string
	TaxAmount string
	Total     string
}

// ReconcileTotals fills in the money fields the document did not state
// and repairs the ones that contradict the line items. Line amounts
// missing from the table are recomputed as quantity times unit price,
// so callers can rely on every surviving item carrying an amount.
func ReconcileTotals(items []dto.LineItem, extracted Totals, defaultVATRate string) Totals {
	hundred := decimal.NewFromInt(100)

	lineSum := decimal.Zero
	taxSum := decimal.Zero
	for i := range items {
		amount := parseDecimal(items[i].Amount)
		if amount.IsZero() {
			qty := parseDecimal(items[i].Quantity)
			price := parseDecimal(items[i].UnitPrice)
			amount = qty.Mul(price)
			items[i].Amount = amount.StringFixed(2)
		}
		lineSum = lineSum.Add(amount)

		rate := parseDecimal(items[i].TaxRate)
		if rate.IsZero() {
			rate = parseDecimal(defaultVATRate)
		}
		taxSum = taxSum.Add(amount.Mul(rate).Div(hundred))
	}

	subtotal := parseDecimal(extracted.Subtotal)
	if subtotal.IsZero() && len(items) > 0 {
		subtotal = lineSum
		extracted.Subtotal = subtotal.StringFixed(2)
	}

	tax := parseDecimal(extracted.TaxAmount)
	if tax.IsZero() && len(items) > 0 {
		tax = taxSum.Round(2)
		extracted.TaxAmount = tax.StringFixed(2)
	}

	total := parseDecimal(extracted.Total)
	expected := subtotal.Add(tax)
	switch {
	case total.IsZero() && !expected.IsZero():
		extracted.Total = expected.StringFixed(2)
	case !total.IsZero() && total.Sub(expected).Abs().GreaterThan(reconcileTolerance) && !expected.IsZero():
		// An extracted grand total that disagrees with its own parts
		// is an extraction artifact, not a discount.
		extracted.Total = expected.StringFixed(2)
	}
	return extracted
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(CleanNumber(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
