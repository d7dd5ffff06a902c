package billing

import (
	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var maxTaxRate = decimal.NewFromInt(1)

// TotalsLine is one input row of the totals calculator. When Total is set it
// is used as the pre-computed line total; otherwise round(quantity × price).
type TotalsLine struct {
	Quantity  decimal.Decimal
	UnitPrice valueobject.Money
	Total     *valueobject.Money
}

// DocumentTotals is the computed money summary of a document.
// Total always equals Subtotal - Discount + TaxAmount exactly.
type DocumentTotals struct {
	Subtotal  valueobject.Money `json:"subtotal"`
	Discount  valueobject.Money `json:"discount"`
	TaxRate   decimal.Decimal   `json:"tax_rate"`
	TaxAmount valueobject.Money `json:"tax_amount"`
	Total     valueobject.Money `json:"total"`
}

// LineTotal returns round(quantity × unit price) in cents
func LineTotal(quantity decimal.Decimal, unitPrice valueobject.Money) valueobject.Money {
	return unitPrice.MultiplyQuantity(quantity)
}

// CalculateTotals computes document totals in integer cents:
//
//	subtotal  = Σ round(quantity_i × unitPrice_i)
//	taxAmount = round((subtotal - discount) × taxRate)
//	total     = (subtotal - discount) + taxAmount
//
// Results are not clamped; a discount larger than the subtotal yields a
// negative total and callers decide whether that is acceptable.
func CalculateTotals(lines []TotalsLine, discount valueobject.Money, taxRate decimal.Decimal) (DocumentTotals, error) {
	if discount.IsNegative() {
		return DocumentTotals{}, shared.NewValidationError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(maxTaxRate) {
		return DocumentTotals{}, shared.NewValidationError("INVALID_TAX_RATE", "Tax rate must be between 0 and 1")
	}

	var subtotal valueobject.Money
	for _, l := range lines {
		if l.Total != nil {
			subtotal = subtotal.Add(*l.Total)
			continue
		}
		subtotal = subtotal.Add(LineTotal(l.Quantity, l.UnitPrice))
	}

	return totalsFromSubtotal(subtotal, discount, taxRate), nil
}

func totalsFromSubtotal(subtotal, discount valueobject.Money, taxRate decimal.Decimal) DocumentTotals {
	taxable := subtotal.Subtract(discount)
	tax := taxable.MultiplyRate(taxRate)
	return DocumentTotals{
		Subtotal:  subtotal,
		Discount:  discount,
		TaxRate:   taxRate,
		TaxAmount: tax,
		Total:     taxable.Add(tax),
	}
}

// TotalsLines converts document line items into calculator input, using each
// line's stored total.
func TotalsLines(items []LineItem) []TotalsLine {
	out := make([]TotalsLine, 0, len(items))
	for i := range items {
		total := items[i].Total
		out = append(out, TotalsLine{Quantity: items[i].Quantity, UnitPrice: items[i].UnitPrice, Total: &total})
	}
	return out
}
