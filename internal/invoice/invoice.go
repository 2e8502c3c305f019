// Package invoice derives a booking's financials from its line items, fee
// inputs and VAT policy. Computation is a pure function of its inputs so the
// stored amounts can be recomputed at any time without drift.
package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/zahrat-boutique/api/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Totals is the derived financial summary of an order.
type Totals struct {
	Subtotal  decimal.Decimal
	FeeTotal  decimal.Decimal
	VatAmount decimal.Decimal
	Total     decimal.Decimal
}

// Compute calculates subtotal, fees, VAT and grand total.
//
// Three VAT modes exist:
//   - VAT disabled: vat is zero, total is subtotal + fees.
//   - VAT included in price: the base already contains tax. VAT is extracted
//     (base - base/(1+rate)) and the total is unchanged.
//   - VAT extra: the base is net; VAT is added on top.
//
// Amounts keep full decimal precision; rounding to the 3 display decimals
// happens only at serialization time.
func Compute(items []model.OrderItem, fees model.Fees, vatRate decimal.Decimal, includeVat, vatInPrice bool) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt32(it.Quantity)))
	}

	feeTotal := fees.Delivery.Add(fees.Alteration).Add(fees.Cutting)
	base := subtotal.Add(feeTotal)

	t := Totals{
		Subtotal:  subtotal,
		FeeTotal:  feeTotal,
		VatAmount: decimal.Zero,
		Total:     base,
	}

	if !includeVat {
		return t
	}

	rate := vatRate.Div(hundred)
	if vatInPrice {
		net := base.Div(decimal.NewFromInt(1).Add(rate))
		t.VatAmount = base.Sub(net)
		return t
	}

	t.VatAmount = base.Mul(rate)
	t.Total = base.Add(t.VatAmount)
	return t
}

// Apply recomputes an order's derived amounts in place. Every service
// mutation that changes items, fees or VAT policy calls this before saving.
func Apply(o *model.Order) {
	t := Compute(o.Items, o.AdditionalFees, o.VatRate, o.IncludeVat, o.VatInPrice)
	o.VatAmount = t.VatAmount
	o.TotalAmount = t.Total
}
