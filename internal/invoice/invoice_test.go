package invoice

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/zahrat-boutique/api/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testItems() []model.OrderItem {
	return []model.OrderItem{
		{ID: "1", ItemName: "Evening Dress", Price: dec("10"), Quantity: 2},
	}
}

func testFees() model.Fees {
	return model.Fees{Delivery: dec("5")}
}

func TestComputeVatExtra(t *testing.T) {
	got := Compute(testItems(), testFees(), dec("5"), true, false)

	if !got.Subtotal.Equal(dec("20")) {
		t.Errorf("subtotal = %s, want 20", got.Subtotal)
	}
	if !got.FeeTotal.Equal(dec("5")) {
		t.Errorf("fee total = %s, want 5", got.FeeTotal)
	}
	if !got.VatAmount.Equal(dec("1.25")) {
		t.Errorf("vat = %s, want 1.25", got.VatAmount)
	}
	if !got.Total.Equal(dec("26.25")) {
		t.Errorf("total = %s, want 26.25", got.Total)
	}
}

func TestComputeVatIncludedInPrice(t *testing.T) {
	got := Compute(testItems(), testFees(), dec("5"), true, true)

	// base 25 is gross: net = 25/1.05, vat = 25 - net, total unchanged.
	if !got.Total.Equal(dec("25")) {
		t.Errorf("total = %s, want 25 (VAT extracted, not added)", got.Total)
	}
	if got.VatAmount.StringFixed(3) != "1.190" {
		t.Errorf("vat = %s, want 1.190 at display precision", got.VatAmount.StringFixed(3))
	}
	net := got.Total.Sub(got.VatAmount)
	if net.StringFixed(3) != "23.810" {
		t.Errorf("net = %s, want 23.810 at display precision", net.StringFixed(3))
	}
}

func TestComputeVatDisabled(t *testing.T) {
	// VAT exclusivity: includeVat=false forces vat to exactly zero
	// regardless of rate or pricing mode.
	for _, vatInPrice := range []bool{false, true} {
		got := Compute(testItems(), testFees(), dec("5"), false, vatInPrice)
		if !got.VatAmount.IsZero() {
			t.Errorf("vatInPrice=%v: vat = %s, want 0", vatInPrice, got.VatAmount)
		}
		if !got.Total.Equal(dec("25")) {
			t.Errorf("vatInPrice=%v: total = %s, want 25", vatInPrice, got.Total)
		}
	}
}

func TestComputeEmptyOrder(t *testing.T) {
	got := Compute(nil, model.Fees{}, dec("5"), true, false)
	if !got.Total.IsZero() || !got.VatAmount.IsZero() {
		t.Errorf("empty order: total = %s, vat = %s, want both 0", got.Total, got.VatAmount)
	}
}

func TestComputeQuantityMultiplies(t *testing.T) {
	items := []model.OrderItem{
		{ID: "1", ItemName: "Abaya", Price: dec("12.500"), Quantity: 3},
		{ID: "2", ItemName: "Scarf", Price: dec("2.250"), Quantity: 1},
	}
	got := Compute(items, model.Fees{}, decimal.Zero, false, false)
	if !got.Subtotal.Equal(dec("39.75")) {
		t.Errorf("subtotal = %s, want 39.75", got.Subtotal)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	a := Compute(testItems(), testFees(), dec("5"), true, true)
	b := Compute(testItems(), testFees(), dec("5"), true, true)
	if !a.VatAmount.Equal(b.VatAmount) || !a.Total.Equal(b.Total) {
		t.Error("identical inputs produced different totals")
	}
}

func TestApplyKeepsDerivedFieldsConsistent(t *testing.T) {
	o := &model.Order{
		Items:          testItems(),
		AdditionalFees: testFees(),
		VatRate:        dec("5"),
		IncludeVat:     true,
	}
	Apply(o)
	if !o.TotalAmount.Equal(dec("26.25")) {
		t.Fatalf("total = %s, want 26.25", o.TotalAmount)
	}

	// Mutate an input, re-apply, and verify no drift from a fresh compute.
	o.AdditionalFees.Cutting = dec("2")
	Apply(o)
	want := Compute(o.Items, o.AdditionalFees, o.VatRate, o.IncludeVat, o.VatInPrice)
	if !o.TotalAmount.Equal(want.Total) || !o.VatAmount.Equal(want.VatAmount) {
		t.Errorf("derived fields drifted: total %s vat %s", o.TotalAmount, o.VatAmount)
	}
	if !o.TotalAmount.Equal(dec("28.35")) {
		t.Errorf("total = %s, want 28.35", o.TotalAmount)
	}
}
