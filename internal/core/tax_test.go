package core_test

import (
	"testing"

	"fiscal-engine/internal/core"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func goodsLine(qty, price, rate string) core.LineItem {
	return core.LineItem{
		Kind:      core.LineGoods,
		Quantity:  d(qty),
		UnitPrice: d(price),
		TaxRate:   d(rate),
	}
}

func TestComputeTotals_CashSale(t *testing.T) {
	policy := core.DefaultTaxPolicy()

	lines := []core.LineItem{goodsLine("1", "250000", "14")}

	tests := []struct {
		name      string
		retention core.RetentionType
		wantTax   string
		wantTotal string
	}{
		{"no retention", core.RetentionNone, "35000", "285000"},
		{"retention CAT_50", core.RetentionCat50, "35000", "267500"},
		{"retention CAT_100", core.RetentionCat100, "35000", "250000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := policy.ComputeTotals(lines, core.TaxHeader{RetentionType: tc.retention, Currency: "AOA"})
			if !got.Subtotal.Equal(d("250000")) {
				t.Errorf("subtotal = %s, want 250000", got.Subtotal)
			}
			if !got.TaxAmount.Equal(d(tc.wantTax)) {
				t.Errorf("tax = %s, want %s", got.TaxAmount, tc.wantTax)
			}
			if !got.Total.Equal(d(tc.wantTotal)) {
				t.Errorf("total = %s, want %s", got.Total, tc.wantTotal)
			}
		})
	}
}

func TestComputeTotals_ServiceWithholding(t *testing.T) {
	policy := core.DefaultTaxPolicy()

	tests := []struct {
		name            string
		lineValue       string
		kind            core.LineKind
		wantWithholding string
	}{
		{"service above threshold", "25000", core.LineService, "1625"},
		{"service at threshold", "20000", core.LineService, "0"},
		{"service below threshold", "15000", core.LineService, "0"},
		{"goods above threshold", "25000", core.LineGoods, "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines := []core.LineItem{{
				Kind:      tc.kind,
				Quantity:  d("1"),
				UnitPrice: d(tc.lineValue),
				TaxRate:   d("14"),
			}}
			got := policy.ComputeTotals(lines, core.TaxHeader{Currency: "AOA"})
			if !got.Withholding.Equal(d(tc.wantWithholding)) {
				t.Errorf("withholding = %s, want %s", got.Withholding, tc.wantWithholding)
			}
		})
	}
}

func TestComputeTotals_WithholdingAndRetentionIndependent(t *testing.T) {
	policy := core.DefaultTaxPolicy()
	lines := []core.LineItem{{
		Kind:      core.LineService,
		Quantity:  d("1"),
		UnitPrice: d("100000"),
		TaxRate:   d("14"),
	}}

	got := policy.ComputeTotals(lines, core.TaxHeader{RetentionType: core.RetentionCat50, Currency: "AOA"})

	// withholding 6500 and retention 7000 are separate deductions:
	// 100000 + 14000 − 6500 − 7000 = 100500
	if !got.Withholding.Equal(d("6500")) {
		t.Errorf("withholding = %s, want 6500", got.Withholding)
	}
	if !got.RetentionAmount.Equal(d("7000")) {
		t.Errorf("retention = %s, want 7000", got.RetentionAmount)
	}
	if !got.Total.Equal(d("100500")) {
		t.Errorf("total = %s, want 100500", got.Total)
	}
}

func TestLineTotal_VolumetricDimensions(t *testing.T) {
	tests := []struct {
		name string
		line core.LineItem
		want string
	}{
		{
			"plain quantity times price",
			goodsLine("5", "1000", "14"),
			"5000",
		},
		{
			"volumetric multipliers",
			core.LineItem{Kind: core.LineGoods, Quantity: d("2"), UnitPrice: d("500"),
				Length: d("3"), Width: d("2"), Height: d("1.5")},
			"9000",
		},
		{
			"line discount",
			core.LineItem{Kind: core.LineGoods, Quantity: d("4"), UnitPrice: d("2500"),
				DiscountPct: d("10")},
			"9000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := core.LineTotal(tc.line); !got.Equal(d(tc.want)) {
				t.Errorf("LineTotal = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestComputeTotals_GlobalDiscountAndContraValue(t *testing.T) {
	policy := core.DefaultTaxPolicy()
	lines := []core.LineItem{goodsLine("1", "100000", "14")}

	got := policy.ComputeTotals(lines, core.TaxHeader{
		GlobalDiscount: d("5"),
		Currency:       "USD",
		ExchangeRate:   d("830"),
	})

	// 100000 + 14000 − 5000 = 109000; contra-value at 830
	if !got.DiscountValue.Equal(d("5000")) {
		t.Errorf("discount value = %s, want 5000", got.DiscountValue)
	}
	if !got.Total.Equal(d("109000")) {
		t.Errorf("total = %s, want 109000", got.Total)
	}
	if !got.ContraValue.Equal(d("90470000")) {
		t.Errorf("contra-value = %s, want 90470000", got.ContraValue)
	}
}

func TestComputeTotals_LocalCurrencyRatePinsToOne(t *testing.T) {
	policy := core.DefaultTaxPolicy()
	lines := []core.LineItem{goodsLine("1", "50000", "14")}

	got := policy.ComputeTotals(lines, core.TaxHeader{Currency: "AOA", ExchangeRate: d("830")})
	if !got.ExchangeRate.Equal(d("1")) {
		t.Errorf("local currency rate = %s, want 1", got.ExchangeRate)
	}
	if !got.ContraValue.Equal(got.Total) {
		t.Errorf("contra-value %s should equal total %s for local currency", got.ContraValue, got.Total)
	}
}

func TestComputeTotals_Idempotent(t *testing.T) {
	policy := core.DefaultTaxPolicy()
	lines := []core.LineItem{
		goodsLine("3", "12500", "14"),
		{Kind: core.LineService, Quantity: d("1"), UnitPrice: d("30000"), TaxRate: d("14")},
	}
	header := core.TaxHeader{GlobalDiscount: d("2"), RetentionType: core.RetentionCat50, Currency: "AOA"}

	first := policy.ComputeTotals(lines, header)
	second := policy.ComputeTotals(lines, header)

	if !first.Total.Equal(second.Total) || !first.Withholding.Equal(second.Withholding) ||
		!first.TaxAmount.Equal(second.TaxAmount) || !first.ContraValue.Equal(second.ContraValue) {
		t.Errorf("identical inputs produced different totals: %+v vs %+v", first, second)
	}
}
