package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Statutory defaults for the AGT regime. TaxPolicy lets a deployment
// override them from configuration without touching the calculator.
var (
	defaultWithholdingRate      = decimal.NewFromFloat(0.065)
	defaultWithholdingThreshold = decimal.NewFromInt(20000)
)

// TaxPolicy parameterizes the calculator. The zero value is invalid;
// use DefaultTaxPolicy and override fields from config.
type TaxPolicy struct {
	// WithholdingRate applies to SERVICE lines whose total exceeds
	// WithholdingThreshold (strictly greater).
	WithholdingRate      decimal.Decimal
	WithholdingThreshold decimal.Decimal
	// LocalCurrency pins the exchange rate to 1.
	LocalCurrency string
}

func DefaultTaxPolicy() TaxPolicy {
	return TaxPolicy{
		WithholdingRate:      defaultWithholdingRate,
		WithholdingThreshold: defaultWithholdingThreshold,
		LocalCurrency:        "AOA",
	}
}

// TaxHeader is the header-level input to the calculator.
type TaxHeader struct {
	GlobalDiscount decimal.Decimal
	RetentionType  RetentionType
	Currency       string
	ExchangeRate   decimal.Decimal
}

// Totals is the derived monetary state of a document. Every field is a
// pure function of the lines and header; none is ever hand-edited.
type Totals struct {
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	Withholding     decimal.Decimal
	RetentionAmount decimal.Decimal
	DiscountValue   decimal.Decimal
	Total           decimal.Decimal
	ExchangeRate    decimal.Decimal
	ContraValue     decimal.Decimal
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// LineTotal computes qty × length × width × height × price × (1 − disc/100).
// Zero dimensions are treated as the default 1 so plain lines reduce to
// quantity × price.
func LineTotal(l LineItem) decimal.Decimal {
	length := defaultDim(l.Length)
	width := defaultDim(l.Width)
	height := defaultDim(l.Height)
	gross := l.Quantity.Mul(length).Mul(width).Mul(height).Mul(l.UnitPrice)
	if l.DiscountPct.IsZero() {
		return gross
	}
	return gross.Mul(one.Sub(l.DiscountPct.Div(hundred)))
}

func defaultDim(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return one
	}
	return d
}

// ComputeTotals derives all document amounts from the lines and header.
// Pure and deterministic: the same inputs always produce the same
// Totals, so re-running it after any mutation is safe and required.
func (p TaxPolicy) ComputeTotals(lines []LineItem, h TaxHeader) Totals {
	var t Totals

	for _, l := range lines {
		lt := LineTotal(l)
		t.Subtotal = t.Subtotal.Add(lt)
		t.TaxAmount = t.TaxAmount.Add(lt.Mul(l.TaxRate).Div(hundred))

		// Withholding hits qualifying service lines only; goods and
		// at-or-below-threshold lines contribute zero.
		if l.Kind == LineService && lt.GreaterThan(p.WithholdingThreshold) {
			t.Withholding = t.Withholding.Add(lt.Mul(p.WithholdingRate))
		}
	}

	switch h.RetentionType {
	case RetentionCat50:
		t.RetentionAmount = t.TaxAmount.Div(decimal.NewFromInt(2))
	case RetentionCat100:
		t.RetentionAmount = t.TaxAmount
	}

	if !h.GlobalDiscount.IsZero() {
		t.DiscountValue = t.Subtotal.Mul(h.GlobalDiscount).Div(hundred)
	}

	t.Total = t.Subtotal.Add(t.TaxAmount).
		Sub(t.DiscountValue).
		Sub(t.Withholding).
		Sub(t.RetentionAmount)

	t.ExchangeRate = p.resolveRate(h)
	t.ContraValue = t.Total.Mul(t.ExchangeRate)
	return t
}

// resolveRate defaults the exchange rate by currency: the local
// currency is always 1, foreign currencies keep the operator's rate.
// A zero foreign rate falls back to 1; SaveDraft rejects that
// combination before it reaches here.
func (p TaxPolicy) resolveRate(h TaxHeader) decimal.Decimal {
	cur := strings.ToUpper(strings.TrimSpace(h.Currency))
	if cur == "" || cur == p.LocalCurrency {
		return one
	}
	if h.ExchangeRate.IsZero() {
		return one
	}
	return h.ExchangeRate
}

// Apply writes the computed totals back onto the document header and
// refreshes each line's stored total.
func (p TaxPolicy) Apply(doc *Document) {
	for i := range doc.Lines {
		doc.Lines[i].LineTotal = LineTotal(doc.Lines[i])
	}
	t := p.ComputeTotals(doc.Lines, TaxHeader{
		GlobalDiscount: doc.GlobalDiscount,
		RetentionType:  doc.RetentionType,
		Currency:       doc.Currency,
		ExchangeRate:   doc.ExchangeRate,
	})
	doc.Subtotal = t.Subtotal
	doc.TaxAmount = t.TaxAmount
	doc.Withholding = t.Withholding
	doc.RetentionAmount = t.RetentionAmount
	doc.Total = t.Total
	doc.ExchangeRate = t.ExchangeRate
	doc.ContraValue = t.ContraValue
}
