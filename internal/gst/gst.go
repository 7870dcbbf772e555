// Package gst implements the pure GST (Goods and Services Tax) line-item and
// aggregate calculations used by invoice preview and confirmation. It performs
// no I/O and depends only on github.com/shopspring/decimal for 2-decimal-place
// money arithmetic.
package gst

import "github.com/shopspring/decimal"

// SupplyType distinguishes intrastate (CGST+SGST) from interstate (IGST) supplies.
type SupplyType string

const (
	Intrastate SupplyType = "INTRASTATE"
	Interstate SupplyType = "INTERSTATE"
)

// LineInput is the pre-tax description of a single invoice line.
type LineInput struct {
	ProductName string
	HSNCode     string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	GSTRate     decimal.Decimal // percentage, e.g. 5 for 5%
	CessRate    decimal.Decimal // percentage
	IsGSTExempt bool
}

// LineResult is the computed tax breakdown for one line.
type LineResult struct {
	Subtotal decimal.Decimal
	CGST     decimal.Decimal
	SGST     decimal.Decimal
	IGST     decimal.Decimal
	Cess     decimal.Decimal
	TotalTax decimal.Decimal
	Total    decimal.Decimal
}

var two = int32(2)

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(two)
}

// CalculateLineItem computes the tax split for one invoice line per §4.E:
//   - subtotal = round2(unitPrice * quantity)
//   - exempt or zero-rated lines carry zero tax
//   - intrastate splits evenly into CGST+SGST (rate/2 each); interstate uses IGST
//   - cess applies regardless of supply type
func CalculateLineItem(in LineInput, supply SupplyType) LineResult {
	subtotal := round2(in.UnitPrice.Mul(in.Quantity))

	res := LineResult{Subtotal: subtotal}

	taxable := !in.IsGSTExempt && !in.GSTRate.IsZero()
	if taxable {
		switch supply {
		case Interstate:
			res.IGST = round2(subtotal.Mul(in.GSTRate).Div(decimal.NewFromInt(100)))
		default: // Intrastate
			half := round2(subtotal.Mul(in.GSTRate).Div(decimal.NewFromInt(200)))
			res.CGST = half
			res.SGST = half
		}
	}

	if !in.CessRate.IsZero() {
		res.Cess = round2(subtotal.Mul(in.CessRate).Div(decimal.NewFromInt(100)))
	}

	res.TotalTax = round2(res.CGST.Add(res.SGST).Add(res.IGST).Add(res.Cess))
	res.Total = round2(subtotal.Add(res.TotalTax))
	return res
}

// Totals is the aggregate across all lines of an invoice or preview.
type Totals struct {
	Subtotal   decimal.Decimal
	CGST       decimal.Decimal
	SGST       decimal.Decimal
	IGST       decimal.Decimal
	Cess       decimal.Decimal
	GrandTotal decimal.Decimal
}

// Aggregate sums per-line results, rounding to 2dp at each aggregation step as
// required by §4.E ("sum then round2 at each aggregation step").
func Aggregate(lines []LineResult) Totals {
	var t Totals
	t.Subtotal = decimal.Zero
	t.CGST = decimal.Zero
	t.SGST = decimal.Zero
	t.IGST = decimal.Zero
	t.Cess = decimal.Zero
	for _, l := range lines {
		t.Subtotal = round2(t.Subtotal.Add(l.Subtotal))
		t.CGST = round2(t.CGST.Add(l.CGST))
		t.SGST = round2(t.SGST.Add(l.SGST))
		t.IGST = round2(t.IGST.Add(l.IGST))
		t.Cess = round2(t.Cess.Add(l.Cess))
	}
	t.GrandTotal = round2(t.Subtotal.Add(t.CGST).Add(t.SGST).Add(t.IGST).Add(t.Cess))
	return t
}
