package gst_test

import (
	"testing"

	"dukaan-agent/internal/gst"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateLineItem_Intrastate(t *testing.T) {
	in := gst.LineInput{
		ProductName: "chawal",
		Quantity:    dec("2"),
		UnitPrice:   dec("50"),
		GSTRate:     dec("5"),
	}
	res := gst.CalculateLineItem(in, gst.Intrastate)

	if !res.Subtotal.Equal(dec("100.00")) {
		t.Errorf("subtotal = %s, want 100.00", res.Subtotal)
	}
	if !res.CGST.Equal(dec("2.50")) || !res.SGST.Equal(dec("2.50")) {
		t.Errorf("cgst/sgst = %s/%s, want 2.50/2.50", res.CGST, res.SGST)
	}
	if !res.IGST.IsZero() {
		t.Errorf("igst should be zero for intrastate, got %s", res.IGST)
	}
	if !res.Total.Equal(dec("105.00")) {
		t.Errorf("total = %s, want 105.00", res.Total)
	}
}

func TestCalculateLineItem_Interstate(t *testing.T) {
	in := gst.LineInput{
		Quantity:  dec("1"),
		UnitPrice: dec("1000"),
		GSTRate:   dec("18"),
	}
	res := gst.CalculateLineItem(in, gst.Interstate)
	if !res.IGST.Equal(dec("180.00")) {
		t.Errorf("igst = %s, want 180.00", res.IGST)
	}
	if !res.CGST.IsZero() || !res.SGST.IsZero() {
		t.Errorf("cgst/sgst should be zero for interstate")
	}
}

func TestCalculateLineItem_Exempt(t *testing.T) {
	in := gst.LineInput{
		Quantity:    dec("3"),
		UnitPrice:   dec("10"),
		GSTRate:     dec("12"),
		IsGSTExempt: true,
	}
	res := gst.CalculateLineItem(in, gst.Intrastate)
	if !res.TotalTax.IsZero() {
		t.Errorf("expected zero tax for exempt line, got %s", res.TotalTax)
	}
	if !res.Total.Equal(res.Subtotal) {
		t.Errorf("exempt total should equal subtotal")
	}
}

func TestCalculateLineItem_Cess(t *testing.T) {
	in := gst.LineInput{
		Quantity:  dec("1"),
		UnitPrice: dec("100"),
		GSTRate:   dec("28"),
		CessRate:  dec("12"),
	}
	res := gst.CalculateLineItem(in, gst.Intrastate)
	if !res.Cess.Equal(dec("12.00")) {
		t.Errorf("cess = %s, want 12.00", res.Cess)
	}
}

func TestAggregate_InvoiceTotalsInvariant(t *testing.T) {
	lines := []gst.LineResult{
		gst.CalculateLineItem(gst.LineInput{Quantity: dec("2"), UnitPrice: dec("50"), GSTRate: dec("5")}, gst.Intrastate),
		gst.CalculateLineItem(gst.LineInput{Quantity: dec("5"), UnitPrice: dec("30"), GSTRate: dec("5")}, gst.Intrastate),
	}
	totals := gst.Aggregate(lines)

	// chawal: 100 + 5% = 105; aata: 150 + 5% = 157.5; grand total 262.5
	if !totals.GrandTotal.Equal(dec("262.50")) {
		t.Errorf("grand total = %s, want 262.50", totals.GrandTotal)
	}
	sumOfTotals := decimal.Zero
	for _, l := range lines {
		sumOfTotals = sumOfTotals.Add(l.Total)
	}
	if !sumOfTotals.Equal(totals.GrandTotal) {
		t.Errorf("sum of line totals %s != grand total %s", sumOfTotals, totals.GrandTotal)
	}
}
