package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, shop_id, invoice_no, customer_id, date, subtotal, cgst, sgst, igst, cess, total, status, COALESCE(notes, ''), COALESCE(pdf_object_key, ''), COALESCE(pdf_url, '')`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var subtotal, cgst, sgst, igst, cess, total decimal.Decimal
	err := row.Scan(&inv.ID, &inv.ShopID, &inv.InvoiceNo, &inv.CustomerID, &inv.Date,
		&subtotal, &cgst, &sgst, &igst, &cess, &total, &inv.Status, &inv.Notes, &inv.PDFObjectKey, &inv.PDFURL)
	if err != nil {
		return Invoice{}, err
	}
	inv.Subtotal, inv.CGST, inv.SGST, inv.IGST, inv.Cess, inv.Total =
		subtotal.StringFixed(2), cgst.StringFixed(2), sgst.StringFixed(2), igst.StringFixed(2), cess.StringFixed(2), total.StringFixed(2)
	return inv, nil
}

// GetLastInvoice returns the shop's most recently confirmed invoice for a
// customer, or ErrInvoiceNotFound if the customer has none.
func (s *Store) GetLastInvoice(ctx context.Context, customerID int) (*Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE customer_id = $1 ORDER BY date DESC, id DESC LIMIT 1
	`, customerID)
	inv, err := scanInvoice(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to fetch last invoice: %w", err)
	}
	return &inv, nil
}

// GetRecentInvoices returns the shop's last n confirmed invoices across all
// customers, newest first.
func (s *Store) GetRecentInvoices(ctx context.Context, shopID string, n int) ([]Invoice, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE shop_id = $1 ORDER BY date DESC, id DESC LIMIT $2
	`, shopID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// GetCustomerInvoices returns every invoice a customer has, newest first.
func (s *Store) GetCustomerInvoices(ctx context.Context, customerID int) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices WHERE customer_id = $1 ORDER BY date DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// DailySummary is the end-of-day rollup: invoice count/value, payments
// received, and outstanding balance across the shop, returned by
// GetDailySummary for the DAILY_SUMMARY intent and the REST summary route.
// Nothing builds or sends it on a schedule.
type DailySummary struct {
	ShopID            string
	Date              time.Time
	InvoiceCount      int
	InvoiceTotal      string
	PaymentsReceived  string
	TotalOutstanding  string
}

// GetDailySummary rolls up a shop's activity for the calendar day containing at.
func (s *Store) GetDailySummary(ctx context.Context, shopID string, at time.Time) (*DailySummary, error) {
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	summary := &DailySummary{ShopID: shopID, Date: dayStart}

	var invoiceCount int
	var invoiceTotal decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0) FROM invoices
		WHERE shop_id = $1 AND date >= $2 AND date < $3 AND status != 'cancelled'
	`, shopID, dayStart, dayEnd).Scan(&invoiceCount, &invoiceTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to roll up invoices: %w", err)
	}
	summary.InvoiceCount = invoiceCount
	summary.InvoiceTotal = invoiceTotal.StringFixed(2)

	var paymentsReceived decimal.Decimal
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(p.amount), 0) FROM payments p
		JOIN customers c ON c.id = p.customer_id
		WHERE c.shop_id = $1 AND p.received_at >= $2 AND p.received_at < $3
	`, shopID, dayStart, dayEnd).Scan(&paymentsReceived)
	if err != nil {
		return nil, fmt.Errorf("failed to roll up payments: %w", err)
	}
	summary.PaymentsReceived = paymentsReceived.StringFixed(2)

	outstanding, err := s.GetTotalPendingAmount(ctx, shopID)
	if err != nil {
		return nil, err
	}
	summary.TotalOutstanding = outstanding

	return summary, nil
}
