package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// financialYear returns the Indian financial year string ("YYYY-YY") containing t.
// The financial year starts April 1; e.g. 2025-02-14 falls in "2024-25".
func financialYear(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// generateInvoiceNo atomically bumps the per-(shop,FY) counter and returns the
// next invoice number formatted "<FY>/INV/<SEQ>". This is the teacher's
// document_service.go gapless-sequence upsert (INSERT ... ON CONFLICT DO UPDATE
// ... RETURNING), generalized from a per-company-per-doctype counter to a
// per-shop-per-financial-year one. It must run inside the same transaction as
// the invoice insert so a rollback removes the sequence increment too.
func generateInvoiceNo(ctx context.Context, tx pgx.Tx, shopID string, now time.Time) (string, error) {
	fy := financialYear(now)

	var seq int64
	err := tx.QueryRow(ctx, `
		INSERT INTO invoice_counters (shop_id, financial_year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (shop_id, financial_year)
		DO UPDATE SET last_number = invoice_counters.last_number + 1
		RETURNING last_number
	`, shopID, fy).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}

	return fmt.Sprintf("%s/INV/%04d", fy, seq), nil
}
