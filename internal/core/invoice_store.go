package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"dukaan-agent/internal/gst"
)

// InvoiceLineRequest is one spoken line item before product resolution.
type InvoiceLineRequest struct {
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal // nil means "use the catalogue price"
}

// ResolvedLine is an InvoiceLineRequest after product resolution, carrying the
// product used to price it and whether that product had to be auto-created.
type ResolvedLine struct {
	Product       Product
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	AutoCreated   bool
	gst.LineResult
}

// InvoicePreview is the unsaved result of a two-pass resolve-then-price run over
// a customer's spoken line items. No invoice, stock or balance row is written
// until ConfirmInvoice is called with the same lines; the only write a preview
// makes is the placeholder product for an unknown item.
type InvoicePreview struct {
	CustomerID int
	Lines      []ResolvedLine
	Totals     gst.Totals
	Warnings   []string
}

// PreviewInvoice resolves every requested line against the product catalogue
// (auto-creating a placeholder product when no match exists), prices each line
// with the GST calculator, and aggregates totals. The placeholder insert is its
// only database write; no invoice, stock or balance changes. supply is
// Intrastate unless the customer has an interstate GSTIN on file.
func (s *Store) PreviewInvoice(ctx context.Context, shopID string, customerID int, lines []InvoiceLineRequest, supply gst.SupplyType) (*InvoicePreview, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	preview := &InvoicePreview{CustomerID: customerID}
	var results []gst.LineResult

	for _, line := range lines {
		product, err := s.FindProduct(ctx, shopID, line.ProductName)
		autoCreated := false
		if err == ErrProductNotFound {
			product, err = s.CreatePlaceholderProduct(ctx, shopID, line.ProductName, "pcs")
			if err != nil {
				return nil, err
			}
			autoCreated = true
			preview.Warnings = append(preview.Warnings, fmt.Sprintf("%s not found in catalogue, added at price 0", line.ProductName))
		} else if err != nil {
			return nil, err
		}

		unitPrice := line.UnitPrice
		var price decimal.Decimal
		if unitPrice != nil {
			price = *unitPrice
		} else {
			price, err = decimal.NewFromString(product.Price)
			if err != nil {
				return nil, fmt.Errorf("failed to parse catalogue price: %w", err)
			}
		}

		gstRate, err := decimal.NewFromString(product.GSTRate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse gst rate: %w", err)
		}
		cessRate, err := decimal.NewFromString(product.CessRate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cess rate: %w", err)
		}

		in := gst.LineInput{
			ProductName:  product.Name,
			HSNCode:      product.HSNCode,
			Quantity:     line.Quantity,
			UnitPrice:    price,
			GSTRate:      gstRate,
			CessRate:     cessRate,
			IsGSTExempt:  product.IsGSTExempt,
		}
		lr := gst.CalculateLineItem(in, supply)
		results = append(results, lr)

		preview.Lines = append(preview.Lines, ResolvedLine{
			Product:     *product,
			Quantity:    line.Quantity,
			UnitPrice:   price,
			AutoCreated: autoCreated,
			LineResult:  lr,
		})
	}

	preview.Totals = gst.Aggregate(results)
	return preview, nil
}

// ConfirmInvoice re-resolves and re-prices the same lines inside a single
// transaction (prices may have moved between preview and confirm), locks each
// product row, decrements stock, assigns a gapless invoice number, writes the
// invoice and its items, and posts a DEBIT ledger entry for the total. All of
// this is atomic: any failure rolls back the stock decrements and the sequence
// bump together.
func (s *Store) ConfirmInvoice(ctx context.Context, shopID string, customerID int, lines []InvoiceLineRequest, supply gst.SupplyType, notes string) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var custExists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 FOR UPDATE)`, customerID).Scan(&custExists); err != nil {
		return nil, fmt.Errorf("failed to lock customer: %w", err)
	}
	if !custExists {
		return nil, ErrCustomerNotFound
	}

	type pricedLine struct {
		productID int
		gst.LineResult
		quantity  decimal.Decimal
		unitPrice decimal.Decimal
		hsn       string
		unit      string
		gstRate   decimal.Decimal
	}

	var priced []pricedLine
	var results []gst.LineResult

	for _, line := range lines {
		var (
			productID                           int
			name, unit, hsn                     string
			price, gstRate, cessRate            decimal.Decimal
			stock                                int
			isExempt                             bool
		)
		err := tx.QueryRow(ctx, `
			SELECT id, name, unit, price, stock, hsn_code, gst_rate, cess_rate, is_gst_exempt
			FROM products WHERE shop_id = $1 AND is_active = true AND lower(name) = lower($2)
			FOR UPDATE
		`, shopID, line.ProductName).Scan(&productID, &name, &unit, &price, &stock, &hsn, &gstRate, &cessRate, &isExempt)

		if err == pgx.ErrNoRows {
			row := tx.QueryRow(ctx, `
				INSERT INTO products (shop_id, name, unit, price, stock, gst_rate, cess_rate, is_gst_exempt, is_active)
				VALUES ($1, $2, 'pcs', 0, 9999, 0, 0, false, true)
				RETURNING id, name, unit, price, stock, hsn_code, gst_rate, cess_rate, is_gst_exempt
			`, shopID, line.ProductName)
			if err := row.Scan(&productID, &name, &unit, &price, &stock, &hsn, &gstRate, &cessRate, &isExempt); err != nil {
				return nil, fmt.Errorf("failed to auto-create product during confirm: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to lock product row: %w", err)
		}

		unitPrice := price
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}

		delta := line.Quantity.IntPart()
		if int64(stock)-delta < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, name)
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1`, productID, delta); err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}

		lr := gst.CalculateLineItem(gst.LineInput{
			ProductName: name,
			HSNCode:     hsn,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			GSTRate:     gstRate,
			CessRate:    cessRate,
			IsGSTExempt: isExempt,
		}, supply)
		results = append(results, lr)
		priced = append(priced, pricedLine{
			productID: productID, LineResult: lr, quantity: line.Quantity,
			unitPrice: unitPrice, hsn: hsn, unit: unit, gstRate: gstRate,
		})
	}

	totals := gst.Aggregate(results)
	now := time.Now()
	invoiceNo, err := generateInvoiceNo(ctx, tx, shopID, now)
	if err != nil {
		return nil, err
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (shop_id, invoice_no, customer_id, date, subtotal, cgst, sgst, igst, cess, total, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, shopID, invoiceNo, customerID, now,
		totals.Subtotal, totals.CGST, totals.SGST, totals.IGST, totals.Cess, totals.GrandTotal,
		InvoiceStatusPending, notes).Scan(&invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for _, pl := range priced {
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_items
				(invoice_id, product_id, product_name, unit, hsn_code, quantity, unit_price, gst_rate, cgst, sgst, igst, cess, subtotal, total)
			SELECT $1, id, name, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13 FROM products WHERE id = $2
		`, invoiceID, pl.productID, pl.unit, pl.hsn, pl.quantity, pl.unitPrice, pl.gstRate,
			pl.CGST, pl.SGST, pl.IGST, pl.Cess, pl.Subtotal, pl.Total)
		if err != nil {
			return nil, fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (customer_id, type, amount, description, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, customerID, EntryDebit, totals.GrandTotal, "invoice "+invoiceNo, invoiceNo, now); err != nil {
		return nil, fmt.Errorf("failed to post ledger entry: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE customers SET balance = balance + $2, total_purchases = total_purchases + $2, visit_count = visit_count + 1, last_visit = $3
		WHERE id = $1
	`, customerID, totals.GrandTotal, now); err != nil {
		return nil, fmt.Errorf("failed to update customer balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice transaction: %w", err)
	}

	s.invalidateBalanceCache(customerID)

	return &Invoice{
		ID: invoiceID, ShopID: shopID, InvoiceNo: invoiceNo, CustomerID: customerID, Date: now,
		Subtotal: totals.Subtotal.StringFixed(2), CGST: totals.CGST.StringFixed(2),
		SGST: totals.SGST.StringFixed(2), IGST: totals.IGST.StringFixed(2),
		Cess: totals.Cess.StringFixed(2), Total: totals.GrandTotal.StringFixed(2),
		Status: InvoiceStatusPending, Notes: notes,
	}, nil
}

// CancelInvoice reverses a pending invoice's ledger debit with a matching
// CREDIT entry and restores stock, rather than deleting the invoice. An
// already-cancelled invoice returns ErrAlreadyCancelled.
func (s *Store) CancelInvoice(ctx context.Context, invoiceID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var customerID int
	var total decimal.Decimal
	var status InvoiceStatus
	var invoiceNo string
	err = tx.QueryRow(ctx, `
		SELECT customer_id, total, status, invoice_no FROM invoices WHERE id = $1 FOR UPDATE
	`, invoiceID).Scan(&customerID, &total, &status, &invoiceNo)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to lock invoice: %w", err)
	}
	if status == InvoiceStatusCancelled {
		return ErrAlreadyCancelled
	}

	rows, err := tx.Query(ctx, `SELECT product_id, quantity FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to list invoice items: %w", err)
	}
	type restock struct {
		productID *int
		qty       decimal.Decimal
	}
	var restocks []restock
	for rows.Next() {
		var r restock
		if err := rows.Scan(&r.productID, &r.qty); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan invoice item: %w", err)
		}
		restocks = append(restocks, r)
	}
	rows.Close()

	for _, r := range restocks {
		if r.productID == nil {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, *r.productID, r.qty.IntPart()); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, invoiceID, InvoiceStatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel invoice: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (customer_id, type, amount, description, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, customerID, EntryCredit, total, "cancelled invoice "+invoiceNo, invoiceNo); err != nil {
		return fmt.Errorf("failed to post reversal ledger entry: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE customers SET balance = balance - $2 WHERE id = $1`, customerID, total); err != nil {
		return fmt.Errorf("failed to reverse customer balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.invalidateBalanceCache(customerID)
	return nil
}
