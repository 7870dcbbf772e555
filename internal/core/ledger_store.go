package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RecordPayment posts a CREDIT ledger entry against a customer's balance and
// inserts a Payment row, inside one transaction.
func (s *Store) RecordPayment(ctx context.Context, customerID int, amount decimal.Decimal, method PaymentMethod) (*Payment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 FOR UPDATE)`, customerID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to lock customer: %w", err)
	}
	if !exists {
		return nil, ErrCustomerNotFound
	}

	now := time.Now()
	var paymentID int
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (customer_id, amount, method, status, received_at)
		VALUES ($1, $2, $3, 'completed', $4)
		RETURNING id
	`, customerID, amount, method, now).Scan(&paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (customer_id, type, amount, description, payment_mode, created_at)
		VALUES ($1, $2, $3, 'payment received', $4, $5)
	`, customerID, EntryCredit, amount, string(method), now); err != nil {
		return nil, fmt.Errorf("failed to post payment ledger entry: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE customers SET balance = balance - $2 WHERE id = $1`, customerID, amount); err != nil {
		return nil, fmt.Errorf("failed to update customer balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment transaction: %w", err)
	}

	s.invalidateBalanceCache(customerID)

	return &Payment{ID: paymentID, CustomerID: customerID, Amount: amount.StringFixed(2), Method: method, Status: "completed", ReceivedAt: now}, nil
}

// AddCredit posts an OPENING_BALANCE debit (for a shopkeeper-entered carried-over
// balance) or an ad hoc adjustment; positive amount increases what the customer
// owes.
func (s *Store) AddCredit(ctx context.Context, customerID int, amount decimal.Decimal, description string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 FOR UPDATE)`, customerID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to lock customer: %w", err)
	}
	if !exists {
		return ErrCustomerNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (customer_id, type, amount, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, customerID, EntryOpeningBalance, amount, description); err != nil {
		return fmt.Errorf("failed to post opening balance entry: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE customers SET balance = balance + $2 WHERE id = $1`, customerID, amount); err != nil {
		return fmt.Errorf("failed to update customer balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit credit transaction: %w", err)
	}

	s.invalidateBalanceCache(customerID)
	return nil
}

// ListLedgerEntries returns a customer's ledger history, newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, customerID int, limit int) ([]LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, customer_id, type, amount, description, COALESCE(reference, ''), COALESCE(payment_mode, ''), created_at
		FROM ledger_entries WHERE customer_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		var amount decimal.Decimal
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Type, &amount, &e.Description, &e.Reference, &e.PaymentMode, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Amount = amount.StringFixed(2)
		out = append(out, e)
	}
	return out, nil
}
