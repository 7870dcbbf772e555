package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"dukaan-agent/internal/fuzzy"
)

// CustomerMatch is a ranked search result, carrying the score the caller used
// to produce the ranking (exact name, phone substring, fuzzy, ...).
type CustomerMatch struct {
	Customer   Customer
	MatchScore float64
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	var balance, totalPurchases decimal.Decimal
	err := row.Scan(
		&c.ID, &c.ShopID, &c.Name, &c.Phone, &c.Nickname, &c.Landmark, &c.Email, &c.GSTIN,
		&balance, &totalPurchases, &c.VisitCount, &c.LastVisit, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return Customer{}, err
	}
	c.Balance = balance.StringFixed(2)
	c.TotalPurchases = totalPurchases.StringFixed(2)
	return c, nil
}

const customerColumns = `id, shop_id, name, phone, nickname, landmark, email, gstin, balance, total_purchases, visit_count, last_visit, is_active, created_at`

// CreateCustomer inserts a new customer, rejecting a case-insensitive duplicate
// name within the shop with ErrConflict.
func (s *Store) CreateCustomer(ctx context.Context, shopID, name, phone, nickname, landmark string) (*Customer, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM customers WHERE shop_id = $1 AND lower(name) = lower($2))
	`, shopID, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate customer: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO customers (shop_id, name, phone, nickname, landmark, balance, total_purchases, visit_count, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, 0, true, NOW())
		RETURNING `+customerColumns, shopID, name, phone, nickname, landmark)

	c, err := scanCustomer(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &c, nil
}

// FindSimilarCustomers runs Levenshtein-based fuzzy matching over the first 100
// customers of the shop, used for duplicate-creation detection.
func (s *Store) FindSimilarCustomers(ctx context.Context, shopID, name string, threshold float64) ([]CustomerMatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers WHERE shop_id = $1 AND is_active = true
		ORDER BY id LIMIT 100
	`, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []CustomerMatch
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		if m := fuzzy.MatchIndianName(name, c.Name, threshold); m != nil {
			out = append(out, CustomerMatch{Customer: c, MatchScore: m.Score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

// CreateCustomerFastResult is returned by CreateCustomerFast; when DuplicateFound
// is true the caller should ask the shopkeeper to confirm before retrying.
type CreateCustomerFastResult struct {
	Success        bool
	DuplicateFound bool
	Suggestions    []CustomerMatch
	Customer       *Customer
}

// CreateCustomerFast creates a customer unless a near-duplicate name (threshold
// 0.85) already exists, in which case it returns suggestions instead.
func (s *Store) CreateCustomerFast(ctx context.Context, shopID, name, phone, nickname, landmark string) (*CreateCustomerFastResult, error) {
	similar, err := s.FindSimilarCustomers(ctx, shopID, name, 0.85)
	if err != nil {
		return nil, err
	}
	if len(similar) > 0 {
		return &CreateCustomerFastResult{DuplicateFound: true, Suggestions: similar}, nil
	}

	c, err := s.CreateCustomer(ctx, shopID, name, phone, nickname, landmark)
	if err != nil {
		return nil, err
	}
	return &CreateCustomerFastResult{Success: true, Customer: c}, nil
}

// SearchCustomer ranks customers against a free-text query per the scoring
// table in §4.D, returning at most the top 10.
func (s *Store) SearchCustomer(ctx context.Context, shopID, query string) ([]CustomerMatch, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE shop_id = $1 AND is_active = true`, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	var out []CustomerMatch
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		score := rankCustomer(c, lowerQuery)
		if score > 0 {
			out = append(out, CustomerMatch{Customer: c, MatchScore: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	if len(out) > 10 {
		out = out[:10]
	}
	return out, nil
}

// rankCustomer scores one customer against a lowercased query, taking the max
// across phone/name/nickname/landmark/fuzzy candidates per §4.D.
func rankCustomer(c Customer, lowerQuery string) float64 {
	var best float64

	if lowerQuery == "" {
		return 0
	}

	lowerName := strings.ToLower(c.Name)
	if lowerName == lowerQuery {
		return 1.0
	}
	if strings.Contains(lowerName, lowerQuery) {
		bonus := 0.8
		if m := fuzzy.MatchIndianName(lowerQuery, lowerName, 0.0); m != nil {
			bonus = 0.8 + 0.15*m.Score
			if bonus > 0.95 {
				bonus = 0.95
			}
		}
		best = max(best, bonus)
	}

	if c.Phone != "" && strings.Contains(c.Phone, lowerQuery) {
		best = max(best, 0.95)
	}

	lowerNick := strings.ToLower(c.Nickname)
	if lowerNick != "" {
		if lowerNick == lowerQuery {
			best = max(best, 0.9)
		} else if strings.Contains(lowerNick, lowerQuery) {
			best = max(best, 0.7)
		}
	}

	if strings.Contains(strings.ToLower(c.Landmark), lowerQuery) && c.Landmark != "" {
		best = max(best, 0.6)
	}

	if m := fuzzy.MatchIndianName(lowerQuery, lowerName, 0.0); m != nil {
		fuzzyScore := m.Score * 0.75
		best = max(best, fuzzyScore)
	}

	return best
}

// GetBalance reads a customer's current balance directly from the database.
func (s *Store) GetBalance(ctx context.Context, customerID int) (string, error) {
	var balance decimal.Decimal
	err := s.pool.QueryRow(ctx, `SELECT balance FROM customers WHERE id = $1`, customerID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrCustomerNotFound
		}
		return "", fmt.Errorf("failed to read balance: %w", err)
	}
	return balance.StringFixed(2), nil
}

// GetBalanceFast is GetBalance with a 30-second in-process cache. Any mutation
// that changes a customer's balance must call invalidateBalanceCache.
func (s *Store) GetBalanceFast(ctx context.Context, customerID int) (string, error) {
	s.balanceCacheMu.Lock()
	entry, ok := s.balanceCache[customerID]
	s.balanceCacheMu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.balance, nil
	}

	balance, err := s.GetBalance(ctx, customerID)
	if err != nil {
		return "", err
	}

	s.balanceCacheMu.Lock()
	s.balanceCache[customerID] = balanceCacheEntry{balance: balance, expiresAt: time.Now().Add(balanceCacheTTL)}
	s.balanceCacheMu.Unlock()
	return balance, nil
}

// GetTotalPendingAmount sums balances over all customers with balance > 0.
func (s *Store) GetTotalPendingAmount(ctx context.Context, shopID string) (string, error) {
	var total decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM customers WHERE shop_id = $1 AND balance > 0
	`, shopID).Scan(&total)
	if err != nil {
		return "", fmt.Errorf("failed to sum pending balances: %w", err)
	}
	return total.StringFixed(2), nil
}

// GetAllCustomersWithPendingBalance lists customers with balance > 0, highest first.
func (s *Store) GetAllCustomersWithPendingBalance(ctx context.Context, shopID string) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE shop_id = $1 AND balance > 0
		ORDER BY balance DESC
	`, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// GetCustomer fetches a single customer by ID.
func (s *Store) GetCustomer(ctx context.Context, customerID int) (*Customer, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, customerID)
	c, err := scanCustomer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return &c, nil
}

// CustomerUpdate carries optional fields for UpdateCustomer; nil means "leave unchanged".
type CustomerUpdate struct {
	Phone    *string
	Email    *string
	Nickname *string
	Landmark *string
	GSTIN    *string
}

// UpdateCustomer persists the non-nil fields of upd and returns the re-read
// customer. It touches no cache; callers that cache customers drop their own.
func (s *Store) UpdateCustomer(ctx context.Context, customerID int, upd CustomerUpdate) (*Customer, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE customers SET
			phone    = COALESCE($2, phone),
			email    = COALESCE($3, email),
			nickname = COALESCE($4, nickname),
			landmark = COALESCE($5, landmark),
			gstin    = COALESCE($6, gstin)
		WHERE id = $1
	`, customerID, upd.Phone, upd.Email, upd.Nickname, upd.Landmark, upd.GSTIN)
	if err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return s.GetCustomer(ctx, customerID)
}

// ReconcileBalance recomputes a customer's balance from their ledger entries and
// returns the stored vs. recomputed values. It is the only sanctioned way to
// recompute balance from source (§3) and is never invoked automatically.
type ReconciliationReport struct {
	CustomerID int
	Stored     string
	Recomputed string
	Discrepant bool
}

func (s *Store) ReconcileBalance(ctx context.Context, customerID int) (*ReconciliationReport, error) {
	var stored decimal.Decimal
	err := s.pool.QueryRow(ctx, `SELECT balance FROM customers WHERE id = $1`, customerID).Scan(&stored)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to read stored balance: %w", err)
	}

	var recomputed decimal.Decimal
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type IN ('DEBIT','OPENING_BALANCE') THEN amount ELSE -amount END), 0)
		FROM ledger_entries WHERE customer_id = $1
	`, customerID).Scan(&recomputed)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute balance from ledger: %w", err)
	}

	return &ReconciliationReport{
		CustomerID: customerID,
		Stored:     stored.StringFixed(2),
		Recomputed: recomputed.StringFixed(2),
		Discrepant: !stored.Equal(recomputed),
	}, nil
}

// DeleteCustomerAndAllData cascades a delete across invoices (and their items),
// payments, ledger entries, and reminders, then the customer row. Returns a
// per-table count of rows deleted. The customer row is locked first (FOR UPDATE)
// to serialise concurrent deletes.
type DeletionCounts struct {
	Invoices     int
	InvoiceItems int
	Payments     int
	LedgerEntries int
	Reminders    int
}

func (s *Store) DeleteCustomerAndAllData(ctx context.Context, customerID int, removeJob func(externalJobID string) error) (*DeletionCounts, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 FOR UPDATE)`, customerID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to lock customer row: %w", err)
	}
	if !exists {
		return nil, ErrCustomerNotFound
	}

	var counts DeletionCounts

	rows, err := tx.Query(ctx, `SELECT external_job_id FROM reminders WHERE customer_id = $1 AND external_job_id IS NOT NULL AND external_job_id != ''`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	var jobIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan reminder job id: %w", err)
		}
		jobIDs = append(jobIDs, id)
	}
	rows.Close()

	if tag, err := tx.Exec(ctx, `
		DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE customer_id = $1)
	`, customerID); err != nil {
		return nil, fmt.Errorf("failed to delete invoice items: %w", err)
	} else {
		counts.InvoiceItems = int(tag.RowsAffected())
	}

	if tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE customer_id = $1`, customerID); err != nil {
		return nil, fmt.Errorf("failed to delete invoices: %w", err)
	} else {
		counts.Invoices = int(tag.RowsAffected())
	}

	if tag, err := tx.Exec(ctx, `DELETE FROM payments WHERE customer_id = $1`, customerID); err != nil {
		return nil, fmt.Errorf("failed to delete payments: %w", err)
	} else {
		counts.Payments = int(tag.RowsAffected())
	}

	if tag, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE customer_id = $1`, customerID); err != nil {
		return nil, fmt.Errorf("failed to delete ledger entries: %w", err)
	} else {
		counts.LedgerEntries = int(tag.RowsAffected())
	}

	if tag, err := tx.Exec(ctx, `DELETE FROM reminders WHERE customer_id = $1`, customerID); err != nil {
		return nil, fmt.Errorf("failed to delete reminders: %w", err)
	} else {
		counts.Reminders = int(tag.RowsAffected())
	}

	if _, err := tx.Exec(ctx, `DELETE FROM customers WHERE id = $1`, customerID); err != nil {
		return nil, fmt.Errorf("failed to delete customer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit deletion transaction: %w", err)
	}

	s.invalidateBalanceCache(customerID)

	if removeJob != nil {
		for _, id := range jobIDs {
			_ = removeJob(id) // best-effort; the DB rows are already gone
		}
	}

	return &counts, nil
}
