package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, shop_id, name, unit, price, stock, hsn_code, gst_rate, cess_rate, is_gst_exempt, is_active`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var price, gstRate, cessRate decimal.Decimal
	err := row.Scan(&p.ID, &p.ShopID, &p.Name, &p.Unit, &price, &p.Stock, &p.HSNCode, &gstRate, &cessRate, &p.IsGSTExempt, &p.IsActive)
	if err != nil {
		return Product{}, err
	}
	p.Price = price.StringFixed(2)
	p.GSTRate = gstRate.StringFixed(2)
	p.CessRate = cessRate.StringFixed(2)
	return p, nil
}

// FindProduct looks up a product by case-insensitive exact name, then by
// case-insensitive substring if no exact match exists.
func (s *Store) FindProduct(ctx context.Context, shopID, name string) (*Product, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE shop_id = $1 AND is_active = true AND lower(name) = lower($2)
		LIMIT 1
	`, shopID, name)
	p, err := scanProduct(row)
	if err == nil {
		return &p, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to look up product by exact name: %w", err)
	}

	row = s.pool.QueryRow(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE shop_id = $1 AND is_active = true AND lower(name) LIKE '%' || lower($2) || '%'
		ORDER BY length(name) ASC
		LIMIT 1
	`, shopID, name)
	p, err = scanProduct(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to look up product by substring: %w", err)
	}
	return &p, nil
}

// CreatePlaceholderProduct auto-creates a zero-priced product with effectively
// unlimited stock so an invoice preview can proceed when the shopkeeper names an
// item that isn't in the catalogue yet. The caller must surface IsAutoCreated to
// the shopkeeper so they can correct the price before confirming.
func (s *Store) CreatePlaceholderProduct(ctx context.Context, shopID, name, unit string) (*Product, error) {
	if unit == "" {
		unit = "pcs"
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (shop_id, name, unit, price, stock, gst_rate, cess_rate, is_gst_exempt, is_active)
		VALUES ($1, $2, $3, 0, 9999, 0, 0, false, true)
		RETURNING `+productColumns, shopID, strings.TrimSpace(name), unit)
	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create placeholder product: %w", err)
	}
	p.IsAutoCreated = true
	return &p, nil
}

// AdjustStock decrements (positive qty) or restores (negative qty) a product's
// stock, failing with ErrInsufficientStock if the decrement would go negative.
// Must be called inside the same transaction as the invoice write it backs.
func (s *Store) AdjustStock(ctx context.Context, tx pgx.Tx, productID int, qty decimal.Decimal) error {
	var stock int
	err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&stock)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to lock product stock: %w", err)
	}

	delta := qty.IntPart()
	if int64(stock)-delta < 0 {
		return ErrInsufficientStock
	}

	_, err = tx.Exec(ctx, `UPDATE products SET stock = stock - $2 WHERE id = $1`, productID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	return nil
}

// ListProducts returns all active products for a shop, alphabetically.
func (s *Store) ListProducts(ctx context.Context, shopID string) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE shop_id = $1 AND is_active = true ORDER BY name
	`, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateProductPrice sets a product's unit price, used when the shopkeeper
// corrects an auto-created placeholder.
func (s *Store) UpdateProductPrice(ctx context.Context, productID int, price decimal.Decimal) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET price = $2 WHERE id = $1`, productID, price)
	if err != nil {
		return fmt.Errorf("failed to update product price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
