// restore-seed loads a small set of demo customers and products for one shop
// so the repl and the REST reporting endpoints have something to show
// against a freshly migrated, otherwise-empty database.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"dukaan-agent/internal/config"
	"dukaan-agent/internal/db"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Printf("Seeding demo customers for shop %s...", cfg.ShopID)
	_, err = tx.Exec(ctx, `
		INSERT INTO customers (shop_id, name, phone, nickname, landmark, balance, total_purchases, visit_count, is_active)
		VALUES
		  ($1, 'Rahul Sharma',   '9876500001', 'Rahul bhai', 'Near bus stand',  0, 0, 0, true),
		  ($1, 'Sunita Devi',    '9876500002', 'Sunita ji',  'Opposite temple', 0, 0, 0, true),
		  ($1, 'Bharat Traders', '9876500003', '',           'Market road',    0, 0, 0, true)
		ON CONFLICT (shop_id, lower(name)) WHERE is_active DO NOTHING;
	`, cfg.ShopID)
	if err != nil {
		log.Fatalf("Failed to seed customers: %v", err)
	}

	log.Println("Seeding demo products...")
	_, err = tx.Exec(ctx, `
		INSERT INTO products (shop_id, name, unit, price, stock, hsn_code, gst_rate, cess_rate, is_gst_exempt, is_active)
		SELECT $1, v.name, v.unit, v.price, v.stock, v.hsn_code, v.gst_rate, v.cess_rate, v.is_gst_exempt, true
		FROM (VALUES
		  ('Chini',          'kg',  45.00::numeric,  200, '1701', 0::numeric,  0::numeric, true),
		  ('Maggi',          'pcs', 14.00,  500, '1902', 12, 0, false),
		  ('Parle-G',        'pcs', 10.00,  800, '1905', 18, 0, false),
		  ('Amul Milk 500ml','pcs', 28.00,  150, '0401', 0,  0, true),
		  ('Surf Excel 1kg', 'pcs', 120.00,  80, '3402', 18, 0, false)
		) AS v(name, unit, price, stock, hsn_code, gst_rate, cess_rate, is_gst_exempt)
		WHERE NOT EXISTS (
		  SELECT 1 FROM products p WHERE p.shop_id = $1 AND lower(p.name) = lower(v.name) AND p.is_active
		);
	`, cfg.ShopID)
	if err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data restored successfully.")
	os.Exit(0)
}
