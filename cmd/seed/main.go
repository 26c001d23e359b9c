// seed is a one-shot tool that bootstraps a fresh database with the
// master data a new installation needs: the current-year series, a main
// cash register and a walk-in client. Safe to re-run; existing rows are
// left alone.
//
// Usage: go run ./cmd/migrate && go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"fiscal-engine/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, mustDatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	year := time.Now().Year()

	log.Println("Seeding numbering series...")
	_, err = tx.Exec(ctx, `
		INSERT INTO document_series (name, code, fiscal_year, is_active, is_manual)
		VALUES ($1, 'A', $2, true, false)
		ON CONFLICT (code, fiscal_year) DO NOTHING;
	`, "Série Geral "+strconv.Itoa(year), year)
	if err != nil {
		log.Fatalf("Failed to seed series: %v", err)
	}

	log.Println("Seeding main cash register...")
	_, err = tx.Exec(ctx, `
		INSERT INTO cash_registers (name, status, balance)
		SELECT 'Caixa Principal', 'CLOSED', 0
		WHERE NOT EXISTS (SELECT 1 FROM cash_registers);
	`)
	if err != nil {
		log.Fatalf("Failed to seed register: %v", err)
	}

	log.Println("Seeding walk-in client...")
	_, err = tx.Exec(ctx, `
		INSERT INTO parties (kind, name, tax_id, address, balance)
		SELECT 'CLIENT', 'Consumidor Final', '999999999', '', 0
		WHERE NOT EXISTS (SELECT 1 FROM parties WHERE name = 'Consumidor Final');
	`)
	if err != nil {
		log.Fatalf("Failed to seed client: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed complete.")
}

func mustDatabaseURL() string {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal("DATABASE_URL not set")
	}
	return url
}
