package core_test

import (
	"context"
	"os"
	"testing"

	"fiscal-engine/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// setupTestDB connects to a dedicated test database, wipes the engine
// tables and seeds a minimal fixture: one automatic series, one manual
// series, one inactive series, a client, a supplier, one goods product
// with 15 on hand, one service product and an open cash register.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live one.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE stock_movements, cash_movements, party_transactions,
			document_lines, documents, series_sequences, document_series,
			products, cash_registers, parties RESTART IDENTITY CASCADE;

		INSERT INTO document_series (id, name, code, fiscal_year, is_active, is_manual) VALUES
		(1, 'Série Geral 2024', 'A', 2024, true, false),
		(2, 'Série Manual 2024', 'M', 2024, true, true),
		(3, 'Série Encerrada 2023', 'B', 2023, false, false);
		SELECT setval('document_series_id_seq', 3);

		INSERT INTO parties (id, kind, name, tax_id, email, phone, address, balance) VALUES
		(1, 'CLIENT', 'Construções Kifica Lda', '5417000110', '', '', 'Luanda', 0),
		(2, 'SUPPLIER', 'Importadora Benguela SA', '5402011223', '', '', 'Benguela', 0);
		SELECT setval('parties_id_seq', 2);

		INSERT INTO products (id, code, name, kind, unit_price, tax_rate, on_hand, is_active) VALUES
		(1, 'CIM50', 'Cimento 50kg', 'GOODS', 50000, 14, 15, true),
		(2, 'SRV01', 'Consultoria de obra', 'SERVICE', 250000, 14, 0, true);
		SELECT setval('products_id_seq', 2);

		INSERT INTO cash_registers (id, name, status, balance, opened_at) VALUES
		(1, 'Caixa Principal', 'OPEN', 0, NOW());
		SELECT setval('cash_registers_id_seq', 1);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

type engine struct {
	pool      *pgxpool.Pool
	docs      core.DocumentService
	cancel    core.CancellationEngine
	parties   core.PartyService
	stock     core.StockService
	registers core.RegisterService
	allocator core.SequenceAllocator
}

func newEngine(pool *pgxpool.Pool) *engine {
	log := zerolog.Nop()
	allocator := core.NewSequenceAllocator(pool)
	poster := core.NewLedgerPoster(pool)
	hasher := core.HashGenerator{}
	taxes := core.DefaultTaxPolicy()
	return &engine{
		pool:      pool,
		docs:      core.NewDocumentService(pool, allocator, hasher, poster, taxes, core.GapTolerant, log),
		cancel:    core.NewCancellationEngine(pool, allocator, hasher, poster, taxes, log),
		parties:   core.NewPartyService(pool),
		stock:     core.NewStockService(pool),
		registers: core.NewRegisterService(pool),
		allocator: allocator,
	}
}

func intPtr(v int) *int { return &v }

func mustBalance(t *testing.T, e *engine, partyID int) decimal.Decimal {
	t.Helper()
	p, err := e.parties.GetParty(context.Background(), partyID)
	if err != nil {
		t.Fatalf("GetParty(%d): %v", partyID, err)
	}
	return p.Balance
}

func mustOnHand(t *testing.T, e *engine, productID int) decimal.Decimal {
	t.Helper()
	p, err := e.stock.GetProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("GetProduct(%d): %v", productID, err)
	}
	return p.OnHand
}

func saveDraft(t *testing.T, e *engine, doc *core.Document) *core.Document {
	t.Helper()
	saved, err := e.docs.SaveDraft(context.Background(), doc)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	return saved
}

func invoiceDraft() *core.Document {
	return &core.Document{
		TypeCode:  core.TypeInvoice,
		SeriesID:  1,
		IssueDate: "2024-03-02",
		PartyID:   1,
		Currency:  "AOA",
		Lines: []core.LineItem{{
			ProductID:   intPtr(2),
			Description: "Consultoria de obra",
			Kind:        core.LineService,
			Quantity:    d("1"),
			UnitPrice:   d("250000"),
			TaxRate:     d("14"),
		}},
	}
}

func cashSaleDraft(qty string) *core.Document {
	method := "NUMERARIO"
	return &core.Document{
		TypeCode:      core.TypeCashSale,
		SeriesID:      1,
		IssueDate:     "2024-03-02",
		PartyID:       1,
		Currency:      "AOA",
		PaymentMethod: &method,
		RegisterID:    intPtr(1),
		Lines: []core.LineItem{{
			ProductID:   intPtr(1),
			Description: "Cimento 50kg",
			Kind:        core.LineGoods,
			Quantity:    d(qty),
			UnitPrice:   d("50000"),
			TaxRate:     d("14"),
		}},
	}
}
