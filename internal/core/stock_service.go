package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService manages products and explicit goods receipts. Sale-side
// quantity changes happen only through the LedgerPoster when a
// document certifies; ReceiveStock covers the purchasing/restocking
// entry point so every on-hand change has a movement row.
type StockService interface {
	CreateProduct(ctx context.Context, code, name string, kind LineKind, unitPrice, taxRate decimal.Decimal) (*Product, error)
	GetProduct(ctx context.Context, productID int) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	// ReceiveStock records an explicit goods entry (initial load or
	// purchase receipt without a purchase document).
	ReceiveStock(ctx context.Context, productID int, qty decimal.Decimal, note string) (*Product, error)
	Movements(ctx context.Context, productID int) ([]StockMovement, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

const productColumns = "id, code, name, kind, unit_price, tax_rate, on_hand, is_active, created_at"

func scanProduct(row pgxRow, p *Product) error {
	var kind string
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &kind, &p.UnitPrice, &p.TaxRate, &p.OnHand, &p.IsActive, &p.CreatedAt); err != nil {
		return err
	}
	p.Kind = LineKind(kind)
	return nil
}

func (s *stockService) CreateProduct(ctx context.Context, code, name string, kind LineKind, unitPrice, taxRate decimal.Decimal) (*Product, error) {
	if code == "" || name == "" {
		return nil, validationf("product", "code and name are required")
	}
	if kind != LineGoods && kind != LineService {
		return nil, validationf("kind", "classification must be GOODS or SERVICE, got %q", kind)
	}

	var p Product
	err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (code, name, kind, unit_price, tax_rate, on_hand, is_active)
		VALUES ($1, $2, $3, $4, $5, 0, true)
		RETURNING `+productColumns,
		code, name, string(kind), unitPrice, taxRate), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

func (s *stockService) GetProduct(ctx context.Context, productID int) (*Product, error) {
	var p Product
	err := scanProduct(s.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1", productID), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}
	return &p, nil
}

func (s *stockService) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active = true ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *stockService) ReceiveStock(ctx context.Context, productID int, qty decimal.Decimal, note string) (*Product, error) {
	if qty.IsZero() || qty.IsNegative() {
		return nil, validationf("quantity", "receive quantity must be positive, got %s", qty)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var onHand decimal.Decimal
	var kind string
	err = tx.QueryRow(ctx, "SELECT on_hand, kind FROM products WHERE id = $1 FOR UPDATE", productID).Scan(&onHand, &kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d not found", productID)
		}
		return nil, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}
	if LineKind(kind) != LineGoods {
		return nil, validationf("kind", "product %d is a service, it has no stock", productID)
	}

	if _, err := tx.Exec(ctx, "UPDATE products SET on_hand = $1 WHERE id = $2", onHand.Add(qty), productID); err != nil {
		return nil, fmt.Errorf("failed to update product %d quantity: %w", productID, err)
	}

	if note == "" {
		note = "Entrada de stock"
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO stock_movements (product_id, movement_type, quantity, description, movement_date)
		VALUES ($1, $2, $3, $4, $5::date)
	`, productID, string(StockEntry), qty, note, time.Now().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to append stock movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock receipt: %w", err)
	}
	return s.GetProduct(ctx, productID)
}

func (s *stockService) Movements(ctx context.Context, productID int) ([]StockMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, movement_type, quantity, document_id, description, movement_date
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	var movements []StockMovement
	for rows.Next() {
		var m StockMovement
		var movementType string
		if err := rows.Scan(&m.ID, &m.ProductID, &movementType, &m.Quantity, &m.DocumentID, &m.Description, &m.MovementDate); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		m.MovementType = StockMovementType(movementType)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
