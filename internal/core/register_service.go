package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterService manages cash registers. Balance changes come from
// certified cash-settling documents via the LedgerPoster; this service
// only opens, closes and reads.
type RegisterService interface {
	CreateRegister(ctx context.Context, name string) (*CashRegister, error)
	GetRegister(ctx context.Context, registerID int) (*CashRegister, error)
	ListRegisters(ctx context.Context) ([]CashRegister, error)
	OpenRegister(ctx context.Context, registerID int) (*CashRegister, error)
	CloseRegister(ctx context.Context, registerID int) (*CashRegister, error)
	Movements(ctx context.Context, registerID int) ([]CashMovement, error)
}

type registerService struct {
	pool *pgxpool.Pool
}

func NewRegisterService(pool *pgxpool.Pool) RegisterService {
	return &registerService{pool: pool}
}

const registerColumns = "id, name, status, balance, opened_at, closed_at, created_at"

func scanRegister(row pgxRow, r *CashRegister) error {
	var status string
	if err := row.Scan(&r.ID, &r.Name, &status, &r.Balance, &r.OpenedAt, &r.ClosedAt, &r.CreatedAt); err != nil {
		return err
	}
	r.Status = RegisterStatus(status)
	return nil
}

func (s *registerService) CreateRegister(ctx context.Context, name string) (*CashRegister, error) {
	if name == "" {
		return nil, validationf("name", "register name is required")
	}
	var r CashRegister
	err := scanRegister(s.pool.QueryRow(ctx, `
		INSERT INTO cash_registers (name, status, balance)
		VALUES ($1, $2, 0)
		RETURNING `+registerColumns,
		name, string(RegisterClosed)), &r)
	if err != nil {
		return nil, fmt.Errorf("failed to create register: %w", err)
	}
	return &r, nil
}

func (s *registerService) GetRegister(ctx context.Context, registerID int) (*CashRegister, error) {
	var r CashRegister
	err := scanRegister(s.pool.QueryRow(ctx,
		"SELECT "+registerColumns+" FROM cash_registers WHERE id = $1", registerID), &r)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("register %d not found", registerID)
		}
		return nil, fmt.Errorf("failed to fetch register %d: %w", registerID, err)
	}
	return &r, nil
}

func (s *registerService) ListRegisters(ctx context.Context) ([]CashRegister, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+registerColumns+" FROM cash_registers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query registers: %w", err)
	}
	defer rows.Close()

	var registers []CashRegister
	for rows.Next() {
		var r CashRegister
		if err := scanRegister(rows, &r); err != nil {
			return nil, fmt.Errorf("failed to scan register: %w", err)
		}
		registers = append(registers, r)
	}
	return registers, rows.Err()
}

func (s *registerService) OpenRegister(ctx context.Context, registerID int) (*CashRegister, error) {
	return s.setStatus(ctx, registerID, RegisterClosed, RegisterOpen,
		"UPDATE cash_registers SET status = $1, opened_at = NOW(), closed_at = NULL WHERE id = $2")
}

func (s *registerService) CloseRegister(ctx context.Context, registerID int) (*CashRegister, error) {
	return s.setStatus(ctx, registerID, RegisterOpen, RegisterClosed,
		"UPDATE cash_registers SET status = $1, closed_at = NOW() WHERE id = $2")
}

func (s *registerService) setStatus(ctx context.Context, registerID int, from, to RegisterStatus, update string) (*CashRegister, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM cash_registers WHERE id = $1 FOR UPDATE", registerID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("register %d not found", registerID)
		}
		return nil, fmt.Errorf("failed to lock register %d: %w", registerID, err)
	}
	if RegisterStatus(status) != from {
		return nil, validationf("status", "register %d is %s, must be %s", registerID, status, from)
	}

	if _, err := tx.Exec(ctx, update, string(to), registerID); err != nil {
		return nil, fmt.Errorf("failed to update register %d: %w", registerID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit register update: %w", err)
	}
	return s.GetRegister(ctx, registerID)
}

func (s *registerService) Movements(ctx context.Context, registerID int) ([]CashMovement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, register_id, movement_date, description, document_id, amount
		FROM cash_movements
		WHERE register_id = $1
		ORDER BY id
	`, registerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash movements: %w", err)
	}
	defer rows.Close()

	var movements []CashMovement
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.ID, &m.RegisterID, &m.MovementDate, &m.Description, &m.DocumentID, &m.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan cash movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
