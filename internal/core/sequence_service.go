package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberingPolicy decides how the engine treats numbering gaps. The
// target fiscal regime leaves this open, so it is configuration, not a
// design decision.
type NumberingPolicy string

const (
	// GapTolerant accepts that a crash after commit can leave an
	// auditable gap in the stream.
	GapTolerant NumberingPolicy = "gap-tolerant"
	// Strict additionally refuses manual-number recovery into
	// automatic series.
	Strict NumberingPolicy = "strict"
)

// SequenceAllocator is the only authority for fiscal numbering. Every
// reservation happens inside the caller's certify transaction via a
// single atomic row update, so two concurrent certifications against
// the same (series, type) can never observe the same number, and an
// aborted certification rolls the counter back with the rest of the
// transaction.
type SequenceAllocator interface {
	// GetSeriesTx loads a series inside the caller's transaction.
	// Returns ErrSeriesUnavailable for unknown or inactive series.
	GetSeriesTx(ctx context.Context, tx pgx.Tx, seriesID int) (*DocumentSeries, error)
	// ReserveTx atomically advances and returns the counter for
	// (seriesID, typeCode). Never read-then-write.
	ReserveTx(ctx context.Context, tx pgx.Tx, seriesID int, typeCode string) (int64, error)
	// ListSeries returns all active series.
	ListSeries(ctx context.Context) ([]DocumentSeries, error)
	CreateSeries(ctx context.Context, name, code string, fiscalYear int, manual bool, userIDs []int) (*DocumentSeries, error)
}

type sequenceAllocator struct {
	pool *pgxpool.Pool
}

func NewSequenceAllocator(pool *pgxpool.Pool) SequenceAllocator {
	return &sequenceAllocator{pool: pool}
}

func (s *sequenceAllocator) GetSeriesTx(ctx context.Context, tx pgx.Tx, seriesID int) (*DocumentSeries, error) {
	var ds DocumentSeries
	err := tx.QueryRow(ctx, `
		SELECT id, name, code, fiscal_year, is_active, is_manual, created_at
		FROM document_series
		WHERE id = $1
	`, seriesID).Scan(&ds.ID, &ds.Name, &ds.Code, &ds.FiscalYear, &ds.IsActive, &ds.IsManual, &ds.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("series %d: %w", seriesID, ErrSeriesUnavailable)
		}
		return nil, fmt.Errorf("failed to fetch series %d: %w", seriesID, err)
	}
	if !ds.IsActive {
		return nil, fmt.Errorf("series %s/%d: %w", ds.Code, ds.FiscalYear, ErrSeriesUnavailable)
	}
	ds.UserIDs, err = seriesUsersTx(ctx, tx, ds.ID)
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

func seriesUsersTx(ctx context.Context, tx pgx.Tx, seriesID int) ([]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT user_id FROM series_users WHERE series_id = $1 ORDER BY user_id
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("failed to query series users: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan series user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReserveTx advances the per-(series, type) counter with a single
// conditional upsert. The returned integer is strictly greater than any
// previously returned value for the pair; the row update serializes
// concurrent callers.
func (s *sequenceAllocator) ReserveTx(ctx context.Context, tx pgx.Tx, seriesID int, typeCode string) (int64, error) {
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO series_sequences (series_id, type_code, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (series_id, type_code)
		DO UPDATE SET last_number = series_sequences.last_number + 1
		RETURNING last_number
	`, seriesID, typeCode).Scan(&lastNumber)
	if err != nil {
		return 0, fmt.Errorf("%w: series %d type %s: %v", ErrAllocationConflict, seriesID, typeCode, err)
	}
	return lastNumber, nil
}

// FormatNumber renders the legal fiscal number:
// "<type-code> <series-code> <year>/<sequence>".
func FormatNumber(typeCode string, series *DocumentSeries, sequence int64) string {
	return fmt.Sprintf("%s %s %d/%d", typeCode, series.Code, series.FiscalYear, sequence)
}

func (s *sequenceAllocator) ListSeries(ctx context.Context) ([]DocumentSeries, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, code, fiscal_year, is_active, is_manual, created_at
		FROM document_series
		WHERE is_active = true
		ORDER BY fiscal_year DESC, code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	var out []DocumentSeries
	for rows.Next() {
		var ds DocumentSeries
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Code, &ds.FiscalYear, &ds.IsActive, &ds.IsManual, &ds.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

func (s *sequenceAllocator) CreateSeries(ctx context.Context, name, code string, fiscalYear int, manual bool, userIDs []int) (*DocumentSeries, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ds DocumentSeries
	err = tx.QueryRow(ctx, `
		INSERT INTO document_series (name, code, fiscal_year, is_active, is_manual)
		VALUES ($1, $2, $3, true, $4)
		RETURNING id, name, code, fiscal_year, is_active, is_manual, created_at
	`, name, code, fiscalYear, manual).Scan(&ds.ID, &ds.Name, &ds.Code, &ds.FiscalYear, &ds.IsActive, &ds.IsManual, &ds.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create series: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO series_users (series_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, ds.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to add series user %d: %w", userID, err)
		}
		ds.UserIDs = append(ds.UserIDs, userID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit series: %w", err)
	}
	return &ds, nil
}
