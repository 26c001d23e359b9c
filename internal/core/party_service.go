package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PartyService manages clients and suppliers and exposes their
// subsidiary ledgers. Balances are never written here: only the
// LedgerPoster moves them, as a consequence of certified documents.
type PartyService interface {
	CreateParty(ctx context.Context, kind PartyKind, name, taxID, email, phone, address string) (*Party, error)
	GetParty(ctx context.Context, partyID int) (*Party, error)
	ListParties(ctx context.Context, kind PartyKind) ([]Party, error)
	// Statement returns the party's ledger in entry order with a
	// running balance check against the stored balance.
	Statement(ctx context.Context, partyID int) (*PartyStatement, error)
}

// PartyStatement is a party's subsidiary ledger plus the stored
// balance it must reconcile to.
type PartyStatement struct {
	Party        Party              `json:"party"`
	Transactions []PartyTransaction `json:"transactions"`
	RunningTotal decimal.Decimal    `json:"running_total"`
}

type partyService struct {
	pool *pgxpool.Pool
}

func NewPartyService(pool *pgxpool.Pool) PartyService {
	return &partyService{pool: pool}
}

func (s *partyService) CreateParty(ctx context.Context, kind PartyKind, name, taxID, email, phone, address string) (*Party, error) {
	if name == "" {
		return nil, validationf("name", "party name is required")
	}
	var p Party
	err := s.pool.QueryRow(ctx, `
		INSERT INTO parties (kind, name, tax_id, email, phone, address, balance)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id, kind, name, tax_id, email, phone, address, balance, created_at
	`, string(kind), name, taxID, email, phone, address).Scan(
		&p.ID, &p.Kind, &p.Name, &p.TaxID, &p.Email, &p.Phone, &p.Address, &p.Balance, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create party: %w", err)
	}
	return &p, nil
}

func (s *partyService) GetParty(ctx context.Context, partyID int) (*Party, error) {
	var p Party
	err := s.pool.QueryRow(ctx, `
		SELECT id, kind, name, tax_id, email, phone, address, balance, created_at
		FROM parties
		WHERE id = $1
	`, partyID).Scan(&p.ID, &p.Kind, &p.Name, &p.TaxID, &p.Email, &p.Phone, &p.Address, &p.Balance, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("party %d not found", partyID)
		}
		return nil, fmt.Errorf("failed to fetch party %d: %w", partyID, err)
	}
	return &p, nil
}

func (s *partyService) ListParties(ctx context.Context, kind PartyKind) ([]Party, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, name, tax_id, email, phone, address, balance, created_at
		FROM parties
		WHERE kind = $1
		ORDER BY name
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query parties: %w", err)
	}
	defer rows.Close()

	var parties []Party
	for rows.Next() {
		var p Party
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name, &p.TaxID, &p.Email, &p.Phone, &p.Address, &p.Balance, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan party: %w", err)
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

func (s *partyService) Statement(ctx context.Context, partyID int) (*PartyStatement, error) {
	party, err := s.GetParty(ctx, partyID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, party_id, entry_date, direction, description, document_id, document_number, amount
		FROM party_transactions
		WHERE party_id = $1
		ORDER BY id
	`, partyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query party transactions: %w", err)
	}
	defer rows.Close()

	st := &PartyStatement{Party: *party}
	for rows.Next() {
		var t PartyTransaction
		var direction string
		if err := rows.Scan(&t.ID, &t.PartyID, &t.EntryDate, &direction, &t.Description,
			&t.DocumentID, &t.DocumentNumber, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan party transaction: %w", err)
		}
		t.Direction = EntryDirection(direction)
		if t.Direction == DirectionDebit {
			st.RunningTotal = st.RunningTotal.Add(t.Amount)
		} else {
			st.RunningTotal = st.RunningTotal.Sub(t.Amount)
		}
		st.Transactions = append(st.Transactions, t)
	}
	return st, rows.Err()
}
