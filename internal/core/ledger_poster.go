package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerPoster applies the financial side-effects of a newly certified
// document: party subsidiary-ledger entries, cash-register balance
// changes and stock movements. It runs once per document, inside the
// certify transaction, so either every posting lands or none does —
// a rejected leg rolls back the certification itself.
type LedgerPoster interface {
	PostTx(ctx context.Context, tx pgx.Tx, doc *Document) error
}

type ledgerPoster struct {
	pool *pgxpool.Pool
}

func NewLedgerPoster(pool *pgxpool.Pool) LedgerPoster {
	return &ledgerPoster{pool: pool}
}

func (p *ledgerPoster) PostTx(ctx context.Context, tx pgx.Tx, doc *Document) error {
	policy, ok := PolicyFor(doc.TypeCode)
	if !ok {
		return fmt.Errorf("%w: unknown document type %q", ErrLedgerPosting, doc.TypeCode)
	}

	if err := p.postParty(ctx, tx, doc, policy); err != nil {
		return fmt.Errorf("%w: party ledger: %v", ErrLedgerPosting, err)
	}
	if err := p.postCash(ctx, tx, doc, policy); err != nil {
		return fmt.Errorf("%w: cash register: %v", ErrLedgerPosting, err)
	}
	if err := p.postStock(ctx, tx, doc, policy); err != nil {
		return fmt.Errorf("%w: stock: %v", ErrLedgerPosting, err)
	}
	return nil
}

// postParty appends the subsidiary-ledger movement(s) and adjusts the
// party balance under a row lock. Invoice-receipt posts a DEBIT for the
// sale and an offsetting CREDIT for the payment: net zero, both
// auditable.
func (p *ledgerPoster) postParty(ctx context.Context, tx pgx.Tx, doc *Document, policy DocTypePolicy) error {
	if policy.Ledger == EffectNone {
		return nil
	}

	var balance decimal.Decimal
	err := tx.QueryRow(ctx,
		"SELECT balance FROM parties WHERE id = $1 FOR UPDATE",
		doc.PartyID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("party %d not found", doc.PartyID)
		}
		return fmt.Errorf("failed to lock party %d: %w", doc.PartyID, err)
	}

	type movement struct {
		direction   EntryDirection
		description string
	}
	var movements []movement
	switch policy.Ledger {
	case EffectDebit:
		movements = []movement{{DirectionDebit, policy.Name + " " + doc.Number}}
	case EffectCredit:
		movements = []movement{{DirectionCredit, policy.Name + " " + doc.Number}}
	case EffectBoth:
		movements = []movement{
			{DirectionDebit, policy.Name + " " + doc.Number},
			{DirectionCredit, "Liquidação " + doc.Number},
		}
	}

	for _, m := range movements {
		signed := doc.Total
		if m.direction == DirectionCredit {
			signed = doc.Total.Neg()
		}
		balance = balance.Add(signed)

		_, err = tx.Exec(ctx, `
			INSERT INTO party_transactions (party_id, entry_date, direction, description, document_id, document_number, amount)
			VALUES ($1, $2::date, $3, $4, $5, $6, $7)
		`, doc.PartyID, doc.IssueDate, string(m.direction), m.description, doc.ID, doc.Number, doc.Total)
		if err != nil {
			return fmt.Errorf("failed to append party transaction: %w", err)
		}
	}

	_, err = tx.Exec(ctx, "UPDATE parties SET balance = $1 WHERE id = $2", balance, doc.PartyID)
	if err != nil {
		return fmt.Errorf("failed to update party balance: %w", err)
	}
	return nil
}

// postCash moves the register balance for immediate cash settlement.
// Only cash-eligible types with both a payment method and a register
// reference touch the register.
func (p *ledgerPoster) postCash(ctx context.Context, tx pgx.Tx, doc *Document, policy DocTypePolicy) error {
	if !policy.CashEligible || doc.PaymentMethod == nil || *doc.PaymentMethod == "" || doc.RegisterID == nil {
		return nil
	}

	var status RegisterStatus
	err := tx.QueryRow(ctx,
		"SELECT status FROM cash_registers WHERE id = $1 FOR UPDATE",
		*doc.RegisterID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("cash register %d not found", *doc.RegisterID)
		}
		return fmt.Errorf("failed to lock register %d: %w", *doc.RegisterID, err)
	}
	if status != RegisterOpen {
		return fmt.Errorf("cash register %d is not open", *doc.RegisterID)
	}

	amount := doc.Total

	_, err = tx.Exec(ctx,
		"UPDATE cash_registers SET balance = balance + $1 WHERE id = $2",
		amount, *doc.RegisterID,
	)
	if err != nil {
		return fmt.Errorf("failed to update register balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cash_movements (register_id, movement_date, description, document_id, amount)
		VALUES ($1, $2::date, $3, $4, $5)
	`, *doc.RegisterID, doc.IssueDate, policy.Name+" "+doc.Number, doc.ID, amount)
	if err != nil {
		return fmt.Errorf("failed to append cash movement: %w", err)
	}
	return nil
}

// postStock moves on-hand quantity for GOODS lines with a product
// reference. Informational types (proforma, order) and service lines
// never touch stock. One StockMovement row is appended per affected
// line.
func (p *ledgerPoster) postStock(ctx context.Context, tx pgx.Tx, doc *Document, policy DocTypePolicy) error {
	if policy.Stock == StockNone {
		return nil
	}

	for _, line := range doc.Lines {
		if line.Kind != LineGoods || line.ProductID == nil {
			continue
		}

		var onHand decimal.Decimal
		err := tx.QueryRow(ctx,
			"SELECT on_hand FROM products WHERE id = $1 FOR UPDATE",
			*line.ProductID,
		).Scan(&onHand)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("product %d not found for line %d", *line.ProductID, line.LineNumber)
			}
			return fmt.Errorf("failed to lock product %d: %w", *line.ProductID, err)
		}

		qty := line.Quantity
		movementType := StockEntry
		if policy.Stock == StockIssue {
			qty = qty.Neg()
			movementType = StockExit
		}

		_, err = tx.Exec(ctx,
			"UPDATE products SET on_hand = $1 WHERE id = $2",
			onHand.Add(qty), *line.ProductID,
		)
		if err != nil {
			return fmt.Errorf("failed to update product %d quantity: %w", *line.ProductID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO stock_movements (product_id, movement_type, quantity, document_id, description, movement_date)
			VALUES ($1, $2, $3, $4, $5, $6::date)
		`, *line.ProductID, string(movementType), line.Quantity, doc.ID,
			fmt.Sprintf("%s %s, linha %d", policy.Name, doc.Number, line.LineNumber), doc.IssueDate)
		if err != nil {
			return fmt.Errorf("failed to append stock movement for product %d: %w", *line.ProductID, err)
		}
	}
	return nil
}
