package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// CancellationResult carries both sides of a completed cancellation.
// CreditNote is nil when the original was uncertified or already a
// credit note.
type CancellationResult struct {
	Original   *Document `json:"original"`
	CreditNote *Document `json:"credit_note,omitempty"`
}

// CancellationEngine is the single entry point for cancelling
// documents. Callers never construct credit notes by hand.
type CancellationEngine interface {
	Cancel(ctx context.Context, documentID int, reason string) (*CancellationResult, error)
}

type cancellationEngine struct {
	pool      *pgxpool.Pool
	allocator SequenceAllocator
	hasher    HashGenerator
	poster    LedgerPoster
	taxes     TaxPolicy
	log       zerolog.Logger
}

func NewCancellationEngine(pool *pgxpool.Pool, allocator SequenceAllocator, hasher HashGenerator,
	poster LedgerPoster, taxes TaxPolicy, log zerolog.Logger) CancellationEngine {
	return &cancellationEngine{
		pool:      pool,
		allocator: allocator,
		hasher:    hasher,
		poster:    poster,
		taxes:     taxes,
		log:       log.With().Str("component", "cancellation").Logger(),
	}
}

// Cancel marks the original CANCELLED and, when the original was
// certified and not itself a credit note, mints the compensating
// credit note in the same transaction. Either both documents persist
// or neither: a failed allocation or posting rolls everything back, so
// the original is never left CANCELLED without its credit note.
func (e *cancellationEngine) Cancel(ctx context.Context, documentID int, reason string) (*CancellationResult, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	original, err := fetchDocumentTx(ctx, tx, documentID, true)
	if err != nil {
		return nil, err
	}

	if err := CheckCancellable(original, reason); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE documents
		SET status = $1, cancel_reason = $2, cancelled_at = NOW()
		WHERE id = $3
	`, string(StatusCancelled), reason, original.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel document %s: %w", original.Number, err)
	}
	original.Status = StatusCancelled
	original.CancelReason = &reason

	policy, ok := PolicyFor(original.TypeCode)
	if !ok {
		return nil, fmt.Errorf("unknown document type %q on document %d", original.TypeCode, original.ID)
	}

	var creditNote *Document
	if original.Certified && !policy.CreditNote {
		series, err := e.allocator.GetSeriesTx(ctx, tx, original.SeriesID)
		if err != nil {
			return nil, err
		}

		creditNote = inverseOf(original, policy)
		if creditNote, err = mintDerivedTx(ctx, tx, creditNote, series, e.allocator, e.hasher, e.taxes, e.poster); err != nil {
			return nil, fmt.Errorf("failed to mint credit note for %s: %w", original.Number, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	event := e.log.Info().Str("document", original.Number).Str("reason", reason)
	if creditNote != nil {
		event = event.Str("credit_note", creditNote.Number)
	}
	event.Msg("document cancelled")

	return &CancellationResult{Original: original, CreditNote: creditNote}, nil
}

// inverseOf copies the original's party, lines and header flags into a
// credit-note draft. The poster reverses the revenue postings and
// restocks physical goods because the credit-note policy row says so,
// not because anything here special-cases it.
func inverseOf(original *Document, policy DocTypePolicy) *Document {
	cn := &Document{
		TypeCode:       CreditNoteTypeFor(policy),
		SeriesID:       original.SeriesID,
		IssueDate:      time.Now().Format("2006-01-02"),
		PartyID:        original.PartyID,
		PartyName:      original.PartyName,
		PartyTaxID:     original.PartyTaxID,
		GlobalDiscount: original.GlobalDiscount,
		RetentionType:  original.RetentionType,
		Currency:       original.Currency,
		ExchangeRate:   original.ExchangeRate,
		SourceID:       &original.ID,
	}
	for i, l := range original.Lines {
		cn.Lines = append(cn.Lines, LineItem{
			LineNumber:  i + 1,
			ProductID:   l.ProductID,
			Description: l.Description,
			Kind:        l.Kind,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Length:      l.Length,
			Width:       l.Width,
			Height:      l.Height,
			DiscountPct: l.DiscountPct,
			TaxRate:     l.TaxRate,
		})
	}
	return cn
}
