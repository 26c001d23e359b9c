package core_test

import (
	"context"
	"errors"
	"testing"

	"fiscal-engine/internal/core"
)

func TestSaveDraft_UnknownSeriesRejected(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	doc := invoiceDraft()
	doc.SeriesID = 99
	if _, err := e.docs.SaveDraft(ctx, doc); !core.IsValidation(err) {
		t.Fatalf("SaveDraft with unknown series = %v, want validation error", err)
	}
}

func TestSaveDraft_CancelledDraftIsClosed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	draft := saveDraft(t, e, invoiceDraft())
	if _, err := e.cancel.Cancel(ctx, draft.ID, "pedido do cliente"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	draft.Lines[0].UnitPrice = d("1")
	if _, err := e.docs.SaveDraft(ctx, draft); !errors.Is(err, core.ErrAlreadyCancelled) {
		t.Errorf("SaveDraft on cancelled draft = %v, want ErrAlreadyCancelled", err)
	}
}

func TestSaveDraft_ForeignCurrencyNeedsRate(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	doc := invoiceDraft()
	doc.Currency = "USD"
	if _, err := e.docs.SaveDraft(ctx, doc); !core.IsValidation(err) {
		t.Fatalf("SaveDraft with zero USD rate = %v, want validation error", err)
	}

	doc.ExchangeRate = d("830")
	saved := saveDraft(t, e, doc)
	if !saved.ContraValue.Equal(d("268750").Mul(d("830"))) {
		t.Errorf("contra-value = %s, want 268750 × 830", saved.ContraValue)
	}
}
