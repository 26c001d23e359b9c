package core_test

import (
	"context"
	"errors"
	"testing"

	"fiscal-engine/internal/core"
)

func TestCertify_InvoiceAssignsNumberAndPostsDebit(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	draft := saveDraft(t, e, invoiceDraft())
	if draft.Status != core.StatusDraft || draft.Number != core.DraftNumber {
		t.Fatalf("draft not saved as draft: status=%s number=%q", draft.Status, draft.Number)
	}
	// 250,000 service @14% → tax 35,000, withholding 6.5% = 16,250.
	if !draft.Total.Equal(d("268750")) {
		t.Fatalf("draft total = %s, want 268750", draft.Total)
	}

	doc, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{})
	if err != nil {
		t.Fatalf("Certify: %v", err)
	}
	if doc.Number != "FT A 2024/1" {
		t.Errorf("number = %q, want %q", doc.Number, "FT A 2024/1")
	}
	if len(doc.Hash) != 96 {
		t.Errorf("hash length = %d, want 96", len(doc.Hash))
	}
	if doc.Status != core.StatusPending {
		t.Errorf("status = %s, want PENDING", doc.Status)
	}
	if !doc.Certified || doc.CertifiedAt == nil {
		t.Error("document not marked certified")
	}
	if doc.PartyName != "Construções Kifica Lda" || doc.PartyTaxID != "5417000110" {
		t.Errorf("party snapshot = %q / %q", doc.PartyName, doc.PartyTaxID)
	}

	// The invoice debits the client for its total.
	if got := mustBalance(t, e, 1); !got.Equal(d("268750")) {
		t.Errorf("client balance = %s, want 268750", got)
	}
	stmt, err := e.parties.Statement(ctx, 1)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("party transactions = %d, want 1", len(stmt.Transactions))
	}
	if tr := stmt.Transactions[0]; tr.Direction != core.DirectionDebit || !tr.Amount.Equal(d("268750")) {
		t.Errorf("transaction = %s %s, want DEBIT 268750", tr.Direction, tr.Amount)
	}

	// Certified content is frozen.
	doc.Lines[0].UnitPrice = d("1")
	if _, err := e.docs.SaveDraft(ctx, doc); !errors.Is(err, core.ErrImmutable) {
		t.Errorf("SaveDraft on certified = %v, want ErrImmutable", err)
	}
	if _, err := e.docs.Certify(ctx, doc.ID, core.CertifyOptions{}); !errors.Is(err, core.ErrImmutable) {
		t.Errorf("re-Certify = %v, want ErrImmutable", err)
	}
}

func TestCertify_CashSaleSettlesCashAndStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	draft := saveDraft(t, e, cashSaleDraft("5"))
	doc, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{})
	if err != nil {
		t.Fatalf("Certify: %v", err)
	}

	// 5 × 50,000 @14% = 285,000, self-settling.
	if doc.Status != core.StatusPaid {
		t.Errorf("status = %s, want PAID", doc.Status)
	}
	if !doc.PaidAmount.Equal(d("285000")) {
		t.Errorf("paid amount = %s, want 285000", doc.PaidAmount)
	}

	reg, err := e.registers.GetRegister(ctx, 1)
	if err != nil {
		t.Fatalf("GetRegister: %v", err)
	}
	if !reg.Balance.Equal(d("285000")) {
		t.Errorf("register balance = %s, want 285000", reg.Balance)
	}

	if got := mustOnHand(t, e, 1); !got.Equal(d("10")) {
		t.Errorf("on hand = %s, want 10 after issuing 5 of 15", got)
	}
	moves, err := e.stock.Movements(ctx, 1)
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(moves) != 1 || moves[0].MovementType != core.StockExit {
		t.Fatalf("stock movements = %+v, want one EXIT", moves)
	}
}

func TestCertify_ManualSeriesRequiresLiteralNumber(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	manual := invoiceDraft()
	manual.SeriesID = 2
	draft := saveDraft(t, e, manual)

	// Missing number must reject before anything is posted.
	_, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{ManualHash: "abc"})
	if !core.IsValidation(err) {
		t.Fatalf("Certify without manual number = %v, want validation error", err)
	}
	if got := mustBalance(t, e, 1); !got.IsZero() {
		t.Errorf("client balance = %s after rejected certify, want 0", got)
	}

	doc, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{
		ManualNumber: "FT M 2024/7",
		ManualHash:   "recovered-from-paper",
	})
	if err != nil {
		t.Fatalf("Certify manual: %v", err)
	}
	if doc.Number != "FT M 2024/7" || doc.Hash != "recovered-from-paper" {
		t.Errorf("manual number/hash not preserved: %q %q", doc.Number, doc.Hash)
	}
}

func TestCertify_InactiveSeriesIsUnavailable(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)

	stale := invoiceDraft()
	stale.SeriesID = 3
	draft := saveDraft(t, e, stale)

	_, err := e.docs.Certify(context.Background(), draft.ID, core.CertifyOptions{})
	if !errors.Is(err, core.ErrSeriesUnavailable) {
		t.Fatalf("Certify on inactive series = %v, want ErrSeriesUnavailable", err)
	}
}

func TestCertify_ProformaTouchesNoBalances(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	proforma := invoiceDraft()
	proforma.TypeCode = core.TypeProforma
	draft := saveDraft(t, e, proforma)

	doc, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{})
	if err != nil {
		t.Fatalf("Certify: %v", err)
	}
	if doc.Number != "PP A 2024/1" {
		t.Errorf("number = %q, want %q", doc.Number, "PP A 2024/1")
	}
	if got := mustBalance(t, e, 1); !got.IsZero() {
		t.Errorf("client balance = %s after proforma, want 0", got)
	}
}

func TestLiquidate_PartialThenPaidMintsReceipts(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	draft := saveDraft(t, e, invoiceDraft())
	inv, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{})
	if err != nil {
		t.Fatalf("Certify: %v", err)
	}

	// First payment covers part of the 268,750.
	inv, err = e.docs.Liquidate(ctx, inv.ID, d("100000"), "NUMERARIO", intPtr(1))
	if err != nil {
		t.Fatalf("Liquidate: %v", err)
	}
	if inv.Status != core.StatusPartial || !inv.PaidAmount.Equal(d("100000")) {
		t.Fatalf("after partial payment: status=%s paid=%s", inv.Status, inv.PaidAmount)
	}

	inv, err = e.docs.Liquidate(ctx, inv.ID, d("168750"), "NUMERARIO", intPtr(1))
	if err != nil {
		t.Fatalf("Liquidate: %v", err)
	}
	if inv.Status != core.StatusPaid {
		t.Fatalf("after full payment: status=%s", inv.Status)
	}

	// Each payment minted a numbered receipt that credits the client
	// and lands in the register.
	docs, err := e.docs.ListDocuments(ctx, nil, intPtr(1))
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	var receipts []core.Document
	for _, dd := range docs {
		if dd.TypeCode == core.TypeReceipt {
			receipts = append(receipts, dd)
		}
	}
	if len(receipts) != 2 {
		t.Fatalf("receipts minted = %d, want 2", len(receipts))
	}
	for _, rc := range receipts {
		if rc.Status != core.StatusPaid || !rc.Certified {
			t.Errorf("receipt %s not born certified PAID", rc.Number)
		}
	}

	if got := mustBalance(t, e, 1); !got.IsZero() {
		t.Errorf("client balance = %s after full settlement, want 0", got)
	}
	reg, err := e.registers.GetRegister(ctx, 1)
	if err != nil {
		t.Fatalf("GetRegister: %v", err)
	}
	if !reg.Balance.Equal(d("268750")) {
		t.Errorf("register balance = %s, want 268750", reg.Balance)
	}

	// A settled document takes no further payments.
	if _, err := e.docs.Liquidate(ctx, inv.ID, d("1"), "NUMERARIO", intPtr(1)); err == nil {
		t.Error("Liquidate on PAID document succeeded, want error")
	}
}

func TestCertify_SeriesAllowlistRestrictsIssuers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	if _, err := pool.Exec(ctx, `
		INSERT INTO series_users (series_id, user_id) VALUES (1, 3), (1, 5)
	`); err != nil {
		t.Fatalf("seed series_users: %v", err)
	}

	draft := saveDraft(t, e, invoiceDraft())

	_, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{UserID: 7})
	if !core.IsValidation(err) {
		t.Fatalf("Certify by unlisted user = %v, want validation error", err)
	}
	// Nothing may reach the ledger on a rejected certify.
	if got := mustBalance(t, e, 1); !got.IsZero() {
		t.Errorf("client balance = %s after rejected certify, want 0", got)
	}

	doc, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{UserID: 3})
	if err != nil {
		t.Fatalf("Certify by allowed user: %v", err)
	}
	if doc.Number != "FT A 2024/1" {
		t.Errorf("number = %q, want FT A 2024/1", doc.Number)
	}
}

func TestCertify_InvoiceReceiptPostsOffsettingLegs(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	fr := invoiceDraft()
	fr.TypeCode = core.TypeInvoiceReceipt
	method := "NUMERARIO"
	fr.PaymentMethod = &method
	fr.RegisterID = intPtr(1)
	draft := saveDraft(t, e, fr)

	doc, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{})
	if err != nil {
		t.Fatalf("Certify: %v", err)
	}
	if doc.Number != "FR A 2024/1" {
		t.Errorf("number = %q, want FR A 2024/1", doc.Number)
	}
	if doc.Status != core.StatusPaid {
		t.Errorf("status = %s, want PAID", doc.Status)
	}

	// Sale and settlement are both on the ledger, so the client owes
	// nothing but the audit trail keeps both legs.
	stmt, err := e.parties.Statement(ctx, 1)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if len(stmt.Transactions) != 2 {
		t.Fatalf("party transactions = %d, want 2", len(stmt.Transactions))
	}
	if tr := stmt.Transactions[0]; tr.Direction != core.DirectionDebit || !tr.Amount.Equal(d("268750")) {
		t.Errorf("first leg = %s %s, want DEBIT 268750", tr.Direction, tr.Amount)
	}
	if tr := stmt.Transactions[1]; tr.Direction != core.DirectionCredit || !tr.Amount.Equal(d("268750")) {
		t.Errorf("second leg = %s %s, want CREDIT 268750", tr.Direction, tr.Amount)
	}
	if got := mustBalance(t, e, 1); !got.IsZero() {
		t.Errorf("client balance = %s, want 0", got)
	}

	reg, err := e.registers.GetRegister(ctx, 1)
	if err != nil {
		t.Fatalf("GetRegister: %v", err)
	}
	if !reg.Balance.Equal(d("268750")) {
		t.Errorf("register balance = %s, want 268750", reg.Balance)
	}
}

func TestCertify_FailedCashLegRollsBackEverything(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	if _, err := e.registers.CloseRegister(ctx, 1); err != nil {
		t.Fatalf("CloseRegister: %v", err)
	}

	draft := saveDraft(t, e, cashSaleDraft("5"))

	_, err := e.docs.Certify(ctx, draft.ID, core.CertifyOptions{})
	if !errors.Is(err, core.ErrLedgerPosting) {
		t.Fatalf("Certify against closed register = %v, want ErrLedgerPosting", err)
	}

	// The whole certification rolled back: draft untouched, party leg
	// undone, no stock moved.
	doc, err := e.docs.GetDocument(ctx, draft.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Certified || doc.Status != core.StatusDraft || doc.Number != core.DraftNumber {
		t.Errorf("document after failed certify = certified=%v status=%s number=%q, want pristine draft",
			doc.Certified, doc.Status, doc.Number)
	}
	if got := mustBalance(t, e, 1); !got.IsZero() {
		t.Errorf("client balance = %s after rollback, want 0", got)
	}
	if got := mustOnHand(t, e, 1); !got.Equal(d("15")) {
		t.Errorf("on hand = %s after rollback, want 15", got)
	}
	moves, err := e.stock.Movements(ctx, 1)
	if err != nil {
		t.Fatalf("Movements: %v", err)
	}
	if len(moves) != 0 {
		t.Fatalf("stock movements = %+v after rollback, want none", moves)
	}

	// The failed attempt released its reservation.
	if _, err := e.registers.OpenRegister(ctx, 1); err != nil {
		t.Fatalf("OpenRegister: %v", err)
	}
	doc, err = e.docs.Certify(ctx, draft.ID, core.CertifyOptions{})
	if err != nil {
		t.Fatalf("Certify after reopening: %v", err)
	}
	if doc.Number != "VD A 2024/1" {
		t.Errorf("number = %q, want VD A 2024/1", doc.Number)
	}
}
