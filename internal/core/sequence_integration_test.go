package core_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"fiscal-engine/internal/core"

	"github.com/rs/zerolog"
)

func TestSequenceAllocator_ConcurrentReservationsAreDistinct(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	allocator := core.NewSequenceAllocator(pool)
	ctx := context.Background()

	const workers = 20
	results := make(chan int64, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := pool.Begin(ctx)
			if err != nil {
				errs <- err
				return
			}
			defer tx.Rollback(ctx)
			seq, err := allocator.ReserveTx(ctx, tx, 1, core.TypeInvoice)
			if err != nil {
				errs <- err
				return
			}
			if err := tx.Commit(ctx); err != nil {
				errs <- err
				return
			}
			results <- seq
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("reservation failed: %v", err)
	}

	var seqs []int64
	for s := range results {
		seqs = append(seqs, s)
	}
	if len(seqs) != workers {
		t.Fatalf("got %d sequences, want %d", len(seqs), workers)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for i, s := range seqs {
		if s != int64(i+1) {
			t.Fatalf("sequences not dense and distinct: %v", seqs)
		}
	}
}

func TestSequenceAllocator_StreamsArePerSeriesAndType(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	allocator := core.NewSequenceAllocator(pool)
	ctx := context.Background()

	reserve := func(seriesID int, typeCode string) int64 {
		t.Helper()
		tx, err := pool.Begin(ctx)
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		defer tx.Rollback(ctx)
		seq, err := allocator.ReserveTx(ctx, tx, seriesID, typeCode)
		if err != nil {
			t.Fatalf("ReserveTx(%d, %s): %v", seriesID, typeCode, err)
		}
		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		return seq
	}

	if got := reserve(1, core.TypeInvoice); got != 1 {
		t.Errorf("first FT on series 1 = %d, want 1", got)
	}
	if got := reserve(1, core.TypeInvoice); got != 2 {
		t.Errorf("second FT on series 1 = %d, want 2", got)
	}
	// A different type on the same series starts its own stream.
	if got := reserve(1, core.TypeCreditNote); got != 1 {
		t.Errorf("first NC on series 1 = %d, want 1", got)
	}
	// Same type on a different series does too.
	if got := reserve(2, core.TypeInvoice); got != 1 {
		t.Errorf("first FT on series 2 = %d, want 1", got)
	}
}

func TestSequenceAllocator_RollbackReleasesTheNumber(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	allocator := core.NewSequenceAllocator(pool)
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := allocator.ReserveTx(ctx, tx, 1, core.TypeInvoice); err != nil {
		t.Fatalf("ReserveTx: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	tx2, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx2.Rollback(ctx)
	seq, err := allocator.ReserveTx(ctx, tx2, 1, core.TypeInvoice)
	if err != nil {
		t.Fatalf("ReserveTx: %v", err)
	}
	if seq != 1 {
		t.Errorf("sequence after rollback = %d, want 1 (no burned number)", seq)
	}
}

func TestCertify_ConcurrentDocumentsGetDistinctNumbers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	ctx := context.Background()

	const n = 8
	ids := make([]int, n)
	for i := range ids {
		ids[i] = saveDraft(t, e, invoiceDraft()).ID
	}

	numbers := make(chan string, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			doc, err := e.docs.Certify(ctx, id, core.CertifyOptions{})
			if err != nil {
				errs <- fmt.Errorf("certify %d: %w", id, err)
				return
			}
			numbers <- doc.Number
		}(id)
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("%v", err)
	}
	seen := make(map[string]bool)
	for num := range numbers {
		if seen[num] {
			t.Fatalf("fiscal number %q assigned twice", num)
		}
		seen[num] = true
	}
	if len(seen) != n {
		t.Fatalf("distinct numbers = %d, want %d", len(seen), n)
	}
}

func TestCertify_StrictPolicyPinsManualNumbersToTheStream(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	e := newEngine(pool)
	strictDocs := core.NewDocumentService(pool, e.allocator, core.HashGenerator{},
		core.NewLedgerPoster(pool), core.DefaultTaxPolicy(), core.Strict, zerolog.Nop())
	ctx := context.Background()

	manual := invoiceDraft()
	manual.SeriesID = 2
	draft := saveDraft(t, e, manual)

	// Under strict numbering a literal that does not continue the
	// series stream is refused.
	_, err := strictDocs.Certify(ctx, draft.ID, core.CertifyOptions{
		ManualNumber: "FT M 2024/99",
		ManualHash:   "recovered",
	})
	if !core.IsValidation(err) {
		t.Fatalf("out-of-stream manual number accepted under strict policy: %v", err)
	}

	doc, err := strictDocs.Certify(ctx, draft.ID, core.CertifyOptions{
		ManualNumber: "FT M 2024/1",
		ManualHash:   "recovered",
	})
	if err != nil {
		t.Fatalf("Certify: %v", err)
	}
	if doc.Number != "FT M 2024/1" {
		t.Errorf("number = %q, want %q", doc.Number, "FT M 2024/1")
	}
}
