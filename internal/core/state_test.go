package core_test

import (
	"errors"
	"testing"

	"fiscal-engine/internal/core"
)

func draftDoc() *core.Document {
	return &core.Document{
		TypeCode: core.TypeInvoice,
		SeriesID: 1,
		PartyID:  7,
		Status:   core.StatusDraft,
		Lines:    []core.LineItem{{Description: "Cimento", Quantity: d("1"), UnitPrice: d("1000")}},
	}
}

func activeSeries() *core.DocumentSeries {
	return &core.DocumentSeries{ID: 1, Code: "A", FiscalYear: 2024, IsActive: true}
}

func TestCheckCertifiable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*core.Document, *core.DocumentSeries)
		number  string
		hash    string
		wantErr bool
	}{
		{"valid draft", func(*core.Document, *core.DocumentSeries) {}, "", "", false},
		{"no party", func(doc *core.Document, _ *core.DocumentSeries) { doc.PartyID = 0 }, "", "", true},
		{"no series", func(doc *core.Document, _ *core.DocumentSeries) { doc.SeriesID = 0 }, "", "", true},
		{"no lines", func(doc *core.Document, _ *core.DocumentSeries) { doc.Lines = nil }, "", "", true},
		{"unknown type", func(doc *core.Document, _ *core.DocumentSeries) { doc.TypeCode = "XX" }, "", "", true},
		{"already certified", func(doc *core.Document, _ *core.DocumentSeries) {
			doc.Certified = true
			doc.Status = core.StatusPending
		}, "", "", true},
		{"manual series with number and hash", func(_ *core.Document, s *core.DocumentSeries) { s.IsManual = true },
			"FT M 2024/9", "cafe01", false},
		{"manual series missing number", func(_ *core.Document, s *core.DocumentSeries) { s.IsManual = true },
			"", "cafe01", true},
		{"manual series missing hash", func(_ *core.Document, s *core.DocumentSeries) { s.IsManual = true },
			"FT M 2024/9", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, series := draftDoc(), activeSeries()
			tc.mutate(doc, series)
			err := core.CheckCertifiable(doc, series, tc.number, tc.hash)
			if (err != nil) != tc.wantErr {
				t.Errorf("CheckCertifiable() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestInitialStatus(t *testing.T) {
	tests := []struct {
		typeCode string
		want     core.DocumentStatus
	}{
		{core.TypeInvoice, core.StatusPending},
		{core.TypeDebitNote, core.StatusPending},
		{core.TypeCashSale, core.StatusPaid},
		{core.TypeInvoiceReceipt, core.StatusPaid},
		{core.TypeReceipt, core.StatusPaid},
		{core.TypeCreditNote, core.StatusPaid},
	}
	for _, tc := range tests {
		p, ok := core.PolicyFor(tc.typeCode)
		if !ok {
			t.Fatalf("no policy for %s", tc.typeCode)
		}
		if got := core.InitialStatus(p); got != tc.want {
			t.Errorf("InitialStatus(%s) = %s, want %s", tc.typeCode, got, tc.want)
		}
	}
}

func TestCheckCancellable(t *testing.T) {
	doc := draftDoc()
	doc.Certified = true
	doc.Status = core.StatusPending

	if err := core.CheckCancellable(doc, ""); err == nil {
		t.Errorf("cancellation without a reason must be rejected")
	}
	if err := core.CheckCancellable(doc, "duplicate issue"); err != nil {
		t.Errorf("valid cancellation rejected: %v", err)
	}

	doc.Status = core.StatusCancelled
	if err := core.CheckCancellable(doc, "again"); !errors.Is(err, core.ErrAlreadyCancelled) {
		t.Errorf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCheckMutable(t *testing.T) {
	doc := draftDoc()
	if err := core.CheckMutable(doc); err != nil {
		t.Errorf("draft must be mutable: %v", err)
	}
	doc.Certified = true
	if err := core.CheckMutable(doc); !errors.Is(err, core.ErrImmutable) {
		t.Errorf("expected ErrImmutable, got %v", err)
	}

	// A cancelled draft is closed even though it was never certified.
	cancelled := draftDoc()
	cancelled.Status = core.StatusCancelled
	if err := core.CheckMutable(cancelled); !errors.Is(err, core.ErrAlreadyCancelled) {
		t.Errorf("expected ErrAlreadyCancelled, got %v", err)
	}
}

func TestCheckLiquidatable(t *testing.T) {
	doc := draftDoc()
	doc.Certified = true
	doc.Status = core.StatusPending
	doc.Total = d("10000")

	status, err := core.CheckLiquidatable(doc, d("4000"))
	if err != nil || status != core.StatusPartial {
		t.Errorf("partial payment: status = %s, err = %v, want PARTIAL", status, err)
	}

	doc.PaidAmount = d("4000")
	status, err = core.CheckLiquidatable(doc, d("6000"))
	if err != nil || status != core.StatusPaid {
		t.Errorf("settling payment: status = %s, err = %v, want PAID", status, err)
	}

	if _, err := core.CheckLiquidatable(doc, d("-5")); err == nil {
		t.Errorf("negative payment must be rejected")
	}

	uncertified := draftDoc()
	if _, err := core.CheckLiquidatable(uncertified, d("1")); !errors.Is(err, core.ErrNotCertified) {
		t.Errorf("expected ErrNotCertified, got %v", err)
	}
}
