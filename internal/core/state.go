package core

import "github.com/shopspring/decimal"

// Pure transition rules for the document lifecycle:
//
//	DRAFT → CERTIFIED → {PENDING, PARTIAL, PAID}
//	CERTIFIED → CANCELLED (terminal)
//
// Derived credit notes and liquidation receipts are born
// CERTIFIED/PAID and never pass through DRAFT. Every check here runs
// before any persistence, so a failed precondition leaves no partial
// state behind.

// CheckCertifiable validates the DRAFT → CERTIFIED preconditions.
// manualNumber and manualHash are only consulted for manual/recovery
// series, where the operator supplies both and the allocator is
// bypassed.
func CheckCertifiable(doc *Document, series *DocumentSeries, manualNumber, manualHash string) error {
	if doc.Certified || doc.Status != StatusDraft {
		return ErrImmutable
	}
	if _, ok := PolicyFor(doc.TypeCode); !ok {
		return validationf("type_code", "unknown document type %q", doc.TypeCode)
	}
	if doc.PartyID == 0 {
		return validationf("party", "a client or supplier must be selected")
	}
	if doc.SeriesID == 0 || series == nil {
		return validationf("series", "a series must be selected")
	}
	if len(doc.Lines) == 0 {
		return validationf("lines", "document must have at least one line item")
	}
	if series.IsManual {
		if manualNumber == "" {
			return validationf("manual_number", "manual series requires the literal fiscal number")
		}
		if manualHash == "" {
			return validationf("manual_hash", "manual series requires the signature hash")
		}
	}
	return nil
}

// InitialStatus is the status a document takes on certification:
// self-settling types are born PAID, everything else starts PENDING.
func InitialStatus(p DocTypePolicy) DocumentStatus {
	if p.SelfSettling {
		return StatusPaid
	}
	return StatusPending
}

// CheckCancellable validates CERTIFIED → CANCELLED.
func CheckCancellable(doc *Document, reason string) error {
	if doc.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if reason == "" {
		return validationf("reason", "cancellation requires a reason")
	}
	return nil
}

// CheckMutable rejects content mutation on certified documents and on
// cancelled drafts. Only status (via liquidation) and the cancellation
// fields move after certification; CANCELLED is terminal either way.
func CheckMutable(doc *Document) error {
	if doc.Certified {
		return ErrImmutable
	}
	if doc.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	return nil
}

// CheckLiquidatable validates a payment against a document and returns
// the resulting status: PAID once the accumulated paid amount covers
// the total, PARTIAL otherwise.
func CheckLiquidatable(doc *Document, amount decimal.Decimal) (DocumentStatus, error) {
	if !doc.Certified {
		return "", ErrNotCertified
	}
	if doc.Status == StatusCancelled {
		return "", ErrAlreadyCancelled
	}
	if doc.Status == StatusPaid {
		return "", validationf("status", "document %s is already fully paid", doc.Number)
	}
	if amount.IsZero() || amount.IsNegative() {
		return "", validationf("amount", "payment amount must be positive, got %s", amount)
	}
	paid := doc.PaidAmount.Add(amount)
	if paid.GreaterThanOrEqual(doc.Total) {
		return StatusPaid, nil
	}
	return StatusPartial, nil
}
