package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusPending   DocumentStatus = "PENDING"
	StatusPartial   DocumentStatus = "PARTIAL"
	StatusPaid      DocumentStatus = "PAID"
	StatusCancelled DocumentStatus = "CANCELLED"
)

type RetentionType string

const (
	RetentionNone   RetentionType = "NONE"
	RetentionCat50  RetentionType = "CAT_50"
	RetentionCat100 RetentionType = "CAT_100"
)

type LineKind string

const (
	LineGoods   LineKind = "GOODS"
	LineService LineKind = "SERVICE"
)

// DraftNumber is the placeholder carried by every document until it is
// certified and receives its fiscal number.
const DraftNumber = "DRAFT"

// DocumentSeries is a named numbering stream scoped to a fiscal year.
// Counters are kept per document type in series_sequences and are
// monotonically non-decreasing, never reused.
type DocumentSeries struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	FiscalYear int       `json:"fiscal_year"`
	IsActive   bool      `json:"is_active"`
	IsManual   bool      `json:"is_manual"`
	UserIDs    []int     `json:"user_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AllowsUser reports whether userID may issue documents on the series.
// An empty allowlist leaves the series open to everyone.
func (ds *DocumentSeries) AllowsUser(userID int) bool {
	if len(ds.UserIDs) == 0 {
		return true
	}
	for _, id := range ds.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SeriesSequence is the last-issued counter for one (series, type) pair.
type SeriesSequence struct {
	SeriesID   int    `json:"series_id"`
	TypeCode   string `json:"type_code"`
	LastNumber int64  `json:"last_number"`
}

type PartyKind string

const (
	PartyClient   PartyKind = "CLIENT"
	PartySupplier PartyKind = "SUPPLIER"
)

// Party is a client or supplier with a subsidiary ledger.
// Balance always equals the opening balance plus the signed sum of
// party_transactions; it is only ever moved by a certified document.
type Party struct {
	ID        int             `json:"id"`
	Kind      PartyKind       `json:"kind"`
	Name      string          `json:"name"`
	TaxID     string          `json:"tax_id"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type EntryDirection string

const (
	DirectionDebit  EntryDirection = "DEBIT"
	DirectionCredit EntryDirection = "CREDIT"
)

// PartyTransaction is one movement in a party's subsidiary ledger.
type PartyTransaction struct {
	ID             int             `json:"id"`
	PartyID        int             `json:"party_id"`
	EntryDate      time.Time       `json:"entry_date"`
	Direction      EntryDirection  `json:"direction"`
	Description    string          `json:"description"`
	DocumentID     int             `json:"document_id"`
	DocumentNumber string          `json:"document_number"`
	Amount         decimal.Decimal `json:"amount"`
}

type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "OPEN"
	RegisterClosed RegisterStatus = "CLOSED"
)

// CashRegister holds a running balance mutated only by certified
// cash-settling documents or explicit cash movements.
type CashRegister struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Status    RegisterStatus  `json:"status"`
	Balance   decimal.Decimal `json:"balance"`
	OpenedAt  *time.Time      `json:"opened_at,omitempty"`
	ClosedAt  *time.Time      `json:"closed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// CashMovement is an immutable audit row in a register's history.
// Cancellations never delete rows; they append inverse entries.
type CashMovement struct {
	ID           int             `json:"id"`
	RegisterID   int             `json:"register_id"`
	MovementDate time.Time       `json:"movement_date"`
	Description  string          `json:"description"`
	DocumentID   *int            `json:"document_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
}

// Product carries the on-hand quantity and the goods/service
// classification that drives withholding and stock eligibility.
type Product struct {
	ID        int             `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Kind      LineKind        `json:"kind"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	OnHand    decimal.Decimal `json:"on_hand"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

type StockMovementType string

const (
	StockEntry StockMovementType = "ENTRY"
	StockExit  StockMovementType = "EXIT"
)

// StockMovement is the audit trail for on-hand quantity changes.
type StockMovement struct {
	ID           int               `json:"id"`
	ProductID    int               `json:"product_id"`
	MovementType StockMovementType `json:"movement_type"`
	Quantity     decimal.Decimal   `json:"quantity"`
	DocumentID   *int              `json:"document_id,omitempty"`
	Description  string            `json:"description"`
	MovementDate time.Time         `json:"movement_date"`
}

// LineItem is one document line. Length/width/height default to 1 and
// only matter for volumetric pricing.
type LineItem struct {
	ID          int             `json:"id"`
	DocumentID  int             `json:"document_id"`
	LineNumber  int             `json:"line_number"`
	ProductID   *int            `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Kind        LineKind        `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Length      decimal.Decimal `json:"length"`
	Width       decimal.Decimal `json:"width"`
	Height      decimal.Decimal `json:"height"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Document is a sales or purchase instance. Content is mutable while
// DRAFT and frozen once certified; only status, paid amount and the
// cancellation fields may change afterwards. Certified documents are
// never deleted — a cancelled one coexists with its credit note.
type Document struct {
	ID              int             `json:"id"`
	TypeCode        string          `json:"type_code"`
	SeriesID        int             `json:"series_id"`
	Number          string          `json:"number"`
	Hash            string          `json:"hash,omitempty"`
	IssueDate       string          `json:"issue_date"`
	DueDate         string          `json:"due_date,omitempty"`
	AccountingDate  string          `json:"accounting_date,omitempty"`
	PartyID         int             `json:"party_id"`
	PartyName       string          `json:"party_name"`
	PartyTaxID      string          `json:"party_tax_id"`
	Lines           []LineItem      `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	GlobalDiscount  decimal.Decimal `json:"global_discount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Withholding     decimal.Decimal `json:"withholding"`
	RetentionType   RetentionType   `json:"retention_type"`
	RetentionAmount decimal.Decimal `json:"retention_amount"`
	Total           decimal.Decimal `json:"total"`
	Currency        string          `json:"currency"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	ContraValue     decimal.Decimal `json:"contra_value"`
	Status          DocumentStatus  `json:"status"`
	Certified       bool            `json:"certified"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	SourceID        *int            `json:"source_document_id,omitempty"`
	CancelReason    *string         `json:"cancel_reason,omitempty"`
	PaymentMethod   *string         `json:"payment_method,omitempty"`
	RegisterID      *int            `json:"register_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	CertifiedAt     *time.Time      `json:"certified_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}
