package app

import (
	"github.com/shopspring/decimal"

	"fiscal-engine/internal/core"
)

// SaveDraftRequest is the input for creating or replacing a draft
// document. DocumentID zero means create.
type SaveDraftRequest struct {
	DocumentID     int                `json:"document_id"`
	TypeCode       string             `json:"type_code"`
	SeriesID       int                `json:"series_id"`
	PartyID        int                `json:"party_id"`
	IssueDate      string             `json:"issue_date"` // YYYY-MM-DD, empty means today
	DueDate        string             `json:"due_date"`
	Currency       string             `json:"currency"`
	ExchangeRate   decimal.Decimal    `json:"exchange_rate"`
	GlobalDiscount decimal.Decimal    `json:"global_discount"`
	RetentionType  core.RetentionType `json:"retention_type"`
	PaymentMethod  string             `json:"payment_method"`
	RegisterID     *int               `json:"register_id"`
	Lines          []LineInput        `json:"lines"`
}

// LineInput is a single line within a SaveDraftRequest.
type LineInput struct {
	ProductID   *int            `json:"product_id"`
	Description string          `json:"description"`
	Kind        core.LineKind   `json:"kind"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // zero with a product means "use catalog price"
	Length      decimal.Decimal `json:"length"`
	Width       decimal.Decimal `json:"width"`
	Height      decimal.Decimal `json:"height"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CertifyRequest carries the manual-series literals (empty for
// automatic series) and the issuing operator for allowlisted series.
type CertifyRequest struct {
	ManualNumber string `json:"manual_number"`
	ManualHash   string `json:"manual_hash"`
	UserID       int    `json:"user_id"`
}

// LiquidateRequest is the input for applying a payment.
type LiquidateRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	RegisterID    *int            `json:"register_id"`
}

// CreateSeriesRequest is the input for registering a numbering series.
// UserIDs restricts issuance to the listed operators; empty means open.
type CreateSeriesRequest struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	FiscalYear int    `json:"fiscal_year"`
	Manual     bool   `json:"manual"`
	UserIDs    []int  `json:"user_ids"`
}

// CreatePartyRequest is the input for registering a client or supplier.
type CreatePartyRequest struct {
	Kind    core.PartyKind `json:"kind"`
	Name    string         `json:"name"`
	TaxID   string         `json:"tax_id"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address string         `json:"address"`
}

// CreateProductRequest is the input for registering a catalog item.
type CreateProductRequest struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Kind      core.LineKind   `json:"kind"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
}

// ReceiveStockRequest is the input for recording a goods entry.
type ReceiveStockRequest struct {
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Note      string          `json:"note"`
}
