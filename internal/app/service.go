package app

import (
	"context"

	"fiscal-engine/internal/core"
)

// ApplicationService is the single interface all adapters (HTTP, CLI)
// call. It decouples presentation from the engine. Implementations must
// contain no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// SaveDraft creates or replaces a draft document. Amounts in the
	// request are ignored; the engine recomputes them.
	SaveDraft(ctx context.Context, req SaveDraftRequest) (*DocumentResult, error)

	// CertifyDocument locks the draft into the fiscal record: assigns
	// its number, signs it and posts its ledger, cash and stock effects.
	CertifyDocument(ctx context.Context, documentID int, req CertifyRequest) (*DocumentResult, error)

	// CancelDocument marks a document cancelled and, for certified
	// documents that are not themselves credit notes, mints the
	// reversing credit note in the same transaction.
	CancelDocument(ctx context.Context, documentID int, reason string) (*CancellationResult, error)

	// LiquidateDocument applies a payment and mints the receipt.
	LiquidateDocument(ctx context.Context, documentID int, req LiquidateRequest) (*DocumentResult, error)

	// GetDocument returns a document with its lines.
	GetDocument(ctx context.Context, documentID int) (*DocumentResult, error)

	// ListDocuments returns documents, optionally filtered by status
	// and party.
	ListDocuments(ctx context.Context, status *core.DocumentStatus, partyID *int) (*DocumentListResult, error)

	// ListDocumentTypes returns the supported document types and their
	// posting behavior.
	ListDocumentTypes(ctx context.Context) (*DocumentTypeListResult, error)

	// CreateSeries registers a new numbering series.
	CreateSeries(ctx context.Context, req CreateSeriesRequest) (*SeriesResult, error)

	// ListSeries returns all active series.
	ListSeries(ctx context.Context) (*SeriesListResult, error)

	// CreateParty registers a client or supplier.
	CreateParty(ctx context.Context, req CreatePartyRequest) (*PartyResult, error)

	// ListParties returns parties of one kind.
	ListParties(ctx context.Context, kind core.PartyKind) (*PartyListResult, error)

	// GetPartyStatement returns a party's ledger with running balance.
	GetPartyStatement(ctx context.Context, partyID int) (*PartyStatementResult, error)

	// CreateProduct registers a product or service for invoicing.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResult, error)

	// ListProducts returns the catalog.
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// ReceiveStock records a goods entry outside the document flow.
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*ProductResult, error)

	// GetStockMovements returns a product's movement history.
	GetStockMovements(ctx context.Context, productID int) (*StockMovementsResult, error)

	// CreateRegister registers a cash register.
	CreateRegister(ctx context.Context, name string) (*RegisterResult, error)

	// ListRegisters returns all registers.
	ListRegisters(ctx context.Context) (*RegisterListResult, error)

	// OpenRegister opens a closed register for the day's movements.
	OpenRegister(ctx context.Context, registerID int) (*RegisterResult, error)

	// CloseRegister closes an open register.
	CloseRegister(ctx context.Context, registerID int) (*RegisterResult, error)

	// GetRegisterMovements returns a register's movement history.
	GetRegisterMovements(ctx context.Context, registerID int) (*CashMovementsResult, error)
}
