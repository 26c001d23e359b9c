package app

import "fiscal-engine/internal/core"

// DocumentResult is returned by document lifecycle operations.
type DocumentResult struct {
	Document *core.Document
}

// DocumentListResult is returned by ListDocuments.
type DocumentListResult struct {
	Documents []core.Document
}

// DocumentTypeListResult is returned by ListDocumentTypes.
type DocumentTypeListResult struct {
	Types []core.DocTypePolicy
}

// CancellationResult is returned by CancelDocument.
type CancellationResult struct {
	Original   *core.Document
	CreditNote *core.Document
}

// SeriesResult is returned by CreateSeries.
type SeriesResult struct {
	Series *core.DocumentSeries
}

// SeriesListResult is returned by ListSeries.
type SeriesListResult struct {
	Series []core.DocumentSeries
}

// PartyResult is returned by CreateParty.
type PartyResult struct {
	Party *core.Party
}

// PartyListResult is returned by ListParties.
type PartyListResult struct {
	Parties []core.Party
}

// PartyStatementResult is returned by GetPartyStatement.
type PartyStatementResult struct {
	Statement *core.PartyStatement
}

// ProductResult is returned by product operations.
type ProductResult struct {
	Product *core.Product
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// StockMovementsResult is returned by GetStockMovements.
type StockMovementsResult struct {
	Movements []core.StockMovement
}

// RegisterResult is returned by register operations.
type RegisterResult struct {
	Register *core.CashRegister
}

// RegisterListResult is returned by ListRegisters.
type RegisterListResult struct {
	Registers []core.CashRegister
}

// CashMovementsResult is returned by GetRegisterMovements.
type CashMovementsResult struct {
	Movements []core.CashMovement
}
