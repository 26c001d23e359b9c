package core

// LedgerEffect is the direction a document type moves the party's
// subsidiary ledger.
type LedgerEffect string

const (
	EffectDebit  LedgerEffect = "DEBIT"
	EffectCredit LedgerEffect = "CREDIT"
	// EffectBoth posts a DEBIT for the sale and an immediately
	// offsetting CREDIT for the payment (invoice-receipt): the net
	// balance effect is zero but both movements stay auditable.
	EffectBoth LedgerEffect = "BOTH"
	EffectNone LedgerEffect = "NONE"
)

// StockEffect is the direction a document type moves on-hand quantity
// for GOODS lines with a product reference.
type StockEffect string

const (
	StockIssue  StockEffect = "ISSUE"
	StockReturn StockEffect = "RETURN"
	StockNone   StockEffect = "NONE"
)

type DocumentSide string

const (
	SideSale     DocumentSide = "SALE"
	SidePurchase DocumentSide = "PURCHASE"
)

// DocTypePolicy carries a document type's full ledger-posting behaviour
// as data. Adding a type is a row in docTypes, not a new branch in the
// poster.
type DocTypePolicy struct {
	Code         string
	Name         string
	Side         DocumentSide
	Ledger       LedgerEffect
	CashEligible bool
	Stock        StockEffect
	// SelfSettling types are born PAID on certification (the payment
	// happens in the same act as the sale).
	SelfSettling bool
	// CreditNote marks the compensating types that cancellation must
	// not re-compensate.
	CreditNote bool
}

const (
	TypeInvoice         = "FT"  // standard invoice
	TypeCashSale        = "VD"  // venda a dinheiro
	TypeInvoiceReceipt  = "FR"  // factura-recibo
	TypeReceipt         = "RC"  // recibo
	TypeCreditNote      = "NC"  // nota de crédito
	TypeDebitNote       = "ND"  // nota de débito
	TypeProforma        = "PP"  // proforma
	TypeOrder           = "OR"  // encomenda
	TypeSupplierInvoice = "FTF" // factura de fornecedor
	TypeSupplierCredit  = "NCF" // nota de crédito de fornecedor
)

var docTypes = map[string]DocTypePolicy{
	TypeInvoice:         {Code: TypeInvoice, Name: "Factura", Side: SideSale, Ledger: EffectDebit, Stock: StockIssue},
	TypeCashSale:        {Code: TypeCashSale, Name: "Venda a Dinheiro", Side: SideSale, Ledger: EffectDebit, CashEligible: true, Stock: StockIssue, SelfSettling: true},
	TypeInvoiceReceipt:  {Code: TypeInvoiceReceipt, Name: "Factura-Recibo", Side: SideSale, Ledger: EffectBoth, CashEligible: true, Stock: StockIssue, SelfSettling: true},
	TypeReceipt:         {Code: TypeReceipt, Name: "Recibo", Side: SideSale, Ledger: EffectCredit, CashEligible: true, Stock: StockNone, SelfSettling: true},
	TypeCreditNote:      {Code: TypeCreditNote, Name: "Nota de Crédito", Side: SideSale, Ledger: EffectCredit, Stock: StockReturn, SelfSettling: true, CreditNote: true},
	TypeDebitNote:       {Code: TypeDebitNote, Name: "Nota de Débito", Side: SideSale, Ledger: EffectDebit, Stock: StockNone},
	TypeProforma:        {Code: TypeProforma, Name: "Proforma", Side: SideSale, Ledger: EffectNone, Stock: StockNone},
	TypeOrder:           {Code: TypeOrder, Name: "Encomenda", Side: SideSale, Ledger: EffectNone, Stock: StockNone},
	TypeSupplierInvoice: {Code: TypeSupplierInvoice, Name: "Factura de Fornecedor", Side: SidePurchase, Ledger: EffectCredit, Stock: StockReturn},
	TypeSupplierCredit:  {Code: TypeSupplierCredit, Name: "Nota de Crédito de Fornecedor", Side: SidePurchase, Ledger: EffectDebit, Stock: StockIssue, SelfSettling: true, CreditNote: true},
}

// PolicyFor returns the posting policy for a document type code.
func PolicyFor(code string) (DocTypePolicy, bool) {
	p, ok := docTypes[code]
	return p, ok
}

// DocumentTypes returns every known policy row. The map is never
// mutated at runtime; callers get copies.
func DocumentTypes() []DocTypePolicy {
	out := make([]DocTypePolicy, 0, len(docTypes))
	for _, p := range docTypes {
		out = append(out, p)
	}
	return out
}

// CreditNoteTypeFor returns the compensating credit-note type for a
// document's side.
func CreditNoteTypeFor(p DocTypePolicy) string {
	if p.Side == SidePurchase {
		return TypeSupplierCredit
	}
	return TypeCreditNote
}
