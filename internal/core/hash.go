package core

import (
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// HashGenerator derives the tamper-evident signature stored on a
// document at certification. The digest is SHA-384 over a strict
// field-order concatenation of the signed content, so any change to a
// signed field changes the signature.
//
// Chaining to the previous document's signature is off by default: the
// regime this engine targets certifies each document independently.
// Deployments that require a chain set ChainSignatures and the previous
// hash is folded into the payload.
type HashGenerator struct {
	ChainSignatures bool
}

// SignPayload is the signed subset of a document, captured after tax
// calculation and number assignment.
type SignPayload struct {
	Number       string
	IssueDate    string
	PartyTaxID   string
	Subtotal     string
	TaxAmount    string
	Total        string
	Currency     string
	Lines        []SignLine
	PreviousHash string
}

type SignLine struct {
	Description string
	Quantity    string
	UnitPrice   string
	TaxRate     string
}

// Sign computes the signature. Field order is fixed; separators keep
// adjacent fields from colliding when concatenated.
func (g HashGenerator) Sign(p SignPayload) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(p.Number, " ", ""))
	b.WriteByte(';')
	b.WriteString(p.IssueDate)
	b.WriteByte(';')
	b.WriteString(p.PartyTaxID)
	b.WriteByte(';')
	b.WriteString(p.Subtotal)
	b.WriteByte(';')
	b.WriteString(p.TaxAmount)
	b.WriteByte(';')
	b.WriteString(p.Total)
	b.WriteByte(';')
	b.WriteString(p.Currency)
	for _, l := range p.Lines {
		b.WriteByte('|')
		b.WriteString(l.Description)
		b.WriteByte(';')
		b.WriteString(l.Quantity)
		b.WriteByte(';')
		b.WriteString(l.UnitPrice)
		b.WriteByte(';')
		b.WriteString(l.TaxRate)
	}
	if g.ChainSignatures {
		b.WriteByte('|')
		b.WriteString(p.PreviousHash)
	}

	sum := sha512.Sum384([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// PayloadFor builds the sign payload from a document's final content.
// Called exactly once, at the moment the document becomes certified.
func PayloadFor(doc *Document, previousHash string) SignPayload {
	p := SignPayload{
		Number:       doc.Number,
		IssueDate:    doc.IssueDate,
		PartyTaxID:   doc.PartyTaxID,
		Subtotal:     doc.Subtotal.StringFixed(2),
		TaxAmount:    doc.TaxAmount.StringFixed(2),
		Total:        doc.Total.StringFixed(2),
		Currency:     doc.Currency,
		PreviousHash: previousHash,
	}
	for _, l := range doc.Lines {
		p.Lines = append(p.Lines, SignLine{
			Description: l.Description,
			Quantity:    l.Quantity.StringFixed(4),
			UnitPrice:   l.UnitPrice.StringFixed(2),
			TaxRate:     l.TaxRate.StringFixed(2),
		})
	}
	return p
}
