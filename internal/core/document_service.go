package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CertifyOptions carries the operator-supplied values for
// manual/recovery series, which bypass the allocator.
type CertifyOptions struct {
	ManualNumber string
	ManualHash   string
	// UserID identifies the issuing operator. Series with a non-empty
	// allowlist reject certification by anyone else.
	UserID int
}

// DocumentService owns the document lifecycle: drafts mutate freely,
// certification is a single transaction (validate → reserve → sign →
// flip → post), liquidation settles pending documents and synthesizes
// a born-certified receipt.
type DocumentService interface {
	SaveDraft(ctx context.Context, doc *Document) (*Document, error)
	Certify(ctx context.Context, documentID int, opts CertifyOptions) (*Document, error)
	Liquidate(ctx context.Context, documentID int, amount decimal.Decimal, paymentMethod string, registerID *int) (*Document, error)
	GetDocument(ctx context.Context, documentID int) (*Document, error)
	ListDocuments(ctx context.Context, status *DocumentStatus, partyID *int) ([]Document, error)
}

type documentService struct {
	pool      *pgxpool.Pool
	allocator SequenceAllocator
	hasher    HashGenerator
	poster    LedgerPoster
	taxes     TaxPolicy
	numbering NumberingPolicy
	log       zerolog.Logger
}

func NewDocumentService(pool *pgxpool.Pool, allocator SequenceAllocator, hasher HashGenerator,
	poster LedgerPoster, taxes TaxPolicy, numbering NumberingPolicy, log zerolog.Logger) DocumentService {
	return &documentService{
		pool:      pool,
		allocator: allocator,
		hasher:    hasher,
		poster:    poster,
		taxes:     taxes,
		numbering: numbering,
		log:       log.With().Str("component", "documents").Logger(),
	}
}

// SaveDraft inserts or updates a draft. Content replacement is
// wholesale (header + lines); derived amounts are recomputed here and
// never taken from the caller. Certified documents are rejected.
func (s *documentService) SaveDraft(ctx context.Context, doc *Document) (*Document, error) {
	if doc.PartyID == 0 {
		return nil, validationf("party", "a client or supplier must be selected")
	}
	if _, ok := PolicyFor(doc.TypeCode); !ok {
		return nil, validationf("type_code", "unknown document type %q", doc.TypeCode)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Party snapshot is denormalized onto the document so certified
	// content survives later master-data edits.
	err = tx.QueryRow(ctx, "SELECT name, tax_id FROM parties WHERE id = $1", doc.PartyID).
		Scan(&doc.PartyName, &doc.PartyTaxID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, validationf("party", "party %d not found", doc.PartyID)
		}
		return nil, fmt.Errorf("failed to resolve party %d: %w", doc.PartyID, err)
	}

	// Series must exist at draft time; active/inactive is checked at
	// certification, so drafts on a dormant series are allowed.
	var seriesExists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM document_series WHERE id = $1)", doc.SeriesID,
	).Scan(&seriesExists)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve series %d: %w", doc.SeriesID, err)
	}
	if !seriesExists {
		return nil, validationf("series", "series %d not found", doc.SeriesID)
	}

	cur := strings.ToUpper(strings.TrimSpace(doc.Currency))
	if cur != "" && cur != s.taxes.LocalCurrency && doc.ExchangeRate.IsZero() {
		return nil, validationf("exchange_rate",
			"foreign currency %s requires an exchange rate", cur)
	}

	s.taxes.Apply(doc)

	if doc.ID == 0 {
		err = tx.QueryRow(ctx, `
			INSERT INTO documents (type_code, series_id, number, status, certified,
				issue_date, due_date, accounting_date, party_id, party_name, party_tax_id,
				subtotal, global_discount, tax_amount, withholding, retention_type, retention_amount,
				total, currency, exchange_rate, contra_value, paid_amount, payment_method, register_id)
			VALUES ($1, $2, $3, $4, false, $5::date, NULLIF($6,'')::date, NULLIF($7,'')::date, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 0, NULLIF($21,''), $22)
			RETURNING id
		`, doc.TypeCode, doc.SeriesID, DraftNumber, string(StatusDraft),
			doc.IssueDate, doc.DueDate, doc.AccountingDate, doc.PartyID, doc.PartyName, doc.PartyTaxID,
			doc.Subtotal, doc.GlobalDiscount, doc.TaxAmount, doc.Withholding, string(retentionOrNone(doc.RetentionType)), doc.RetentionAmount,
			doc.Total, doc.Currency, doc.ExchangeRate, doc.ContraValue, deref(doc.PaymentMethod), doc.RegisterID).Scan(&doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert draft: %w", err)
		}
	} else {
		existing, err := fetchDocumentTx(ctx, tx, doc.ID, true)
		if err != nil {
			return nil, err
		}
		if err := CheckMutable(existing); err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			UPDATE documents SET type_code = $1, series_id = $2,
				issue_date = $3::date, due_date = NULLIF($4,'')::date, accounting_date = NULLIF($5,'')::date,
				party_id = $6, party_name = $7, party_tax_id = $8,
				subtotal = $9, global_discount = $10, tax_amount = $11, withholding = $12,
				retention_type = $13, retention_amount = $14, total = $15,
				currency = $16, exchange_rate = $17, contra_value = $18,
				payment_method = NULLIF($19,''), register_id = $20
			WHERE id = $21
		`, doc.TypeCode, doc.SeriesID,
			doc.IssueDate, doc.DueDate, doc.AccountingDate,
			doc.PartyID, doc.PartyName, doc.PartyTaxID,
			doc.Subtotal, doc.GlobalDiscount, doc.TaxAmount, doc.Withholding,
			string(retentionOrNone(doc.RetentionType)), doc.RetentionAmount, doc.Total,
			doc.Currency, doc.ExchangeRate, doc.ContraValue,
			deref(doc.PaymentMethod), doc.RegisterID, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update draft %d: %w", doc.ID, err)
		}

		if _, err = tx.Exec(ctx, "DELETE FROM document_lines WHERE document_id = $1", doc.ID); err != nil {
			return nil, fmt.Errorf("failed to replace draft lines: %w", err)
		}
	}

	if err := insertLinesTx(ctx, tx, doc.ID, doc.Lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit draft: %w", err)
	}

	return s.GetDocument(ctx, doc.ID)
}

// Certify runs the whole certification as one atomic unit of work:
// number reservation, signature, state flip and ledger postings commit
// together or roll back together. A reserved number is never attached
// to a document that was not saved.
func (s *documentService) Certify(ctx context.Context, documentID int, opts CertifyOptions) (*Document, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := fetchDocumentTx(ctx, tx, documentID, true)
	if err != nil {
		return nil, err
	}

	series, err := s.allocator.GetSeriesTx(ctx, tx, doc.SeriesID)
	if err != nil {
		return nil, err
	}

	if !series.AllowsUser(opts.UserID) {
		return nil, validationf("user_id",
			"user %d is not allowed to issue on series %s/%d", opts.UserID, series.Code, series.FiscalYear)
	}

	if err := CheckCertifiable(doc, series, opts.ManualNumber, opts.ManualHash); err != nil {
		return nil, err
	}

	// Amounts are derived: always recomputed from the final content,
	// never trusted from the stored row.
	s.taxes.Apply(doc)

	policy, _ := PolicyFor(doc.TypeCode)

	if series.IsManual {
		doc.Number = strings.TrimSpace(opts.ManualNumber)
		doc.Hash = strings.TrimSpace(opts.ManualHash)
		if s.numbering == Strict {
			// Strict numbering keeps even recovery series gap-free:
			// the literal number must continue the allocator stream.
			seq, err := s.allocator.ReserveTx(ctx, tx, series.ID, doc.TypeCode)
			if err != nil {
				return nil, err
			}
			if !strings.HasSuffix(doc.Number, fmt.Sprintf("/%d", seq)) {
				return nil, validationf("manual_number",
					"strict numbering: %q does not continue the series (expected sequence %d)", doc.Number, seq)
			}
		}
	} else {
		seq, err := s.allocator.ReserveTx(ctx, tx, series.ID, doc.TypeCode)
		if err != nil {
			return nil, err
		}
		doc.Number = FormatNumber(doc.TypeCode, series, seq)

		previous := ""
		if s.hasher.ChainSignatures {
			previous, err = lastHashTx(ctx, tx, series.ID)
			if err != nil {
				return nil, err
			}
		}
		doc.Hash = s.hasher.Sign(PayloadFor(doc, previous))
	}

	doc.Status = InitialStatus(policy)
	doc.Certified = true

	err = flipCertifiedTx(ctx, tx, doc)
	if err != nil {
		return nil, err
	}

	if err := s.poster.PostTx(ctx, tx, doc); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit certification: %w", err)
	}

	s.log.Info().Int("document_id", doc.ID).Str("number", doc.Number).
		Str("type", doc.TypeCode).Str("status", string(doc.Status)).
		Msg("document certified")

	return s.GetDocument(ctx, documentID)
}

// Liquidate applies a payment to a pending or partially paid document
// and synthesizes the receipt that proves it, born certified and PAID,
// numbered on the settled document's series.
func (s *documentService) Liquidate(ctx context.Context, documentID int, amount decimal.Decimal,
	paymentMethod string, registerID *int) (*Document, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := fetchDocumentTx(ctx, tx, documentID, true)
	if err != nil {
		return nil, err
	}

	newStatus, err := CheckLiquidatable(doc, amount)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		"UPDATE documents SET paid_amount = paid_amount + $1, status = $2 WHERE id = $3",
		amount, string(newStatus), doc.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment on %s: %w", doc.Number, err)
	}

	series, err := s.allocator.GetSeriesTx(ctx, tx, doc.SeriesID)
	if err != nil {
		return nil, err
	}

	receipt := &Document{
		TypeCode:      TypeReceipt,
		SeriesID:      doc.SeriesID,
		IssueDate:     time.Now().Format("2006-01-02"),
		PartyID:       doc.PartyID,
		PartyName:     doc.PartyName,
		PartyTaxID:    doc.PartyTaxID,
		Currency:      doc.Currency,
		ExchangeRate:  doc.ExchangeRate,
		RetentionType: RetentionNone,
		SourceID:      &doc.ID,
		PaymentMethod: &paymentMethod,
		RegisterID:    registerID,
		// The settlement line is not a service rendered: it must never
		// attract withholding, so it is classified GOODS with no
		// product reference (which also keeps stock untouched).
		Lines: []LineItem{{
			LineNumber:  1,
			Description: "Pagamento " + doc.Number,
			Kind:        LineGoods,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   amount,
		}},
	}

	if _, err := mintDerivedTx(ctx, tx, receipt, series, s.allocator, s.hasher, s.taxes, s.poster); err != nil {
		return nil, fmt.Errorf("failed to mint receipt for %s: %w", doc.Number, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit liquidation: %w", err)
	}

	s.log.Info().Str("document", doc.Number).Str("amount", amount.String()).
		Str("status", string(newStatus)).Msg("document liquidated")

	return s.GetDocument(ctx, documentID)
}

// mintDerivedTx persists a derived document (receipt or credit note)
// born certified: it reserves a number, signs, inserts the rows and
// posts the ledger effects, all inside the caller's transaction. Used
// by liquidation and by the cancellation engine, so derived documents
// are never constructed by hand anywhere else.
func mintDerivedTx(ctx context.Context, tx pgx.Tx, doc *Document, series *DocumentSeries,
	allocator SequenceAllocator, hasher HashGenerator, taxes TaxPolicy, poster LedgerPoster) (*Document, error) {

	policy, ok := PolicyFor(doc.TypeCode)
	if !ok {
		return nil, validationf("type_code", "unknown document type %q", doc.TypeCode)
	}

	taxes.Apply(doc)

	seq, err := allocator.ReserveTx(ctx, tx, series.ID, doc.TypeCode)
	if err != nil {
		return nil, err
	}
	doc.Number = FormatNumber(doc.TypeCode, series, seq)

	previous := ""
	if hasher.ChainSignatures {
		if previous, err = lastHashTx(ctx, tx, series.ID); err != nil {
			return nil, err
		}
	}
	doc.Hash = hasher.Sign(PayloadFor(doc, previous))

	doc.Status = InitialStatus(policy)
	doc.Certified = true
	doc.PaidAmount = doc.Total

	err = tx.QueryRow(ctx, `
		INSERT INTO documents (type_code, series_id, number, hash, status, certified, certified_at,
			issue_date, party_id, party_name, party_tax_id,
			subtotal, global_discount, tax_amount, withholding, retention_type, retention_amount,
			total, currency, exchange_rate, contra_value, paid_amount,
			source_document_id, payment_method, register_id)
		VALUES ($1, $2, $3, $4, $5, true, NOW(), $6::date, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, NULLIF($22,''), $23)
		RETURNING id
	`, doc.TypeCode, doc.SeriesID, doc.Number, doc.Hash, string(doc.Status),
		doc.IssueDate, doc.PartyID, doc.PartyName, doc.PartyTaxID,
		doc.Subtotal, doc.GlobalDiscount, doc.TaxAmount, doc.Withholding,
		string(retentionOrNone(doc.RetentionType)), doc.RetentionAmount,
		doc.Total, doc.Currency, doc.ExchangeRate, doc.ContraValue, doc.PaidAmount,
		doc.SourceID, deref(doc.PaymentMethod), doc.RegisterID).Scan(&doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s document: %w", doc.TypeCode, err)
	}

	if err := insertLinesTx(ctx, tx, doc.ID, doc.Lines); err != nil {
		return nil, err
	}
	for i := range doc.Lines {
		doc.Lines[i].DocumentID = doc.ID
	}

	if err := poster.PostTx(ctx, tx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *documentService) GetDocument(ctx context.Context, documentID int) (*Document, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	doc, err := fetchDocumentTx(ctx, tx, documentID, false)
	if err != nil {
		return nil, err
	}
	return doc, tx.Commit(ctx)
}

func (s *documentService) ListDocuments(ctx context.Context, status *DocumentStatus, partyID *int) ([]Document, error) {
	query := `
		SELECT id, type_code, series_id, number, COALESCE(hash, ''),
		       issue_date::text, COALESCE(due_date::text, ''), COALESCE(accounting_date::text, ''),
		       party_id, party_name, party_tax_id,
		       subtotal, global_discount, tax_amount, withholding, retention_type, retention_amount,
		       total, currency, exchange_rate, contra_value,
		       status, certified, paid_amount, source_document_id, cancel_reason,
		       payment_method, register_id, created_at, certified_at, cancelled_at
		FROM documents
		WHERE 1=1
	`
	args := []any{}
	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if partyID != nil {
		args = append(args, *partyID)
		query += fmt.Sprintf(" AND party_id = $%d", len(args))
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := scanDocument(rows, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ── Shared row plumbing ──────────────────────────────────────────────────────

type pgxRow interface {
	Scan(dest ...any) error
}

func scanDocument(row pgxRow, doc *Document) error {
	var retention string
	var paymentMethod *string
	if err := row.Scan(
		&doc.ID, &doc.TypeCode, &doc.SeriesID, &doc.Number, &doc.Hash,
		&doc.IssueDate, &doc.DueDate, &doc.AccountingDate,
		&doc.PartyID, &doc.PartyName, &doc.PartyTaxID,
		&doc.Subtotal, &doc.GlobalDiscount, &doc.TaxAmount, &doc.Withholding, &retention, &doc.RetentionAmount,
		&doc.Total, &doc.Currency, &doc.ExchangeRate, &doc.ContraValue,
		&doc.Status, &doc.Certified, &doc.PaidAmount, &doc.SourceID, &doc.CancelReason,
		&paymentMethod, &doc.RegisterID, &doc.CreatedAt, &doc.CertifiedAt, &doc.CancelledAt,
	); err != nil {
		return fmt.Errorf("failed to scan document: %w", err)
	}
	doc.RetentionType = RetentionType(retention)
	doc.PaymentMethod = paymentMethod
	return nil
}

func fetchDocumentTx(ctx context.Context, tx pgx.Tx, documentID int, forUpdate bool) (*Document, error) {
	query := `
		SELECT id, type_code, series_id, number, COALESCE(hash, ''),
		       issue_date::text, COALESCE(due_date::text, ''), COALESCE(accounting_date::text, ''),
		       party_id, party_name, party_tax_id,
		       subtotal, global_discount, tax_amount, withholding, retention_type, retention_amount,
		       total, currency, exchange_rate, contra_value,
		       status, certified, paid_amount, source_document_id, cancel_reason,
		       payment_method, register_id, created_at, certified_at, cancelled_at
		FROM documents
		WHERE id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var doc Document
	if err := scanDocument(tx.QueryRow(ctx, query, documentID), &doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %d not found", documentID)
		}
		return nil, err
	}

	lines, err := fetchLinesTx(ctx, tx, documentID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return &doc, nil
}

func fetchLinesTx(ctx context.Context, tx pgx.Tx, documentID int) ([]LineItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, document_id, line_number, product_id, description, kind,
		       quantity, unit_price, length, width, height, discount_pct, tax_rate, line_total
		FROM document_lines
		WHERE document_id = $1
		ORDER BY line_number
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var l LineItem
		var kind string
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.LineNumber, &l.ProductID, &l.Description, &kind,
			&l.Quantity, &l.UnitPrice, &l.Length, &l.Width, &l.Height, &l.DiscountPct, &l.TaxRate, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		l.Kind = LineKind(kind)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func insertLinesTx(ctx context.Context, tx pgx.Tx, documentID int, lines []LineItem) error {
	for i, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO document_lines (document_id, line_number, product_id, description, kind,
				quantity, unit_price, length, width, height, discount_pct, tax_rate, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, documentID, i+1, l.ProductID, l.Description, string(l.Kind),
			l.Quantity, l.UnitPrice, dimOrOne(l.Length), dimOrOne(l.Width), dimOrOne(l.Height),
			l.DiscountPct, l.TaxRate, LineTotal(l))
		if err != nil {
			return fmt.Errorf("failed to insert line %d: %w", i+1, err)
		}
	}
	return nil
}

func flipCertifiedTx(ctx context.Context, tx pgx.Tx, doc *Document) error {
	_, err := tx.Exec(ctx, `
		UPDATE documents
		SET number = $1, hash = $2, status = $3, certified = true, certified_at = NOW(),
		    subtotal = $4, global_discount = $5, tax_amount = $6, withholding = $7,
		    retention_amount = $8, total = $9, exchange_rate = $10, contra_value = $11,
		    paid_amount = CASE WHEN $3 = 'PAID' THEN $9 ELSE paid_amount END
		WHERE id = $12
	`, doc.Number, doc.Hash, string(doc.Status),
		doc.Subtotal, doc.GlobalDiscount, doc.TaxAmount, doc.Withholding,
		doc.RetentionAmount, doc.Total, doc.ExchangeRate, doc.ContraValue, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document %d on certification: %w", doc.ID, err)
	}

	// Stored line totals are refreshed to the recomputed values.
	for _, l := range doc.Lines {
		if _, err := tx.Exec(ctx, "UPDATE document_lines SET line_total = $1 WHERE id = $2", l.LineTotal, l.ID); err != nil {
			return fmt.Errorf("failed to refresh line total: %w", err)
		}
	}
	return nil
}

// lastHashTx returns the most recent signature in a series, used when
// signature chaining is enabled.
func lastHashTx(ctx context.Context, tx pgx.Tx, seriesID int) (string, error) {
	var hash string
	err := tx.QueryRow(ctx, `
		SELECT hash FROM documents
		WHERE series_id = $1 AND certified = true AND hash <> ''
		ORDER BY certified_at DESC, id DESC
		LIMIT 1
	`, seriesID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch previous hash: %w", err)
	}
	return hash, nil
}

func retentionOrNone(r RetentionType) RetentionType {
	if r == "" {
		return RetentionNone
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dimOrOne(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.NewFromInt(1)
	}
	return d
}
