package app

import (
	"context"
	"errors"
	"time"

	"fiscal-engine/internal/core"
	"fiscal-engine/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool      *pgxpool.Pool
	docs      core.DocumentService
	canceller core.CancellationEngine
	allocator core.SequenceAllocator
	parties   core.PartyService
	stock     core.StockService
	registers core.RegisterService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	docs core.DocumentService,
	canceller core.CancellationEngine,
	allocator core.SequenceAllocator,
	parties core.PartyService,
	stock core.StockService,
	registers core.RegisterService,
) ApplicationService {
	return &appService{
		pool:      pool,
		docs:      docs,
		canceller: canceller,
		allocator: allocator,
		parties:   parties,
		stock:     stock,
		registers: registers,
	}
}

// SaveDraft creates or replaces a draft document. Lines that name a
// product inherit its catalog price and tax rate when the request
// leaves them zero.
func (s *appService) SaveDraft(ctx context.Context, req SaveDraftRequest) (*DocumentResult, error) {
	issueDate := req.IssueDate
	if issueDate == "" {
		issueDate = time.Now().Format("2006-01-02")
	}

	doc := &core.Document{
		ID:             req.DocumentID,
		TypeCode:       req.TypeCode,
		SeriesID:       req.SeriesID,
		PartyID:        req.PartyID,
		IssueDate:      issueDate,
		DueDate:        req.DueDate,
		Currency:       req.Currency,
		ExchangeRate:   req.ExchangeRate,
		GlobalDiscount: req.GlobalDiscount,
		RetentionType:  req.RetentionType,
		RegisterID:     req.RegisterID,
	}
	if req.PaymentMethod != "" {
		doc.PaymentMethod = &req.PaymentMethod
	}

	for i, in := range req.Lines {
		line := core.LineItem{
			LineNumber:  i + 1,
			ProductID:   in.ProductID,
			Description: in.Description,
			Kind:        in.Kind,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Length:      in.Length,
			Width:       in.Width,
			Height:      in.Height,
			DiscountPct: in.DiscountPct,
			TaxRate:     in.TaxRate,
		}
		if in.ProductID != nil {
			product, err := s.stock.GetProduct(ctx, *in.ProductID)
			if err != nil {
				return nil, err
			}
			if line.Description == "" {
				line.Description = product.Name
			}
			if line.Kind == "" {
				line.Kind = product.Kind
			}
			if line.UnitPrice.IsZero() {
				line.UnitPrice = product.UnitPrice
			}
			if line.TaxRate.IsZero() {
				line.TaxRate = product.TaxRate
			}
		}
		doc.Lines = append(doc.Lines, line)
	}

	saved, err := s.docs.SaveDraft(ctx, doc)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: saved}, nil
}

func (s *appService) CertifyDocument(ctx context.Context, documentID int, req CertifyRequest) (*DocumentResult, error) {
	start := time.Now()
	doc, err := s.docs.Certify(ctx, documentID, core.CertifyOptions{
		ManualNumber: req.ManualNumber,
		ManualHash:   req.ManualHash,
		UserID:       req.UserID,
	})
	if err != nil {
		metrics.CertifyFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	metrics.CertifyDuration.Observe(time.Since(start).Seconds())
	metrics.DocumentsCertified.WithLabelValues(doc.TypeCode).Inc()
	return &DocumentResult{Document: doc}, nil
}

func (s *appService) CancelDocument(ctx context.Context, documentID int, reason string) (*CancellationResult, error) {
	res, err := s.canceller.Cancel(ctx, documentID, reason)
	if err != nil {
		return nil, err
	}
	metrics.DocumentsCancelled.WithLabelValues(res.Original.TypeCode).Inc()
	if res.CreditNote != nil {
		metrics.CreditNotesIssued.Inc()
	}
	return &CancellationResult{Original: res.Original, CreditNote: res.CreditNote}, nil
}

func (s *appService) LiquidateDocument(ctx context.Context, documentID int, req LiquidateRequest) (*DocumentResult, error) {
	doc, err := s.docs.Liquidate(ctx, documentID, req.Amount, req.PaymentMethod, req.RegisterID)
	if err != nil {
		return nil, err
	}
	metrics.Liquidations.Inc()
	return &DocumentResult{Document: doc}, nil
}

func (s *appService) GetDocument(ctx context.Context, documentID int) (*DocumentResult, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: doc}, nil
}

func (s *appService) ListDocuments(ctx context.Context, status *core.DocumentStatus, partyID *int) (*DocumentListResult, error) {
	docs, err := s.docs.ListDocuments(ctx, status, partyID)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Documents: docs}, nil
}

func (s *appService) ListDocumentTypes(ctx context.Context) (*DocumentTypeListResult, error) {
	return &DocumentTypeListResult{Types: core.DocumentTypes()}, nil
}

func (s *appService) CreateSeries(ctx context.Context, req CreateSeriesRequest) (*SeriesResult, error) {
	series, err := s.allocator.CreateSeries(ctx, req.Name, req.Code, req.FiscalYear, req.Manual, req.UserIDs)
	if err != nil {
		return nil, err
	}
	return &SeriesResult{Series: series}, nil
}

func (s *appService) ListSeries(ctx context.Context) (*SeriesListResult, error) {
	series, err := s.allocator.ListSeries(ctx)
	if err != nil {
		return nil, err
	}
	return &SeriesListResult{Series: series}, nil
}

func (s *appService) CreateParty(ctx context.Context, req CreatePartyRequest) (*PartyResult, error) {
	party, err := s.parties.CreateParty(ctx, req.Kind, req.Name, req.TaxID, req.Email, req.Phone, req.Address)
	if err != nil {
		return nil, err
	}
	return &PartyResult{Party: party}, nil
}

func (s *appService) ListParties(ctx context.Context, kind core.PartyKind) (*PartyListResult, error) {
	parties, err := s.parties.ListParties(ctx, kind)
	if err != nil {
		return nil, err
	}
	return &PartyListResult{Parties: parties}, nil
}

func (s *appService) GetPartyStatement(ctx context.Context, partyID int) (*PartyStatementResult, error) {
	stmt, err := s.parties.Statement(ctx, partyID)
	if err != nil {
		return nil, err
	}
	return &PartyStatementResult{Statement: stmt}, nil
}

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResult, error) {
	product, err := s.stock.CreateProduct(ctx, req.Code, req.Name, req.Kind, req.UnitPrice, req.TaxRate)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: product}, nil
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.stock.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*ProductResult, error) {
	product, err := s.stock.ReceiveStock(ctx, req.ProductID, req.Quantity, req.Note)
	if err != nil {
		return nil, err
	}
	return &ProductResult{Product: product}, nil
}

func (s *appService) GetStockMovements(ctx context.Context, productID int) (*StockMovementsResult, error) {
	moves, err := s.stock.Movements(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockMovementsResult{Movements: moves}, nil
}

func (s *appService) CreateRegister(ctx context.Context, name string) (*RegisterResult, error) {
	register, err := s.registers.CreateRegister(ctx, name)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Register: register}, nil
}

func (s *appService) ListRegisters(ctx context.Context) (*RegisterListResult, error) {
	registers, err := s.registers.ListRegisters(ctx)
	if err != nil {
		return nil, err
	}
	return &RegisterListResult{Registers: registers}, nil
}

func (s *appService) OpenRegister(ctx context.Context, registerID int) (*RegisterResult, error) {
	register, err := s.registers.OpenRegister(ctx, registerID)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Register: register}, nil
}

func (s *appService) CloseRegister(ctx context.Context, registerID int) (*RegisterResult, error) {
	register, err := s.registers.CloseRegister(ctx, registerID)
	if err != nil {
		return nil, err
	}
	return &RegisterResult{Register: register}, nil
}

func (s *appService) GetRegisterMovements(ctx context.Context, registerID int) (*CashMovementsResult, error) {
	moves, err := s.registers.Movements(ctx, registerID)
	if err != nil {
		return nil, err
	}
	return &CashMovementsResult{Movements: moves}, nil
}

func failureReason(err error) string {
	switch {
	case core.IsValidation(err):
		return "validation"
	case errors.Is(err, core.ErrSeriesUnavailable):
		return "series_unavailable"
	case errors.Is(err, core.ErrImmutable):
		return "immutable"
	case errors.Is(err, core.ErrLedgerPosting):
		return "ledger_posting"
	default:
		return "internal"
	}
}
