package main

import (
	"context"
	"log"
	"net/http"

	"fiscal-engine/internal/api"
	"fiscal-engine/internal/app"
	"fiscal-engine/internal/config"
	"fiscal-engine/internal/core"
	"fiscal-engine/internal/db"
	"fiscal-engine/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("logger: %v", err)
	}
	mainLog := logger.WithComponent("main")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLog.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	allocator := core.NewSequenceAllocator(pool)
	poster := core.NewLedgerPoster(pool)
	hasher := core.HashGenerator{ChainSignatures: cfg.Fiscal.ChainSignatures}
	taxes := cfg.TaxPolicy()

	docService := core.NewDocumentService(pool, allocator, hasher, poster, taxes,
		cfg.Numbering(), logger.GetLogger())
	canceller := core.NewCancellationEngine(pool, allocator, hasher, poster, taxes,
		logger.GetLogger())

	svc := app.NewAppService(pool, docService, canceller, allocator,
		core.NewPartyService(pool), core.NewStockService(pool), core.NewRegisterService(pool))

	handler := api.NewHandler(svc)

	mainLog.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
	if err := http.ListenAndServe(cfg.HTTPAddr, handler); err != nil {
		mainLog.Fatal().Err(err).Msg("server stopped")
	}
}
