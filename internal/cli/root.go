// Package cli is the operator's command tree. Every command wires the
// same engine the HTTP server runs, talks straight to the database and
// prints JSON, so output can be piped into other tooling.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"fiscal-engine/internal/app"
	"fiscal-engine/internal/config"
	"fiscal-engine/internal/core"
	"fiscal-engine/internal/db"
	"fiscal-engine/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fiscal",
	Short: "Fiscal document certification and ledger engine",
	Long: `fiscal drives the document engine from the command line: drafting,
certification, cancellation, payments and the master data around them.

Commands print JSON so output can be piped into jq or other tooling.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect builds the full service stack for one command invocation.
// The returned cleanup closes the pool.
func connect(ctx context.Context) (app.ApplicationService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return nil, nil, err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	svc := buildService(pool, cfg)
	return svc, pool.Close, nil
}

func buildService(pool *pgxpool.Pool, cfg *config.Config) app.ApplicationService {
	allocator := core.NewSequenceAllocator(pool)
	poster := core.NewLedgerPoster(pool)
	hasher := core.HashGenerator{ChainSignatures: cfg.Fiscal.ChainSignatures}
	taxes := cfg.TaxPolicy()

	docs := core.NewDocumentService(pool, allocator, hasher, poster, taxes,
		cfg.Numbering(), logger.GetLogger())
	canceller := core.NewCancellationEngine(pool, allocator, hasher, poster, taxes,
		logger.GetLogger())

	return app.NewAppService(pool, docs, canceller, allocator,
		core.NewPartyService(pool), core.NewStockService(pool), core.NewRegisterService(pool))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
