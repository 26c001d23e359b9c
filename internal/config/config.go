package config

import (
	"fmt"
	"os"

	"fiscal-engine/internal/core"
	"fiscal-engine/internal/logger"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the process-level settings. Infrastructure knobs come
// from the environment; fiscal behavior comes from a TOML policy file
// so it can be versioned and audited next to the data it governs.
type Config struct {
	DatabaseURL string
	HTTPAddr    string

	FiscalPolicyPath string
	Fiscal           FiscalConfig

	LogLevel  string
	LogFormat string
	LogOutput string
}

// FiscalConfig is the on-disk fiscal policy. Every field has a default
// matching the Angolan regime, so a missing file is not an error.
type FiscalConfig struct {
	NumberingPolicy      string `toml:"numbering_policy"` // gap-tolerant, strict
	WithholdingRate      string `toml:"withholding_rate"`
	WithholdingThreshold string `toml:"withholding_threshold"`
	LocalCurrency        string `toml:"local_currency"`
	ChainSignatures      bool   `toml:"chain_signatures"`
}

func defaultFiscal() FiscalConfig {
	return FiscalConfig{
		NumberingPolicy:      string(core.GapTolerant),
		WithholdingRate:      "0.065",
		WithholdingThreshold: "20000",
		LocalCurrency:        "AOA",
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	logDefaults := logger.DefaultConfig()
	config := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		FiscalPolicyPath: getEnv("FISCAL_POLICY_FILE", "fiscal.toml"),
		LogLevel:         getEnv("LOG_LEVEL", logDefaults.Level),
		LogFormat:        getEnv("LOG_FORMAT", logDefaults.Format),
		LogOutput:        getEnv("LOG_OUTPUT", logDefaults.Output),
	}

	fiscal, err := loadFiscal(config.FiscalPolicyPath)
	if err != nil {
		return nil, err
	}
	config.Fiscal = fiscal

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadFiscal(path string) (FiscalConfig, error) {
	fiscal := defaultFiscal()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fiscal, nil
	}
	if _, err := toml.DecodeFile(path, &fiscal); err != nil {
		return fiscal, fmt.Errorf("failed to parse fiscal policy %s: %w", path, err)
	}
	return fiscal, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch core.NumberingPolicy(c.Fiscal.NumberingPolicy) {
	case core.GapTolerant, core.Strict:
	default:
		return fmt.Errorf("unknown numbering_policy %q", c.Fiscal.NumberingPolicy)
	}
	if _, err := decimal.NewFromString(c.Fiscal.WithholdingRate); err != nil {
		return fmt.Errorf("invalid withholding_rate %q: %w", c.Fiscal.WithholdingRate, err)
	}
	if _, err := decimal.NewFromString(c.Fiscal.WithholdingThreshold); err != nil {
		return fmt.Errorf("invalid withholding_threshold %q: %w", c.Fiscal.WithholdingThreshold, err)
	}
	return nil
}

// TaxPolicy materializes the fiscal file into the calculator's policy.
func (c *Config) TaxPolicy() core.TaxPolicy {
	rate, _ := decimal.NewFromString(c.Fiscal.WithholdingRate)
	threshold, _ := decimal.NewFromString(c.Fiscal.WithholdingThreshold)
	return core.TaxPolicy{
		WithholdingRate:      rate,
		WithholdingThreshold: threshold,
		LocalCurrency:        c.Fiscal.LocalCurrency,
	}
}

func (c *Config) Numbering() core.NumberingPolicy {
	return core.NumberingPolicy(c.Fiscal.NumberingPolicy)
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
