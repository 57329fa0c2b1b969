package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-softwarelab/common/pkg/to"

	"github.com/evmgate/go-payment-middleware/pkg/defs"
	"github.com/evmgate/go-payment-middleware/pkg/internal/logging"
	"github.com/evmgate/go-payment-middleware/pkg/verification"
)

// Environment variables read by FromEnv and LoggerFromEnv.
const (
	EnvMerchantAddress = "PAYMENT_MERCHANT_ADDRESS"
	EnvChainID         = "PAYMENT_CHAIN_ID"
	EnvCurrency        = "PAYMENT_CURRENCY"
	EnvMode            = "PAYMENT_MODE"
	EnvAuthority       = "PAYMENT_AUTHORITY"
	EnvLogLevel        = "PAYMENT_LOG_LEVEL"
	EnvLogFormat       = "PAYMENT_LOG_FORMAT"
)

// EnvOptions configures environment-based config loading.
type EnvOptions struct {
	authorities map[string]verification.Authority
}

// WithAuthority registers a named authority selectable through PAYMENT_AUTHORITY.
func WithAuthority(name string, authority verification.Authority) func(*EnvOptions) {
	if authority == nil {
		panic("authority must be provided when registering it by name")
	}

	return func(opts *EnvOptions) {
		if opts.authorities == nil {
			opts.authorities = make(map[string]verification.Authority)
		}
		opts.authorities[name] = authority
	}
}

// FromEnv builds a PaymentConfig from process environment variables.
// A missing or malformed merchant address is a hard failure.
func FromEnv(opts ...func(*EnvOptions)) (*PaymentConfig, error) {
	options := to.OptionsWithDefault(EnvOptions{}, opts...)

	cfg := &PaymentConfig{
		MerchantAddress: os.Getenv(EnvMerchantAddress),
		ChainID:         DefaultChainID,
		Currency:        DefaultCurrency,
		Mode:            defs.ModeLocal,
	}

	if raw := os.Getenv(EnvChainID); raw != "" {
		chainID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvChainID, raw, err)
		}
		cfg.ChainID = chainID
	}

	if currency := os.Getenv(EnvCurrency); currency != "" {
		cfg.Currency = currency
	}

	if raw := os.Getenv(EnvMode); raw != "" {
		mode, err := defs.ParseVerificationModeStr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", EnvMode, err)
		}
		cfg.Mode = mode
	}

	if name := os.Getenv(EnvAuthority); name != "" {
		authority, ok := options.authorities[name]
		if !ok {
			return nil, fmt.Errorf("unknown authority %q selected by %s", name, EnvAuthority)
		}
		cfg.Authority = authority
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoggerFromEnv builds a structured logger from PAYMENT_LOG_LEVEL and
// PAYMENT_LOG_FORMAT. Unset variables default to info-level JSON.
func LoggerFromEnv() (*slog.Logger, error) {
	level := defs.LogLevelInfo
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		parsed, err := defs.ParseLogLevelStr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", EnvLogLevel, err)
		}
		level = parsed
	}

	handler := defs.JSONHandler
	if raw := os.Getenv(EnvLogFormat); raw != "" {
		parsed, err := defs.ParseHandlerTypeStr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", EnvLogFormat, err)
		}
		handler = parsed
	}

	return logging.New(level, handler), nil
}
