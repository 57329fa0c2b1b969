package config_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmgate/go-payment-middleware/pkg/config"
	"github.com/evmgate/go-payment-middleware/pkg/defs"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
	"github.com/evmgate/go-payment-middleware/pkg/verification/testutil"
)

const merchant = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestPaymentConfigValidate(t *testing.T) {
	t.Run("valid local config", func(t *testing.T) {
		cfg := &config.PaymentConfig{MerchantAddress: merchant}

		require.NoError(t, cfg.Validate())
	})

	t.Run("missing merchant", func(t *testing.T) {
		cfg := &config.PaymentConfig{}

		assert.ErrorIs(t, cfg.Validate(), payment.ErrNoMerchant)
	})

	t.Run("malformed merchant", func(t *testing.T) {
		cfg := &config.PaymentConfig{MerchantAddress: "merchant.example.com"}

		assert.ErrorContains(t, cfg.Validate(), "not a well-formed account address")
	})

	t.Run("delegated mode without authority", func(t *testing.T) {
		cfg := &config.PaymentConfig{
			MerchantAddress: merchant,
			Mode:            defs.ModeDelegated,
		}

		assert.ErrorContains(t, cfg.Validate(), "requires an authority")
	})

	t.Run("delegated mode with authority", func(t *testing.T) {
		cfg := &config.PaymentConfig{
			MerchantAddress: merchant,
			Mode:            defs.ModeDelegated,
			Authority:       &testutil.AuthorityStub{},
		}

		require.NoError(t, cfg.Validate())
	})
}

func TestChallengeAgeDefaults(t *testing.T) {
	cfg := &config.PaymentConfig{MerchantAddress: merchant}

	assert.Equal(t, config.DefaultMaxChallengeAge, cfg.ChallengeAge())

	cfg.MaxChallengeAge = time.Minute
	assert.Equal(t, time.Minute, cfg.ChallengeAge())
}

func TestRouteConfigValidate(t *testing.T) {
	assert.NoError(t, config.RouteConfig{Price: "0.01"}.Validate())
	assert.ErrorIs(t, config.RouteConfig{}.Validate(), payment.ErrMissingPrice)
}

func TestFromEnv(t *testing.T) {
	t.Run("merchant only uses defaults", func(t *testing.T) {
		// given:
		t.Setenv(config.EnvMerchantAddress, merchant)

		// when:
		cfg, err := config.FromEnv()

		// then:
		require.NoError(t, err)
		assert.Equal(t, merchant, cfg.MerchantAddress)
		assert.Equal(t, config.DefaultChainID, cfg.ChainID)
		assert.Equal(t, config.DefaultCurrency, cfg.Currency)
		assert.Equal(t, defs.ModeLocal, cfg.Mode)
	})

	t.Run("full environment", func(t *testing.T) {
		// given:
		authority := &testutil.AuthorityStub{}
		t.Setenv(config.EnvMerchantAddress, merchant)
		t.Setenv(config.EnvChainID, "10")
		t.Setenv(config.EnvCurrency, "EURC")
		t.Setenv(config.EnvMode, "DELEGATED")
		t.Setenv(config.EnvAuthority, "primary")

		// when:
		cfg, err := config.FromEnv(config.WithAuthority("primary", authority))

		// then:
		require.NoError(t, err)
		assert.Equal(t, int64(10), cfg.ChainID)
		assert.Equal(t, "EURC", cfg.Currency)
		assert.Equal(t, defs.ModeDelegated, cfg.Mode)
		assert.Same(t, authority, cfg.Authority.(*testutil.AuthorityStub))
	})

	t.Run("missing merchant fails", func(t *testing.T) {
		t.Setenv(config.EnvMerchantAddress, "")

		_, err := config.FromEnv()

		assert.ErrorIs(t, err, payment.ErrNoMerchant)
	})

	t.Run("malformed chain id fails", func(t *testing.T) {
		t.Setenv(config.EnvMerchantAddress, merchant)
		t.Setenv(config.EnvChainID, "base-mainnet")

		_, err := config.FromEnv()

		assert.ErrorContains(t, err, config.EnvChainID)
	})

	t.Run("unknown mode fails", func(t *testing.T) {
		t.Setenv(config.EnvMerchantAddress, merchant)
		t.Setenv(config.EnvMode, "remote")

		_, err := config.FromEnv()

		assert.ErrorContains(t, err, config.EnvMode)
	})

	t.Run("unknown authority name fails", func(t *testing.T) {
		t.Setenv(config.EnvMerchantAddress, merchant)
		t.Setenv(config.EnvAuthority, "secondary")

		_, err := config.FromEnv(config.WithAuthority("primary", &testutil.AuthorityStub{}))

		assert.ErrorContains(t, err, `unknown authority "secondary"`)
	})

	t.Run("registering nil authority panics", func(t *testing.T) {
		assert.Panics(t, func() {
			config.WithAuthority("primary", nil)
		})
	})
}

func TestLoggerFromEnv(t *testing.T) {
	t.Run("defaults to info-level json", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "")
		t.Setenv(config.EnvLogFormat, "")

		logger, err := config.LoggerFromEnv()

		require.NoError(t, err)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("honors the configured level", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "DEBUG")
		t.Setenv(config.EnvLogFormat, "text")

		logger, err := config.LoggerFromEnv()

		require.NoError(t, err)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("unknown level fails", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "verbose")

		_, err := config.LoggerFromEnv()

		assert.ErrorContains(t, err, config.EnvLogLevel)
	})

	t.Run("unknown format fails", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "")
		t.Setenv(config.EnvLogFormat, "xml")

		_, err := config.LoggerFromEnv()

		assert.ErrorContains(t, err, config.EnvLogFormat)
	})
}
