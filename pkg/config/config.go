// Package config holds the configuration values threaded explicitly into
// challenge creation, verification and the payment middleware. A config is
// treated as immutable once traffic is flowing; mutating it concurrently
// with requests is undefined behavior.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evmgate/go-payment-middleware/pkg/defs"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
	"github.com/evmgate/go-payment-middleware/pkg/verification"
)

// Fixed fallback values used when neither the route nor the payment
// config specifies one.
const (
	DefaultChainID  int64 = 8453
	DefaultCurrency       = "USDC"

	// DefaultMaxChallengeAge bounds how long a signed challenge stays
	// acceptable after issuance.
	DefaultMaxChallengeAge = 5 * time.Minute
)

// PaymentConfig is the process-wide payment configuration.
type PaymentConfig struct {
	// MerchantAddress receives the payments. Required, never client-suppliable.
	MerchantAddress string

	// ChainID is the default network id for challenges. Routes may override it.
	ChainID int64

	// Currency is the default currency symbol for challenges. Routes may override it.
	Currency string

	// Mode selects local signature recovery or delegated verification.
	Mode defs.VerificationMode

	// Authority performs verification in delegated mode.
	Authority verification.Authority

	// MaxChallengeAge bounds the accepted age of a signed challenge.
	// Zero means DefaultMaxChallengeAge.
	MaxChallengeAge time.Duration
}

// Validate reports configuration errors that must stop startup.
func (c *PaymentConfig) Validate() error {
	if c.MerchantAddress == "" {
		return payment.ErrNoMerchant
	}

	if !common.IsHexAddress(c.MerchantAddress) {
		return fmt.Errorf("merchant address %q is not a well-formed account address", c.MerchantAddress)
	}

	if c.Mode == defs.ModeDelegated && c.Authority == nil {
		return fmt.Errorf("delegated verification mode requires an authority")
	}

	return nil
}

// ChallengeAge returns the configured challenge age bound, defaulted.
func (c *PaymentConfig) ChallengeAge() time.Duration {
	if c.MaxChallengeAge <= 0 {
		return DefaultMaxChallengeAge
	}
	return c.MaxChallengeAge
}

// RouteConfig is the per-protected-operation payment configuration. Route
// values take precedence over PaymentConfig defaults.
type RouteConfig struct {
	// Price is the required amount as a decimal string. Required: prices
	// are never defaulted.
	Price string

	// Currency overrides the config default when set.
	Currency string

	// ChainID overrides the config default when set.
	ChainID int64

	// Description labels the protected resource in the signed message.
	Description string
}

// Validate reports route configuration errors.
func (r RouteConfig) Validate() error {
	if r.Price == "" {
		return payment.ErrMissingPrice
	}

	return nil
}
