// Package challenge builds payment challenges from route-level and
// process-wide configuration.
package challenge

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evmgate/go-payment-middleware/pkg/config"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
)

const nonceBytes = 16

// Factory creates challenges for a fixed PaymentConfig snapshot.
// It is stateless apart from reading that snapshot.
type Factory struct {
	cfg *config.PaymentConfig
	now func() time.Time
}

// NewFactory creates a challenge factory. The config must have been
// validated by the caller.
func NewFactory(cfg *config.PaymentConfig) *Factory {
	return &Factory{
		cfg: cfg,
		now: time.Now,
	}
}

// Terms are the payment terms resolved for a route: what the server
// expects a client to have agreed to, independent of any particular
// challenge's nonce and timestamp.
type Terms struct {
	Price    string
	Currency string
	ChainID  int64
	Merchant string
}

// Resolve merges the route over the config defaults over the fixed
// protocol defaults. The price is never defaulted; a route without one is
// a configuration error.
func (f *Factory) Resolve(route config.RouteConfig) (Terms, error) {
	if err := route.Validate(); err != nil {
		return Terms{}, err
	}

	if f.cfg.MerchantAddress == "" {
		return Terms{}, payment.ErrNoMerchant
	}

	return Terms{
		Price:    route.Price,
		Currency: firstNonEmpty(route.Currency, f.cfg.Currency, config.DefaultCurrency),
		ChainID:  firstNonZero(route.ChainID, f.cfg.ChainID, config.DefaultChainID),
		// normalized to the canonical checksummed form
		Merchant: common.HexToAddress(f.cfg.MerchantAddress).Hex(),
	}, nil
}

// Create builds a fresh challenge for the given route, with a new random
// nonce and the current timestamp. Challenges are never reused.
func (f *Factory) Create(route config.RouteConfig) (*payment.Challenge, error) {
	terms, err := f.Resolve(route)
	if err != nil {
		return nil, err
	}

	nonce, err := freshNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate challenge nonce: %w", err)
	}

	return &payment.Challenge{
		Price:       terms.Price,
		Currency:    terms.Currency,
		ChainID:     terms.ChainID,
		Merchant:    terms.Merchant,
		Timestamp:   f.now().Unix(),
		Description: route.Description,
		Nonce:       nonce,
	}, nil
}

func freshNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
