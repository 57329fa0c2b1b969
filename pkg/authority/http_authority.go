// Package authority provides an HTTP adapter for a remote verification
// and signing authority (e.g. a wallet-as-a-service provider), satisfying
// the verification.Authority capability interface.
package authority

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-softwarelab/common/pkg/to"

	"github.com/evmgate/go-payment-middleware/pkg/internal/logging"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
	"github.com/evmgate/go-payment-middleware/pkg/verification"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP authority client.
type Config struct {
	// Timeout bounds every authority call.
	Timeout time.Duration

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Logger is used for call diagnostics.
	Logger *slog.Logger
}

// WithTimeout configures the per-call timeout.
func WithTimeout(timeout time.Duration) func(*Config) {
	return func(cfg *Config) {
		cfg.Timeout = timeout
	}
}

// WithAPIKey configures bearer-token authentication.
func WithAPIKey(apiKey string) func(*Config) {
	return func(cfg *Config) {
		cfg.APIKey = apiKey
	}
}

// WithLogger configures the client to use the provided logger.
func WithLogger(logger *slog.Logger) func(*Config) {
	if logger == nil {
		return func(cfg *Config) {}
	}

	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// HTTPAuthority delegates verification and signing to a remote service.
type HTTPAuthority struct {
	client *resty.Client
	logger *slog.Logger
}

// NewHTTPAuthority creates a client for the authority at baseURL.
func NewHTTPAuthority(baseURL string, opts ...func(*Config)) *HTTPAuthority {
	config := to.OptionsWithDefault(Config{
		Timeout: defaultTimeout,
	}, opts...)

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(config.Timeout).
		SetHeader("Content-Type", "application/json")

	if config.APIKey != "" {
		client.SetAuthToken(config.APIKey)
	}

	return &HTTPAuthority{
		client: client,
		logger: logging.Child(config.Logger, "http-authority"),
	}
}

type verifyRequest struct {
	Challenge *payment.Challenge `json:"challenge"`
	Signature string             `json:"signature"`
	Signer    string             `json:"signer"`
}

type signRequest struct {
	Challenge *payment.Challenge `json:"challenge"`
	UserID    string             `json:"userId"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

type walletResponse struct {
	Address string `json:"address"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// VerifyPayment calls POST /verify and returns the authority's verdict
// unchanged.
func (a *HTTPAuthority) VerifyPayment(ctx context.Context, challenge *payment.Challenge, signatureHex, signer string) (payment.VerificationResult, error) {
	var result payment.VerificationResult
	var apiErr errorResponse

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(verifyRequest{Challenge: challenge, Signature: signatureHex, Signer: signer}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/verify")

	if err != nil {
		return payment.VerificationResult{}, fmt.Errorf("authority verify call failed: %w", err)
	}

	if resp.IsError() {
		a.logger.Warn("authority rejected verify call", slog.Int("status", resp.StatusCode()))
		return payment.VerificationResult{}, fmt.Errorf("authority verify returned status %d: %s",
			resp.StatusCode(), apiErr.Error)
	}

	return result, nil
}

// WalletAddress calls GET /wallets/{userId}/address. A 404 means the user
// has no wallet and yields an empty address.
func (a *HTTPAuthority) WalletAddress(ctx context.Context, userID string) (string, error) {
	var result walletResponse
	var apiErr errorResponse

	resp, err := a.client.R().
		SetContext(ctx).
		SetPathParam("userId", userID).
		SetResult(&result).
		SetError(&apiErr).
		Get("/wallets/{userId}/address")

	if err != nil {
		return "", fmt.Errorf("authority wallet lookup failed: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return "", nil
	}

	if resp.IsError() {
		return "", fmt.Errorf("authority wallet lookup returned status %d: %s",
			resp.StatusCode(), apiErr.Error)
	}

	return result.Address, nil
}

// SignPayment calls POST /sign on behalf of the given user. An empty
// signature in a successful response means the user declined.
func (a *HTTPAuthority) SignPayment(ctx context.Context, challenge *payment.Challenge, userID string) (string, error) {
	var result signResponse
	var apiErr errorResponse

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(signRequest{Challenge: challenge, UserID: userID}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/sign")

	if err != nil {
		return "", fmt.Errorf("authority sign call failed: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("authority sign returned status %d: %s",
			resp.StatusCode(), apiErr.Error)
	}

	return result.Signature, nil
}

var _ verification.Authority = (*HTTPAuthority)(nil)
