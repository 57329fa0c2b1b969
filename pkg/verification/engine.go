// Package verification decides the validity of received payment
// assertions, either locally through signature recovery or by delegating
// to a configured external authority.
package verification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-softwarelab/common/pkg/to"

	"github.com/evmgate/go-payment-middleware/pkg/defs"
	"github.com/evmgate/go-payment-middleware/pkg/internal/logging"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
	"github.com/evmgate/go-payment-middleware/pkg/signature"
)

// Config configures the verification engine.
type Config struct {
	// Logger is used for verification diagnostics.
	Logger *slog.Logger
}

// WithLogger configures the engine to use the provided logger.
func WithLogger(logger *slog.Logger) func(*Config) {
	// don't override the default
	if logger == nil {
		return func(cfg *Config) {}
	}

	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// Engine verifies payment assertions. It is safe for concurrent use.
type Engine struct {
	mode      defs.VerificationMode
	authority Authority
	logger    *slog.Logger
}

// NewEngine creates a verification engine for the given mode. In delegated
// mode an authority must be supplied; without one the engine falls back to
// local signature recovery.
func NewEngine(mode defs.VerificationMode, authority Authority, opts ...func(*Config)) *Engine {
	config := to.OptionsWithDefault(Config{}, opts...)

	return &Engine{
		mode:      mode,
		authority: authority,
		logger:    logging.Child(config.Logger, "verification-engine"),
	}
}

// Verify decides the validity of an assertion. It never panics past this
// boundary: unexpected faults during hashing or recovery are converted to
// an invalid result with a "Verification error" text.
func (e *Engine) Verify(ctx context.Context, assertion *payment.Assertion) (result payment.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during verification", slog.Any("panic", r))
			result = invalid(fmt.Sprintf("Verification error: %v", r))
		}
	}()

	if assertion == nil || assertion.Signature == "" || assertion.Signer == "" || assertion.Challenge == nil {
		return invalid(payment.ErrTextInvalidHeaderFormat)
	}

	if e.mode == defs.ModeDelegated && e.authority != nil {
		return e.delegate(ctx, assertion)
	}

	return e.verifyLocally(assertion)
}

func (e *Engine) delegate(ctx context.Context, assertion *payment.Assertion) payment.VerificationResult {
	result, err := e.authority.VerifyPayment(ctx, assertion.Challenge, assertion.Signature, assertion.Signer)
	if err != nil {
		e.logger.Warn("delegated verification failed", logging.Error(err))
		return invalid(err.Error())
	}

	return result
}

func (e *Engine) verifyLocally(assertion *payment.Assertion) payment.VerificationResult {
	hash, err := signature.Hash(assertion.Challenge)
	if err != nil {
		return invalid(fmt.Sprintf("Verification error: %s", err.Error()))
	}

	if !signature.Verify(assertion.Signature, hash, assertion.Signer) {
		return invalid(payment.ErrTextSignatureInvalid)
	}

	return payment.VerificationResult{
		Valid:  true,
		Signer: assertion.Signer,
	}
}

func invalid(reason string) payment.VerificationResult {
	return payment.VerificationResult{
		Valid: false,
		Error: reason,
	}
}
