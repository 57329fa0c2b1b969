package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/evmgate/go-payment-middleware/pkg/config"
	"github.com/evmgate/go-payment-middleware/pkg/internal/guard"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
	"github.com/evmgate/go-payment-middleware/pkg/verification"
)

const (
	// HeaderPayment is the request header carrying the signed payment assertion.
	HeaderPayment = payment.HeaderPayment

	// HeaderPaymentVerified marks responses whose request passed verification.
	HeaderPaymentVerified = payment.HeaderVerified
)

// PaymentMiddlewareConfig is the configuration for the payment middleware.
type PaymentMiddlewareConfig struct {
	Logger *slog.Logger
}

// WithPaymentLogger configures the middleware to use the provided logger.
func WithPaymentLogger(logger *slog.Logger) func(*PaymentMiddlewareConfig) {
	// don't override the default
	if logger == nil {
		return func(cfg *PaymentMiddlewareConfig) {}
	}

	return func(cfg *PaymentMiddlewareConfig) {
		cfg.Logger = logger
	}
}

// PaymentMiddlewareFactory is a factory for payment middleware.
type PaymentMiddlewareFactory struct {
	cfg     *config.PaymentConfig
	engine  *verification.Engine
	options []func(*PaymentMiddlewareConfig)
}

// NewPayment creates a new payment middleware factory for a validated
// PaymentConfig. The returned factory can guard any number of routes with
// their own payment terms.
func NewPayment(cfg *config.PaymentConfig, opts ...func(*PaymentMiddlewareConfig)) (*PaymentMiddlewareFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("a payment config must be provided to create payment middleware")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mwConfig := PaymentMiddlewareConfig{}
	for _, opt := range opts {
		opt(&mwConfig)
	}

	engine := verification.NewEngine(cfg.Mode, cfg.Authority, verification.WithLogger(mwConfig.Logger))

	return &PaymentMiddlewareFactory{
		cfg:     cfg,
		engine:  engine,
		options: opts,
	}, nil
}

// HTTPHandler guards the provided handler with the given route terms.
func (f *PaymentMiddlewareFactory) HTTPHandler(route config.RouteConfig, next http.Handler) (http.Handler, error) {
	return f.HTTPHandlerWithOptions(route, next)
}

// HTTPHandlerWithOptions guards the provided handler with the given route
// terms, with additional per-route configuration.
//
// This method can be useful when the factory carries a default
// configuration but a specific handler needs its own (for example a
// dedicated logger).
func (f *PaymentMiddlewareFactory) HTTPHandlerWithOptions(route config.RouteConfig, next http.Handler, opts ...func(*PaymentMiddlewareConfig)) (http.Handler, error) {
	if next == nil {
		return nil, fmt.Errorf("next handler must be provided to apply payment middleware to it")
	}

	if err := route.Validate(); err != nil {
		return nil, err
	}

	mwConfig := PaymentMiddlewareConfig{}
	for _, opt := range append(f.options[:], opts...) {
		opt(&mwConfig)
	}

	return guard.NewMiddleware(next, f.cfg, route, f.engine, mwConfig.Logger), nil
}

// ShouldGetPaymentInfo retrieves verified payment info from the request
// context, failing when the middleware did not run.
func ShouldGetPaymentInfo(ctx context.Context) (*payment.Info, error) {
	info, ok := payment.GetInfoFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("payment info not found in context, the payment middleware did not run")
	}

	return info, nil
}
