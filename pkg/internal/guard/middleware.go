// Package guard implements the server-side request state machine that
// challenges, verifies and finally grants or denies access to a protected
// operation.
package guard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evmgate/go-payment-middleware/pkg/challenge"
	"github.com/evmgate/go-payment-middleware/pkg/config"
	"github.com/evmgate/go-payment-middleware/pkg/internal/logging"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
	"github.com/evmgate/go-payment-middleware/pkg/verification"
)

// Config configures a guard middleware instance.
type Config struct {
	// Logger is used for request diagnostics.
	Logger *slog.Logger
}

// Middleware guards a single protected route. A fresh state machine runs
// per request: Open -> ChallengeIssued -> {Granted | Denied}; nothing
// persists across requests except the consumed-signature window.
type Middleware struct {
	next    http.Handler
	cfg     *config.PaymentConfig
	route   config.RouteConfig
	factory *challenge.Factory
	engine  *verification.Engine
	replays *ReplayLedger
	logger  *slog.Logger
	now     func() time.Time
}

// NewMiddleware creates the guard for one route. Both configs must have
// been validated by the caller.
func NewMiddleware(
	next http.Handler,
	cfg *config.PaymentConfig,
	route config.RouteConfig,
	engine *verification.Engine,
	logger *slog.Logger,
) *Middleware {
	return &Middleware{
		next:    next,
		cfg:     cfg,
		route:   route,
		factory: challenge.NewFactory(cfg),
		engine:  engine,
		replays: NewReplayLedger(cfg.ChallengeAge()),
		logger:  logging.Child(logger, "payment-guard"),
		now:     time.Now,
	}
}

func (m *Middleware) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	w := newStatusWriter(rw)
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("panic while processing payment", slog.Any("panic", rec))
			if !w.Written() {
				respondWithError(w, http.StatusInternalServerError, payment.ErrCodePaymentInternal,
					"Internal server error")
			}
			return
		}
		m.logger.Debug("payment request completed", slog.Int("status", w.Status()))
	}()

	header := r.Header.Get(payment.HeaderPayment)
	if header == "" {
		// first contact: not an error, the expected path
		m.respondWithChallenge(w, "")
		return
	}

	assertion, err := parseAssertion(header)
	if err != nil {
		m.logger.Debug("malformed payment header", logging.Error(err))
		m.respondWithChallenge(w, payment.ErrTextInvalidHeaderFormat)
		return
	}

	result := m.engine.Verify(r.Context(), assertion)
	if !result.Valid {
		m.respondWithChallenge(w, result.Error)
		return
	}

	if reason := m.checkAssertion(assertion); reason != "" {
		m.respondWithChallenge(w, reason)
		return
	}

	w.Header().Set(payment.HeaderVerified, "true")

	ctx := payment.WithInfo(r.Context(), &payment.Info{
		Signer:    result.Signer,
		Challenge: assertion.Challenge,
	})

	m.next.ServeHTTP(w, r.WithContext(ctx))
}

// checkAssertion re-derives the expected payment terms for the route and
// rejects an embedded challenge that disagrees or is stale, and a
// signature that was already consumed. The client echo is never trusted
// as authoritative.
func (m *Middleware) checkAssertion(assertion *payment.Assertion) string {
	ch := assertion.Challenge

	terms, err := m.factory.Resolve(m.route)
	if err != nil {
		// route was validated at construction, so this cannot happen mid-flight
		panic(err)
	}

	if ch.Price != terms.Price ||
		ch.Currency != terms.Currency ||
		ch.ChainID != terms.ChainID ||
		common.HexToAddress(ch.Merchant) != common.HexToAddress(terms.Merchant) {
		return payment.ErrTextChallengeMismatch
	}

	age := m.now().Unix() - ch.Timestamp
	maxAge := int64(m.cfg.ChallengeAge().Seconds())
	if age > maxAge || age < -maxAge {
		return payment.ErrTextChallengeExpired
	}

	if !m.replays.Consume(assertion.Signature) {
		return payment.ErrTextAssertionReplayed
	}

	return ""
}

// respondWithChallenge denies the request with a fresh challenge. Every
// 402 carries a new nonce and timestamp.
func (m *Middleware) respondWithChallenge(w http.ResponseWriter, verificationError string) {
	ch, err := m.factory.Create(m.route)
	if err != nil {
		m.logger.Error("failed to create challenge", logging.Error(err))
		respondWithError(w, http.StatusInternalServerError, payment.ErrCodePaymentInternal,
			"Internal server error")
		return
	}

	w.Header().Set(payment.HeaderChallenge, "true")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)

	body := payment.RequiredResponse{
		Error:             "Payment Required",
		Challenge:         ch,
		VerificationError: verificationError,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		m.logger.Warn("failed to write challenge response", logging.Error(err))
	}
}

func parseAssertion(header string) (*payment.Assertion, error) {
	var assertion payment.Assertion
	if err := json.Unmarshal([]byte(header), &assertion); err != nil {
		return nil, err
	}

	return &assertion, nil
}

// respondWithError creates a standardized error response
func respondWithError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]any{
		"status":      "error",
		"code":        code,
		"description": message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return
	}
}
