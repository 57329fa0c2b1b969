// Package client provides an http.RoundTripper that transparently answers
// payment challenges: it detects a 402 response, obtains a signed payment
// assertion from a configured signer, and retries the original request
// exactly once with the assertion attached.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-softwarelab/common/pkg/to"

	"github.com/evmgate/go-payment-middleware/pkg/internal/logging"
	"github.com/evmgate/go-payment-middleware/pkg/payment"
)

// Config configures the payment transport.
type Config struct {
	// Base performs the actual network calls. Defaults to http.DefaultTransport.
	Base http.RoundTripper

	// Logger is used for handshake diagnostics.
	Logger *slog.Logger
}

// WithBase configures the underlying round tripper.
func WithBase(base http.RoundTripper) func(*Config) {
	if base == nil {
		return func(cfg *Config) {}
	}

	return func(cfg *Config) {
		cfg.Base = base
	}
}

// WithLogger configures the transport to use the provided logger.
func WithLogger(logger *slog.Logger) func(*Config) {
	if logger == nil {
		return func(cfg *Config) {}
	}

	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// handshakeState is the client-side protocol state. Modeling the flow as
// an explicit machine makes "exactly one retry, never more" structural.
type handshakeState uint8

const (
	stateSent handshakeState = iota
	stateChallengeReceived
	stateSigning
	stateRetried
)

// Transport is the retrying http.RoundTripper. It is safe for concurrent
// use; every request runs its own handshake.
type Transport struct {
	base   http.RoundTripper
	signer Signer
	logger *slog.Logger
}

// NewTransport creates a payment transport. A signer is required: without
// one a challenge could never be answered, so its absence is a
// configuration error raised before any network activity.
func NewTransport(signer Signer, opts ...func(*Config)) (*Transport, error) {
	if signer == nil {
		return nil, payment.ErrNoSigner
	}

	config := to.OptionsWithDefault(Config{
		Base: http.DefaultTransport,
	}, opts...)

	return &Transport{
		base:   config.Base,
		signer: signer,
		logger: logging.Child(config.Logger, "payment-transport"),
	}, nil
}

// NewHTTPClient returns an http.Client whose transport answers payment
// challenges with the given signer.
func NewHTTPClient(signer Signer, opts ...func(*Config)) (*http.Client, error) {
	transport, err := NewTransport(signer, opts...)
	if err != nil {
		return nil, err
	}

	return &http.Client{Transport: transport}, nil
}

// RoundTrip executes the request and, when challenged, signs and retries
// it exactly once. The second response is final whatever its status. A
// 402 without a parsable challenge is passed through unmodified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := bufferBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}

	var (
		state     = stateSent
		resp      *http.Response
		challenge *payment.Challenge
		assertion *payment.Assertion
	)

	for {
		switch state {
		case stateSent:
			resp, err = t.base.RoundTrip(cloneRequest(req, body))
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusPaymentRequired {
				return resp, nil
			}
			state = stateChallengeReceived

		case stateChallengeReceived:
			challenge, resp, err = extractChallenge(resp)
			if err != nil {
				return nil, err
			}
			if challenge == nil {
				// the caller may legitimately want to see the raw 402
				return resp, nil
			}
			t.logger.Debug("payment challenge received",
				slog.String("price", challenge.Price),
				slog.String("currency", challenge.Currency),
				slog.Int64("chain_id", challenge.ChainID))
			state = stateSigning

		case stateSigning:
			assertion, err = t.signer.SignChallenge(req.Context(), challenge)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", payment.ErrPaymentSigningFailed, err.Error())
			}
			if assertion == nil {
				return nil, payment.ErrPaymentSigningFailed
			}
			state = stateRetried

		case stateRetried:
			retry := cloneRequest(req, body)
			if err := attachAssertion(retry, assertion); err != nil {
				return nil, err
			}

			return t.base.RoundTrip(retry)
		}
	}
}

// bufferBody reads the request body into memory so it can be replayed on
// the retry. A nil body stays nil.
func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(req.Body)
	if closeErr := req.Body.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	return body, nil
}

// cloneRequest copies the original request, preserving every header,
// method and body exactly as the caller set them.
func cloneRequest(req *http.Request, body []byte) *http.Request {
	clone := req.Clone(req.Context())
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.ContentLength = int64(len(body))
	}

	return clone
}

// extractChallenge parses the challenge out of a 402 response body. When
// the body carries no challenge, the response is returned with its body
// restored so the caller sees it untouched.
func extractChallenge(resp *http.Response) (*payment.Challenge, *http.Response, error) {
	raw, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read challenge response: %w", err)
	}

	var required payment.RequiredResponse
	if unmarshalErr := json.Unmarshal(raw, &required); unmarshalErr != nil || required.Challenge == nil {
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		return nil, resp, nil
	}

	return required.Challenge, nil, nil
}

func attachAssertion(req *http.Request, assertion *payment.Assertion) error {
	serialized, err := json.Marshal(assertion)
	if err != nil {
		return fmt.Errorf("failed to serialize payment assertion: %w", err)
	}

	req.Header.Set(payment.HeaderPayment, string(serialized))
	return nil
}
