package payment

import "context"

// Challenge describes a payment the server requires before it releases a
// protected resource. It is issued inside a 402 response and must be signed
// by the client exactly as received.
type Challenge struct {
	// Price is the required amount as a decimal string (e.g. "0.01").
	Price string `json:"price"`

	// Currency is the settlement currency symbol (e.g. "USDC").
	Currency string `json:"currency"`

	// ChainID identifies the network the payment is denominated against.
	ChainID int64 `json:"chain_id"`

	// Merchant is the checksummed address receiving the payment.
	Merchant string `json:"merchant"`

	// Timestamp is the unix time (seconds) the challenge was issued.
	Timestamp int64 `json:"timestamp"`

	// Description is an optional human-readable label for the resource.
	Description string `json:"description,omitempty"`

	// Nonce is a fresh random value making every challenge single-use.
	Nonce string `json:"nonce,omitempty"`
}

// Assertion is the signed proof of payment agreement sent by a client in
// the payment header. It embeds the challenge it was signed against.
type Assertion struct {
	Signature string     `json:"signature"`
	Signer    string     `json:"signer"`
	Challenge *Challenge `json:"challenge"`
}

// VerificationResult is the outcome of verifying an assertion.
// When Valid is false, Error always carries a human-readable reason.
type VerificationResult struct {
	Valid  bool   `json:"valid"`
	Signer string `json:"signer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RequiredResponse is the JSON body of a 402 response.
type RequiredResponse struct {
	Error             string     `json:"error"`
	Challenge         *Challenge `json:"challenge"`
	VerificationError string     `json:"verificationError,omitempty"`
}

// Info holds details about a verified payment, made available to the
// protected handler through the request context.
type Info struct {
	Signer    string
	Challenge *Challenge
}

// contextKey is a private type for context keys
type contextKey string

// InfoKey is the context key for verified payment info.
const InfoKey contextKey = "payment_info"

// GetInfoFromContext retrieves verified payment info from context.
func GetInfoFromContext(ctx context.Context) (*Info, bool) {
	info, ok := ctx.Value(InfoKey).(*Info)
	return info, ok
}

// WithInfo stores verified payment info in context.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, InfoKey, info)
}
