package verification

import (
	"context"

	"github.com/evmgate/go-payment-middleware/pkg/payment"
)

// Authority is the capability interface of an external verification and
// signing service (e.g. a wallet-as-a-service provider). Implementations
// perform their own cryptographic or off-chain checks; the engine trusts
// their verdict in delegated mode and does not second-guess it.
type Authority interface {
	// VerifyPayment decides whether the signature over the challenge was
	// produced by the given signer. A transport or provider failure is
	// returned as an error; a clean rejection comes back as an invalid
	// VerificationResult carrying the authority's own error text.
	VerifyPayment(ctx context.Context, challenge *payment.Challenge, signatureHex, signer string) (payment.VerificationResult, error)

	// WalletAddress resolves the wallet address managed for the given
	// user. An empty address with a nil error means no wallet exists.
	WalletAddress(ctx context.Context, userID string) (string, error)

	// SignPayment signs the challenge on behalf of the given user and
	// returns the hex-encoded signature. An empty signature with a nil
	// error means the user declined.
	SignPayment(ctx context.Context, challenge *payment.Challenge, userID string) (string, error)
}
