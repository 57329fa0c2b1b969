package payment

import "errors"

var (
	// ErrMalformedSignature is returned when a signature is structurally
	// invalid (bad hex, wrong length) and no address can be recovered.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrMissingPrice is returned when a protected route was configured
	// without a price. Prices are never defaulted.
	ErrMissingPrice = errors.New("a price must be configured for a protected route")

	// ErrNoMerchant is returned when no merchant address is configured.
	ErrNoMerchant = errors.New("a merchant address must be configured")

	// ErrNoSigner is returned when a client transport is created without
	// a signer capability.
	ErrNoSigner = errors.New("a signer must be supplied to the payment transport")

	// ErrPaymentSigningFailed is returned when the configured signer
	// declined to produce an assertion for a received challenge.
	ErrPaymentSigningFailed = errors.New("payment signing failed")
)
