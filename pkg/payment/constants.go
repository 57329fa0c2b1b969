package payment

// HTTP header constants
const (
	// HeaderPayment is the request header carrying the JSON-serialized Assertion.
	HeaderPayment = "X-Payment"

	// HeaderChallenge marks a response that carries a payment challenge.
	HeaderChallenge = "X-Payment-Challenge"

	// HeaderVerified marks a response whose request passed payment verification.
	HeaderVerified = "X-Payment-Verified"
)

// Error codes returned in JSON error bodies
const (
	// ErrCodePaymentRequired indicates payment is needed for the resource
	ErrCodePaymentRequired = "ERR_PAYMENT_REQUIRED"

	// ErrCodeMalformedPayment indicates invalid payment header format
	ErrCodeMalformedPayment = "ERR_MALFORMED_PAYMENT"

	// ErrCodePaymentInternal indicates internal payment processing errors
	ErrCodePaymentInternal = "ERR_PAYMENT_INTERNAL"
)

// Verification error texts used in 402 bodies. They are part of the wire
// contract, so clients may match on them.
const (
	ErrTextInvalidHeaderFormat = "Invalid payment header format"
	ErrTextSignatureInvalid    = "Signature verification failed"
	ErrTextChallengeMismatch   = "Challenge does not match route requirements"
	ErrTextChallengeExpired    = "Challenge expired"
	ErrTextAssertionReplayed   = "Payment assertion already used"
)
