// Package testutil provides stubs for the verification capability
// interfaces, for use in tests across the module.
package testutil

import (
	"context"

	"github.com/evmgate/go-payment-middleware/pkg/payment"
)

// AuthorityStub is a canned-answer verification.Authority. Zero value
// returns empty results; set the fields to script behavior. Call counts
// are recorded for assertions.
type AuthorityStub struct {
	VerifyResult payment.VerificationResult
	VerifyErr    error
	VerifyCalls  int

	Wallet      string
	WalletErr   error
	WalletCalls int

	Signature string
	SignErr   error
	SignCalls int

	// LastChallenge records the challenge passed to the most recent
	// VerifyPayment or SignPayment call.
	LastChallenge *payment.Challenge
}

func (s *AuthorityStub) VerifyPayment(_ context.Context, challenge *payment.Challenge, _, _ string) (payment.VerificationResult, error) {
	s.VerifyCalls++
	s.LastChallenge = challenge
	return s.VerifyResult, s.VerifyErr
}

func (s *AuthorityStub) WalletAddress(context.Context, string) (string, error) {
	s.WalletCalls++
	return s.Wallet, s.WalletErr
}

func (s *AuthorityStub) SignPayment(_ context.Context, challenge *payment.Challenge, _ string) (string, error) {
	s.SignCalls++
	s.LastChallenge = challenge
	return s.Signature, s.SignErr
}
