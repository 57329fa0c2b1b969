package client

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/evmgate/go-payment-middleware/pkg/payment"
	"github.com/evmgate/go-payment-middleware/pkg/signature"
	"github.com/evmgate/go-payment-middleware/pkg/verification"
)

// Signer obtains a user's signature over a payment challenge. A call may
// suspend indefinitely awaiting external interaction (e.g. a wallet
// approval prompt). Returning a nil assertion with a nil error means the
// user declined to sign.
type Signer interface {
	SignChallenge(ctx context.Context, challenge *payment.Challenge) (*payment.Assertion, error)
}

// KeySigner signs challenges locally with a secp256k1 private key.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner creates a signer for the given private key.
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// KeySignerFromHex creates a signer from a hex-encoded private key.
func KeySignerFromHex(keyHex string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return NewKeySigner(key), nil
}

// Address returns the signing address.
func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignChallenge signs the EIP-712 digest of the challenge.
func (s *KeySigner) SignChallenge(_ context.Context, challenge *payment.Challenge) (*payment.Assertion, error) {
	hash, err := signature.Hash(challenge)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign challenge: %w", err)
	}

	// transform the recovery id to the conventional 27/28 form
	sig[64] += 27

	return &payment.Assertion{
		Signature: "0x" + hex.EncodeToString(sig),
		Signer:    s.address.Hex(),
		Challenge: challenge,
	}, nil
}

// AuthoritySigner signs challenges through a delegated authority on
// behalf of a user whose wallet the authority manages.
type AuthoritySigner struct {
	authority verification.Authority
	userID    string
}

// NewAuthoritySigner creates a signer backed by the given authority.
func NewAuthoritySigner(authority verification.Authority, userID string) *AuthoritySigner {
	return &AuthoritySigner{
		authority: authority,
		userID:    userID,
	}
}

// SignChallenge resolves the user's wallet and asks the authority to sign.
// A user without a wallet, or one who declines, yields a nil assertion.
func (s *AuthoritySigner) SignChallenge(ctx context.Context, challenge *payment.Challenge) (*payment.Assertion, error) {
	address, err := s.authority.WalletAddress(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wallet address: %w", err)
	}
	if address == "" {
		return nil, nil
	}

	sig, err := s.authority.SignPayment(ctx, challenge, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payment: %w", err)
	}
	if sig == "" {
		return nil, nil
	}

	return &payment.Assertion{
		Signature: sig,
		Signer:    address,
		Challenge: challenge,
	}, nil
}
