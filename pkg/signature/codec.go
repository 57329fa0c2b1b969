// Package signature implements the cryptographic primitive layer of the
// payment protocol: deterministic EIP-712 hashing of a challenge and
// secp256k1 signer recovery over that hash. It is pure and side-effect
// free, so the issuing and the verifying side produce identical digests
// without any network calls.
package signature

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/evmgate/go-payment-middleware/pkg/payment"
)

const (
	// DomainName is the EIP-712 domain name of the payment protocol.
	DomainName = "PaymentGate"

	// DomainVersion is the EIP-712 domain version of the payment protocol.
	DomainVersion = "1"

	// PrimaryType is the EIP-712 primary type of the signed message.
	PrimaryType = "PaymentChallenge"

	// No on-chain contract takes part in verification.
	verifyingContract = "0x0000000000000000000000000000000000000000"

	signatureLength = 65
)

// Domain returns the EIP-712 domain bound to the given chain id.
func Domain(chainID int64) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           math.NewHexOrDecimal256(chainID),
		VerifyingContract: verifyingContract,
	}
}

// typeSchema declares the signed message layout. Field order is part of
// the wire contract and must never change.
func typeSchema() apitypes.Types {
	return apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		PrimaryType: {
			{Name: "price", Type: "string"},
			{Name: "currency", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "merchant", Type: "address"},
			{Name: "timestamp", Type: "uint256"},
			{Name: "description", Type: "string"},
		},
	}
}

// TypedData canonicalizes a challenge into the declared schema.
func TypedData(challenge *payment.Challenge) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       typeSchema(),
		PrimaryType: PrimaryType,
		Domain:      Domain(challenge.ChainID),
		Message: apitypes.TypedDataMessage{
			"price":       challenge.Price,
			"currency":    challenge.Currency,
			"chainId":     new(big.Int).SetInt64(challenge.ChainID),
			"merchant":    challenge.Merchant,
			"timestamp":   new(big.Int).SetInt64(challenge.Timestamp),
			"description": challenge.Description,
		},
	}
}

// Hash produces the deterministic EIP-712 digest of a challenge. Two
// challenges with identical fields always hash identically; any field
// difference changes the hash.
func Hash(challenge *payment.Challenge) ([]byte, error) {
	if challenge == nil {
		return nil, fmt.Errorf("cannot hash a nil challenge")
	}

	digest, _, err := apitypes.TypedDataAndHash(TypedData(challenge))
	if err != nil {
		return nil, fmt.Errorf("failed to hash challenge: %w", err)
	}

	return digest, nil
}

// RecoverSigner recovers the signing address from a hex-encoded signature
// over the given hash. It returns payment.ErrMalformedSignature for
// structurally invalid input; a well-formed but wrong signature recovers
// to some address without error, and equality with the claimed signer is
// the caller's concern.
func RecoverSigner(signatureHex string, hash []byte) (common.Address, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", payment.ErrMalformedSignature, err.Error())
	}

	if len(raw) != signatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d",
			payment.ErrMalformedSignature, signatureLength, len(raw))
	}

	// Accept both the raw recovery id (0/1) and the transformed one (27/28).
	sig := make([]byte, signatureLength)
	copy(sig, raw)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s", payment.ErrMalformedSignature, err.Error())
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// Verify reports whether the signature over the given hash recovers to an
// address case-insensitively equal to the claimed signer.
func Verify(signatureHex string, hash []byte, claimedSigner string) bool {
	if !common.IsHexAddress(claimedSigner) {
		return false
	}

	recovered, err := RecoverSigner(signatureHex, hash)
	if err != nil {
		return false
	}

	return recovered == common.HexToAddress(claimedSigner)
}
