package client_test

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmgate/go-payment-middleware/pkg/client"
	"github.com/evmgate/go-payment-middleware/pkg/signature"
	"github.com/evmgate/go-payment-middleware/pkg/verification/testutil"
)

func TestKeySignerProducesVerifiableAssertion(t *testing.T) {
	// given:
	signer := newKeySigner(t)
	challenge := testChallenge()

	// when:
	assertion, err := signer.SignChallenge(context.Background(), challenge)

	// then: the assertion verifies against the same challenge
	require.NoError(t, err)
	assert.Equal(t, signer.Address().Hex(), assertion.Signer)
	assert.Same(t, challenge, assertion.Challenge)

	hash, err := signature.Hash(challenge)
	require.NoError(t, err)
	assert.True(t, signature.Verify(assertion.Signature, hash, assertion.Signer))
}

func TestKeySignerFromHex(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		// given:
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		keyHex := hex.EncodeToString(crypto.FromECDSA(key))

		// when:
		signer, err := client.KeySignerFromHex(keyHex)

		// then:
		require.NoError(t, err)
		assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), signer.Address())
	})

	t.Run("malformed key", func(t *testing.T) {
		_, err := client.KeySignerFromHex("not-a-key")

		assert.ErrorContains(t, err, "invalid private key")
	})
}

func TestKeySignerRejectsNilChallenge(t *testing.T) {
	_, err := newKeySigner(t).SignChallenge(context.Background(), nil)

	assert.Error(t, err)
}

func TestAuthoritySignerSignsThroughAuthority(t *testing.T) {
	// given:
	authority := &testutil.AuthorityStub{
		Wallet:    "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Signature: "0xdeadbeef",
	}
	signer := client.NewAuthoritySigner(authority, "user-42")
	challenge := testChallenge()

	// when:
	assertion, err := signer.SignChallenge(context.Background(), challenge)

	// then:
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", assertion.Signature)
	assert.Equal(t, authority.Wallet, assertion.Signer)
	assert.Same(t, challenge, authority.LastChallenge)
	assert.Equal(t, 1, authority.WalletCalls)
	assert.Equal(t, 1, authority.SignCalls)
}

func TestAuthoritySignerUserWithoutWallet(t *testing.T) {
	// given: the authority manages no wallet for the user
	signer := client.NewAuthoritySigner(&testutil.AuthorityStub{}, "user-42")

	// when:
	assertion, err := signer.SignChallenge(context.Background(), testChallenge())

	// then: a decline, not an error
	require.NoError(t, err)
	assert.Nil(t, assertion)
}

func TestAuthoritySignerUserDeclines(t *testing.T) {
	// given: a wallet exists but the signature request comes back empty
	authority := &testutil.AuthorityStub{Wallet: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}
	signer := client.NewAuthoritySigner(authority, "user-42")

	// when:
	assertion, err := signer.SignChallenge(context.Background(), testChallenge())

	// then:
	require.NoError(t, err)
	assert.Nil(t, assertion)
}

func TestAuthoritySignerSurfacesAuthorityErrors(t *testing.T) {
	t.Run("wallet lookup fails", func(t *testing.T) {
		authority := &testutil.AuthorityStub{WalletErr: errors.New("authority unavailable")}
		signer := client.NewAuthoritySigner(authority, "user-42")

		_, err := signer.SignChallenge(context.Background(), testChallenge())

		assert.ErrorContains(t, err, "failed to resolve wallet address")
	})

	t.Run("signing fails", func(t *testing.T) {
		authority := &testutil.AuthorityStub{
			Wallet:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			SignErr: errors.New("policy denied"),
		}
		signer := client.NewAuthoritySigner(authority, "user-42")

		_, err := signer.SignChallenge(context.Background(), testChallenge())

		assert.ErrorContains(t, err, "failed to sign payment")
	})
}
