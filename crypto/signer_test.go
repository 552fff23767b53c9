package crypto

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"strings"
	"testing"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceSeed = "0xe5be9a5092b81bca64be81d212e7f2f9eba183bb7a90954f7b76361f6edb5c0a"
	aliceHex  = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	alithKey  = "5fb92d6e98884f76de468fa3f6278f8807c48bebc13595d45af5bdc4da702133"
	alith     = "f24ff3a9cf04c71dbc94d0b566f7a27b94566cac"
)

func TestSr25519DevAccount(t *testing.T) {
	s, err := SignerFromHex(chainspecs.SignatureSr25519, aliceSeed)
	require.NoError(t, err)
	assert.Equal(t, aliceHex, common.Bytes2String(s.AccountId()))
	assert.Equal(t, chainspecs.SignatureSr25519, s.Scheme())
}

func TestEthereumDevAccount(t *testing.T) {
	s, err := SignerFromHex(chainspecs.SignatureEthereum, alithKey)
	require.NoError(t, err)
	assert.Equal(t, alith, common.Bytes2String(s.AccountId()))
	assert.Equal(t, s.AccountId(), s.PublicKey())
}

func TestSignVerify(t *testing.T) {
	seed := common.Hex2Bytes(aliceSeed)
	short := []byte("payload")
	long := bytes.Repeat([]byte{7}, MaxUnhashedPayload+1)
	for _, scheme := range []chainspecs.SignatureType{
		chainspecs.SignatureSr25519,
		chainspecs.SignatureEd25519,
		chainspecs.SignatureEcdsa,
		chainspecs.SignatureEthereum,
	} {
		t.Run(string(scheme), func(t *testing.T) {
			s, err := NewSigner(scheme, seed)
			require.NoError(t, err)
			for _, payload := range [][]byte{short, long} {
				sig, err := s.Sign(payload)
				require.NoError(t, err)
				assert.Len(t, sig, signatureLength(scheme))

				ok, err := Verify(scheme, s.PublicKey(), payload, sig)
				require.NoError(t, err)
				assert.True(t, ok)

				tampered := append(bytes.Clone(payload), 1)
				ok, err = Verify(scheme, s.PublicKey(), tampered, sig)
				require.NoError(t, err)
				assert.False(t, ok)
			}
		})
	}
}

func signatureLength(scheme chainspecs.SignatureType) int {
	if scheme == chainspecs.SignatureEcdsa || scheme == chainspecs.SignatureEthereum {
		return 65
	}
	return 64
}

func TestPrepareSigningMessage(t *testing.T) {
	exact := bytes.Repeat([]byte{1}, MaxUnhashedPayload)
	assert.Equal(t, exact, PrepareSigningMessage(exact))

	long := append(bytes.Clone(exact), 2)
	assert.Equal(t, common.Blake2b256(long), PrepareSigningMessage(long))

	s := NewEd25519Signer(common.Hex2Bytes(aliceSeed))
	sig, err := s.Sign(long)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(s.PublicKey(), common.Blake2b256(long), sig))
}

func TestEcdsaAccountId(t *testing.T) {
	s, err := NewEcdsaSigner(common.Hex2Bytes(aliceSeed))
	require.NoError(t, err)
	assert.Len(t, s.PublicKey(), 33)
	assert.Equal(t, common.Blake2b256(s.PublicKey()), s.AccountId())
}

func TestSignerErrors(t *testing.T) {
	_, err := NewSigner(chainspecs.SignatureSr25519, []byte{1, 2, 3})
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))

	_, err = NewSigner("bls", common.Hex2Bytes(aliceSeed))
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedSignature))

	_, err = SignerFromHex(chainspecs.SignatureEd25519, "0xzz")
	assert.True(t, errors.Is(err, suberrors.ErrDMalformedHex))

	_, err = Verify("bls", nil, nil, nil)
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedSignature))

	_, err = Verify(chainspecs.SignatureSr25519, make([]byte, 31), nil, make([]byte, 64))
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))

	// secp256k1 keys must be below the group order
	_, err = NewSigner(chainspecs.SignatureEthereum, common.Hex2Bytes(strings.Repeat("ff", 32)))
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))
}
