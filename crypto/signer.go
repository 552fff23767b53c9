// Package crypto signs extrinsic payloads with the scheme a network is
// configured for.
package crypto

import (
	"fmt"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// MaxUnhashedPayload is the longest payload signed as is. Longer payloads
// are replaced by their blake2-256 digest.
const MaxUnhashedPayload = 256

// Signer produces raw signatures over signing payloads.
type Signer interface {
	Scheme() chainspecs.SignatureType
	// PublicKey is the scheme's public key encoding.
	PublicKey() []byte
	// AccountId is the on-chain account the key controls.
	AccountId() []byte
	Sign(payload []byte) ([]byte, error)
}

// PrepareSigningMessage applies the payload length rule.
func PrepareSigningMessage(payload []byte) []byte {
	if len(payload) > MaxUnhashedPayload {
		return common.Blake2b256(payload)
	}
	return payload
}

// NewSigner builds a signer from a 32-byte secret seed.
func NewSigner(scheme chainspecs.SignatureType, seed []byte) (Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: seed has %d bytes, want %d", suberrors.ErrVInvalidArgument, len(seed), SeedSize)
	}
	switch scheme {
	case chainspecs.SignatureSr25519:
		return NewSr25519Signer(seed)
	case chainspecs.SignatureEd25519:
		return NewEd25519Signer(seed), nil
	case chainspecs.SignatureEcdsa:
		return NewEcdsaSigner(seed)
	case chainspecs.SignatureEthereum:
		return NewEthereumSigner(seed)
	}
	return nil, fmt.Errorf("%w: %s", suberrors.ErrUUnsupportedSignature, scheme)
}

// SignerFromHex is NewSigner over a 0x prefixed or bare hex seed.
func SignerFromHex(scheme chainspecs.SignatureType, seed string) (Signer, error) {
	raw, err := common.DecodeHex(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: seed: %v", suberrors.ErrDMalformedHex, err)
	}
	return NewSigner(scheme, raw)
}

// Verify checks sig over payload against publicKey, the encoding a Signer
// of the same scheme reports from PublicKey.
func Verify(scheme chainspecs.SignatureType, publicKey, payload, sig []byte) (bool, error) {
	switch scheme {
	case chainspecs.SignatureSr25519:
		return verifySr25519(publicKey, payload, sig)
	case chainspecs.SignatureEd25519:
		return verifyEd25519(publicKey, payload, sig), nil
	case chainspecs.SignatureEcdsa:
		return verifyEcdsa(publicKey, payload, sig)
	case chainspecs.SignatureEthereum:
		return verifyEthereum(publicKey, payload, sig)
	}
	return false, fmt.Errorf("%w: %s", suberrors.ErrUUnsupportedSignature, scheme)
}
