package crypto

import (
	"crypto/ed25519"

	"github.com/colorfulnotion/subwallet/chainspecs"
	consensus "github.com/hdevalence/ed25519consensus"
)

// Ed25519Signer signs with the standard library and verifies under the
// ZIP-215 rules.
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

func NewEd25519Signer(seed []byte) *Ed25519Signer {
	return &Ed25519Signer{key: ed25519.NewKeyFromSeed(seed)}
}

func (s *Ed25519Signer) Scheme() chainspecs.SignatureType {
	return chainspecs.SignatureEd25519
}

func (s *Ed25519Signer) PublicKey() []byte {
	return []byte(s.key.Public().(ed25519.PublicKey))
}

func (s *Ed25519Signer) AccountId() []byte {
	return s.PublicKey()
}

func (s *Ed25519Signer) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(s.key, PrepareSigningMessage(payload)), nil
}

func verifyEd25519(publicKey, payload, sig []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return consensus.Verify(ed25519.PublicKey(publicKey), PrepareSigningMessage(payload), sig)
}
