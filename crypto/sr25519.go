package crypto

import (
	"fmt"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/suberrors"
)

const SeedSize = 32

var substrateContext = []byte("substrate")

type Sr25519Signer struct {
	secret *schnorrkel.SecretKey
	public [32]byte
}

// NewSr25519Signer expands a mini secret the way Substrate derives keys from
// a seed.
func NewSr25519Signer(seed []byte) (*Sr25519Signer, error) {
	var raw [32]byte
	copy(raw[:], seed)
	mini, err := schnorrkel.NewMiniSecretKeyFromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: sr25519 seed: %v", suberrors.ErrVInvalidArgument, err)
	}
	secret := mini.ExpandEd25519()
	pub, err := secret.Public()
	if err != nil {
		return nil, err
	}
	return &Sr25519Signer{secret: secret, public: pub.Encode()}, nil
}

func (s *Sr25519Signer) Scheme() chainspecs.SignatureType {
	return chainspecs.SignatureSr25519
}

func (s *Sr25519Signer) PublicKey() []byte {
	return s.public[:]
}

func (s *Sr25519Signer) AccountId() []byte {
	return s.public[:]
}

func (s *Sr25519Signer) Sign(payload []byte) ([]byte, error) {
	t := schnorrkel.NewSigningContext(substrateContext, PrepareSigningMessage(payload))
	sig, err := s.secret.Sign(t)
	if err != nil {
		return nil, err
	}
	enc := sig.Encode()
	return enc[:], nil
}

func verifySr25519(publicKey, payload, sig []byte) (bool, error) {
	if len(publicKey) != 32 || len(sig) != 64 {
		return false, fmt.Errorf("%w: sr25519 key %d bytes, signature %d bytes", suberrors.ErrVInvalidArgument, len(publicKey), len(sig))
	}
	var rawKey [32]byte
	var rawSig [64]byte
	copy(rawKey[:], publicKey)
	copy(rawSig[:], sig)
	pub := &schnorrkel.PublicKey{}
	if err := pub.Decode(rawKey); err != nil {
		return false, err
	}
	s := &schnorrkel.Signature{}
	if err := s.Decode(rawSig); err != nil {
		return false, nil
	}
	return pub.Verify(s, schnorrkel.NewSigningContext(substrateContext, PrepareSigningMessage(payload)))
}
