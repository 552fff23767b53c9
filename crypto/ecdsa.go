package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// EcdsaSigner is the Substrate secp256k1 scheme: the digest is blake2-256
// and the account is the blake2-256 of the compressed public key.
type EcdsaSigner struct {
	key *ecdsa.PrivateKey
}

func NewEcdsaSigner(seed []byte) (*EcdsaSigner, error) {
	key, err := ethcrypto.ToECDSA(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: ecdsa seed: %v", suberrors.ErrVInvalidArgument, err)
	}
	return &EcdsaSigner{key: key}, nil
}

func (s *EcdsaSigner) Scheme() chainspecs.SignatureType {
	return chainspecs.SignatureEcdsa
}

// PublicKey is the 33-byte compressed key.
func (s *EcdsaSigner) PublicKey() []byte {
	return ethcrypto.CompressPubkey(&s.key.PublicKey)
}

func (s *EcdsaSigner) AccountId() []byte {
	return common.Blake2b256(s.PublicKey())
}

func (s *EcdsaSigner) Sign(payload []byte) ([]byte, error) {
	return ethcrypto.Sign(common.Blake2b256(PrepareSigningMessage(payload)), s.key)
}

func verifyEcdsa(publicKey, payload, sig []byte) (bool, error) {
	pub, err := ethcrypto.SigToPub(common.Blake2b256(PrepareSigningMessage(payload)), sig)
	if err != nil {
		return false, nil
	}
	return bytes.Equal(ethcrypto.CompressPubkey(pub), publicKey), nil
}

// EthereumSigner signs the keccak-256 digest with a recoverable signature.
// Public key and account are both the 20-byte address.
type EthereumSigner struct {
	key *ecdsa.PrivateKey
}

func NewEthereumSigner(seed []byte) (*EthereumSigner, error) {
	key, err := ethcrypto.ToECDSA(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: ethereum key: %v", suberrors.ErrVInvalidArgument, err)
	}
	return &EthereumSigner{key: key}, nil
}

func (s *EthereumSigner) Scheme() chainspecs.SignatureType {
	return chainspecs.SignatureEthereum
}

func (s *EthereumSigner) PublicKey() []byte {
	return ethcrypto.PubkeyToAddress(s.key.PublicKey).Bytes()
}

func (s *EthereumSigner) AccountId() []byte {
	return s.PublicKey()
}

func (s *EthereumSigner) Sign(payload []byte) ([]byte, error) {
	return ethcrypto.Sign(common.Keccak256(PrepareSigningMessage(payload)).Bytes(), s.key)
}

func verifyEthereum(address, payload, sig []byte) (bool, error) {
	pub, err := ethcrypto.SigToPub(common.Keccak256(PrepareSigningMessage(payload)).Bytes(), sig)
	if err != nil {
		return false, nil
	}
	return bytes.Equal(ethcrypto.PubkeyToAddress(*pub).Bytes(), address), nil
}
