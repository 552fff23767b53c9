// Package address converts between raw account ids and their human-readable
// form. The representation is a property of the network, not of the value,
// so every codec call receives a Codec chosen by configuration.
package address

import (
	"bytes"
	"fmt"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/mr-tron/base58"
)

type Kind string

const (
	KindSS58     Kind = "ss58"
	KindEthereum Kind = "ethereum"
)

// Codec is the chain-parametrized account representation.
type Codec interface {
	Kind() Kind
	// AccountIDLength is the raw account id size in bytes.
	AccountIDLength() int
	// Encode renders a raw account id.
	Encode(accountID []byte) (string, error)
	// Decode accepts a rendered address or a hex encoded raw account id.
	Decode(address string) ([]byte, error)
}

// NewCodec builds the codec for a network's address kind.
func NewCodec(kind Kind, ss58Prefix uint16) (Codec, error) {
	switch kind {
	case KindSS58:
		return SS58{Prefix: ss58Prefix}, nil
	case KindEthereum:
		return Ethereum{}, nil
	default:
		return nil, fmt.Errorf("%w: address kind %q", suberrors.ErrVInvalidNetworkConfig, kind)
	}
}

const (
	ss58AccountLength   = 32
	ss58ChecksumLength  = 2
	ss58MaxSimplePrefix = 63
	ss58MaxPrefix       = 16383
)

var ss58Context = []byte("SS58PRE")

// SS58 is the Substrate checksum-prefixed base58 format.
type SS58 struct {
	Prefix uint16
}

func (s SS58) Kind() Kind {
	return KindSS58
}

func (s SS58) AccountIDLength() int {
	return ss58AccountLength
}

func (s SS58) prefixBytes() []byte {
	if s.Prefix <= ss58MaxSimplePrefix {
		return []byte{byte(s.Prefix)}
	}
	return []byte{
		byte((s.Prefix&0xfc)>>2) | 0x40,
		byte(s.Prefix>>8) | byte((s.Prefix&0x03)<<6),
	}
}

func ss58Checksum(data []byte) []byte {
	return common.Blake2b512(append(append([]byte{}, ss58Context...), data...))[:ss58ChecksumLength]
}

func (s SS58) Encode(accountID []byte) (string, error) {
	if len(accountID) != ss58AccountLength {
		return "", fmt.Errorf("%w: account id has %d bytes", suberrors.ErrVInvalidAddress, len(accountID))
	}
	if s.Prefix > ss58MaxPrefix {
		return "", fmt.Errorf("%w: ss58 prefix %d", suberrors.ErrVInvalidNetworkConfig, s.Prefix)
	}
	payload := append(s.prefixBytes(), accountID...)
	return base58.Encode(append(payload, ss58Checksum(payload)...)), nil
}

func (s SS58) Decode(addr string) ([]byte, error) {
	if raw, ok := decodeHexAccount(addr, ss58AccountLength); ok {
		return raw, nil
	}
	data, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suberrors.ErrVInvalidAddress, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty address", suberrors.ErrVInvalidAddress)
	}

	var prefix uint16
	var prefixLen int
	switch {
	case data[0] <= ss58MaxSimplePrefix:
		prefix, prefixLen = uint16(data[0]), 1
	case data[0] < 128 && len(data) > 1:
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0x3f
		prefix, prefixLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return nil, fmt.Errorf("%w: invalid ss58 prefix byte %#x", suberrors.ErrVInvalidAddress, data[0])
	}
	if len(data) != prefixLen+ss58AccountLength+ss58ChecksumLength {
		return nil, fmt.Errorf("%w: unexpected ss58 length %d", suberrors.ErrVInvalidAddress, len(data))
	}
	if prefix != s.Prefix {
		return nil, fmt.Errorf("%w: ss58 prefix %d, network expects %d", suberrors.ErrVInvalidAddress, prefix, s.Prefix)
	}
	body := data[:len(data)-ss58ChecksumLength]
	if !bytes.Equal(ss58Checksum(body), data[len(data)-ss58ChecksumLength:]) {
		return nil, fmt.Errorf("%w: bad ss58 checksum", suberrors.ErrVInvalidAddress)
	}
	return append([]byte{}, body[prefixLen:]...), nil
}

// Ethereum is the raw 20-byte account format rendered with an EIP-55 checksum.
type Ethereum struct{}

func (Ethereum) Kind() Kind {
	return KindEthereum
}

func (Ethereum) AccountIDLength() int {
	return common.AddressLength
}

func (Ethereum) Encode(accountID []byte) (string, error) {
	if len(accountID) != common.AddressLength {
		return "", fmt.Errorf("%w: account id has %d bytes", suberrors.ErrVInvalidAddress, len(accountID))
	}
	return common.BytesToAddress(accountID).Hex(), nil
}

func (Ethereum) Decode(addr string) ([]byte, error) {
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("%w: %q is not a 20-byte hex address", suberrors.ErrVInvalidAddress, addr)
	}
	return common.HexToAddress(addr).Bytes(), nil
}

func decodeHexAccount(s string, length int) ([]byte, bool) {
	if len(common.StripHexPrefix(s)) != 2*length || common.StripHexPrefix(s) == s {
		return nil, false
	}
	raw, err := common.DecodeHex(s)
	if err != nil {
		return nil, false
	}
	return raw, true
}
