package scale

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// AccountId is a raw account id whose width and rendering come from the
// network's address codec.
type AccountId []byte

// NewAccountId parses a rendered address (or raw hex account id).
func NewAccountId(cfg *Config, addr string) (AccountId, error) {
	raw, err := cfg.addressCodec().Decode(addr)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (a AccountId) Encode(_ *Config) []byte {
	return slices.Clone(a)
}

func (a AccountId) String() string {
	return common.Bytes2Hex(a)
}

// Address renders the account with the network's codec.
func (a AccountId) Address(cfg *Config) (string, error) {
	return cfg.addressCodec().Encode(a)
}

func (a AccountId) Equal(b AccountId) bool {
	return bytes.Equal(a, b)
}

func DecodeAccountId(cfg *Config, data []byte) (Decoded[AccountId], error) {
	n := cfg.addressCodec().AccountIDLength()
	if err := need(data, n, "account id"); err != nil {
		return Decoded[AccountId]{}, err
	}
	return Decoded[AccountId]{BytesDecoded: n, Value: slices.Clone(data[:n])}, nil
}

type MultiAddressType uint8

const (
	MultiAddressId MultiAddressType = iota
	MultiAddressIndex
	MultiAddressRaw
	MultiAddressAddress32
	MultiAddressAddress20
)

func (t MultiAddressType) String() string {
	switch t {
	case MultiAddressId:
		return "Id"
	case MultiAddressIndex:
		return "Index"
	case MultiAddressRaw:
		return "Raw"
	case MultiAddressAddress32:
		return "Address32"
	case MultiAddressAddress20:
		return "Address20"
	}
	return fmt.Sprintf("MultiAddressType(%d)", uint8(t))
}

// MultiAddress is the tagged account reference introduced by a runtime
// upgrade. Runtimes before the upgrade only know the bare Id form, so the
// tag byte is written and expected only when cfg reports support for it.
type MultiAddress struct {
	Type MultiAddressType
	// Id, Raw, Address32 and Address20 payload
	Data []byte
	// Index payload
	Index uint32
}

func NewMultiAddressId(cfg *Config, addr string) (MultiAddress, error) {
	id, err := NewAccountId(cfg, addr)
	if err != nil {
		return MultiAddress{}, err
	}
	return MultiAddress{Type: MultiAddressId, Data: id}, nil
}

func MultiAddressFromAccountId(id AccountId) MultiAddress {
	return MultiAddress{Type: MultiAddressId, Data: slices.Clone(id)}
}

// AccountId returns the referenced account for the Id variant.
func (m MultiAddress) AccountId() (AccountId, bool) {
	if m.Type != MultiAddressId {
		return nil, false
	}
	return AccountId(m.Data), true
}

// Encode writes the bare payload when cfg predates tagged addresses. Only
// the Id variant is meaningful there.
func (m MultiAddress) Encode(cfg *Config) []byte {
	var payload []byte
	switch m.Type {
	case MultiAddressIndex:
		payload = EncodeCompact(uint64(m.Index))
	case MultiAddressRaw:
		payload = Bytes(m.Data).Encode(cfg)
	default:
		payload = slices.Clone(m.Data)
	}
	if !cfg.multiAddress() {
		return payload
	}
	return append([]byte{byte(m.Type)}, payload...)
}

func (m MultiAddress) String() string {
	if m.Type == MultiAddressIndex {
		return fmt.Sprintf("%s(%d)", m.Type, m.Index)
	}
	return fmt.Sprintf("%s(%s)", m.Type, common.Bytes2Hex(m.Data))
}

func DecodeMultiAddress(cfg *Config, data []byte) (Decoded[MultiAddress], error) {
	if !cfg.multiAddress() {
		d, err := DecodeAccountId(cfg, data)
		if err != nil {
			return Decoded[MultiAddress]{}, err
		}
		return Decoded[MultiAddress]{BytesDecoded: d.BytesDecoded, Value: MultiAddressFromAccountId(d.Value)}, nil
	}
	if err := need(data, 1, "multiaddress"); err != nil {
		return Decoded[MultiAddress]{}, err
	}
	tag := MultiAddressType(data[0])
	rest := data[1:]
	var payload []byte
	var consumed int
	switch tag {
	case MultiAddressId:
		d, err := DecodeAccountId(cfg, rest)
		if err != nil {
			return Decoded[MultiAddress]{}, err
		}
		payload, consumed = d.Value, d.BytesDecoded
	case MultiAddressIndex:
		d, err := DecodeCompactInt(cfg, rest)
		if err != nil {
			return Decoded[MultiAddress]{}, err
		}
		index, err := d.Value.Uint32()
		if err != nil {
			return Decoded[MultiAddress]{}, err
		}
		return Decoded[MultiAddress]{
			BytesDecoded: 1 + d.BytesDecoded,
			Value:        MultiAddress{Type: tag, Index: index},
		}, nil
	case MultiAddressRaw:
		d, err := DecodeBytes(cfg, rest)
		if err != nil {
			return Decoded[MultiAddress]{}, err
		}
		payload, consumed = d.Value, d.BytesDecoded
	case MultiAddressAddress32, MultiAddressAddress20:
		n := 32
		if tag == MultiAddressAddress20 {
			n = 20
		}
		d, err := DecodeFixedBytes(n)(cfg, rest)
		if err != nil {
			return Decoded[MultiAddress]{}, err
		}
		payload, consumed = d.Value, d.BytesDecoded
	default:
		return Decoded[MultiAddress]{}, fmt.Errorf("%w: multiaddress tag %d", suberrors.ErrDUnsupportedAddressType, data[0])
	}
	return Decoded[MultiAddress]{BytesDecoded: 1 + consumed, Value: MultiAddress{Type: tag, Data: payload}}, nil
}
