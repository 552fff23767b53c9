package scale

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// Bytes is a compact length-prefixed byte string.
type Bytes []byte

func (b Bytes) Encode(_ *Config) []byte {
	return append(EncodeCompact(uint64(len(b))), b...)
}

func (b Bytes) String() string {
	return common.Bytes2Hex(b)
}

func DecodeBytes(_ *Config, data []byte) (Decoded[Bytes], error) {
	n, prefix, err := decodeLength(data)
	if err != nil {
		return Decoded[Bytes]{}, err
	}
	if err := need(data, prefix+n, "bytes"); err != nil {
		return Decoded[Bytes]{}, err
	}
	return Decoded[Bytes]{BytesDecoded: prefix + n, Value: slices.Clone(data[prefix : prefix+n])}, nil
}

// String is a compact length-prefixed UTF-8 string. The prefix counts bytes.
type String string

func (s String) Encode(_ *Config) []byte {
	return append(EncodeCompact(uint64(len(s))), s...)
}

func (s String) String() string {
	return string(s)
}

func DecodeString(cfg *Config, data []byte) (Decoded[String], error) {
	d, err := DecodeBytes(cfg, data)
	if err != nil {
		return Decoded[String]{}, err
	}
	if !utf8.Valid(d.Value) {
		return Decoded[String]{}, suberrors.ErrDInvalidUTF8
	}
	return Decoded[String]{BytesDecoded: d.BytesDecoded, Value: String(d.Value)}, nil
}

// FixedBytes is written without a length prefix; its size is known from
// context.
type FixedBytes []byte

func (b FixedBytes) Encode(_ *Config) []byte {
	return slices.Clone(b)
}

func (b FixedBytes) String() string {
	return common.Bytes2Hex(b)
}

func DecodeFixedBytes(n int) DecodeFunc[FixedBytes] {
	return func(_ *Config, data []byte) (Decoded[FixedBytes], error) {
		if err := need(data, n, fmt.Sprintf("[u8; %d]", n)); err != nil {
			return Decoded[FixedBytes]{}, err
		}
		return Decoded[FixedBytes]{BytesDecoded: n, Value: slices.Clone(data[:n])}, nil
	}
}

// Hash is a 32-byte digest.
type Hash common.Hash

func (h Hash) Encode(_ *Config) []byte {
	return common.Hash(h).Bytes()
}

func (h Hash) String() string {
	return common.Hash(h).Hex()
}

func DecodeHash(_ *Config, data []byte) (Decoded[Hash], error) {
	if err := need(data, common.HashLength, "hash"); err != nil {
		return Decoded[Hash]{}, err
	}
	return Decoded[Hash]{BytesDecoded: common.HashLength, Value: Hash(common.BytesToHash(data[:common.HashLength]))}, nil
}
