package scale

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"slices"

	"github.com/colorfulnotion/subwallet/suberrors"
)

const (
	compactModeSingle = 0b00
	compactModeTwo    = 0b01
	compactModeFour   = 0b10
	compactModeBig    = 0b11

	// the big-integer mode stores byte count - 4 in six bits
	compactMaxBytes = 63 + 4
)

// CompactInt is an arbitrary precision unsigned integer in the
// variable-length compact encoding.
type CompactInt struct {
	v *big.Int
}

func NewCompactInt(v uint64) CompactInt {
	return CompactInt{v: new(big.Int).SetUint64(v)}
}

func NewCompactIntFromBig(v *big.Int) (CompactInt, error) {
	if v.Sign() < 0 {
		return CompactInt{}, fmt.Errorf("%w: compact %s", suberrors.ErrVNegativeUnsigned, v)
	}
	if v.BitLen() > compactMaxBytes*8 {
		return CompactInt{}, fmt.Errorf("%w: compact has %d bits", suberrors.ErrVValueOverflow, v.BitLen())
	}
	return CompactInt{v: new(big.Int).Set(v)}, nil
}

// EncodeCompact is a shorthand for NewCompactInt(v).Encode(nil).
func EncodeCompact(v uint64) []byte {
	return NewCompactInt(v).Encode(nil)
}

func (c CompactInt) Big() *big.Int {
	if c.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.v)
}

// Uint64 truncates values wider than 64 bits.
func (c CompactInt) Uint64() uint64 {
	if c.v == nil {
		return 0
	}
	return c.v.Uint64()
}

// Uint32 is the checked narrowing used for nonces, indices and lengths.
func (c CompactInt) Uint32() (uint32, error) {
	if c.v != nil && (!c.v.IsUint64() || c.v.Uint64() > math.MaxUint32) {
		return 0, fmt.Errorf("%w: compact %s exceeds u32", suberrors.ErrDValueOutOfRange, c.v)
	}
	return uint32(c.Uint64()), nil
}

// Len narrows a decoded length, failing when it exceeds limit.
func (c CompactInt) Len(limit int) (int, error) {
	if c.v != nil && (!c.v.IsUint64() || c.v.Uint64() > uint64(limit)) {
		return 0, fmt.Errorf("%w: length %s exceeds %d remaining bytes", suberrors.ErrDUnexpectedEOF, c.v, limit)
	}
	return int(c.Uint64()), nil
}

func (c CompactInt) Mode() int {
	switch bits := c.Big().BitLen(); {
	case bits <= 6:
		return compactModeSingle
	case bits <= 14:
		return compactModeTwo
	case bits <= 30:
		return compactModeFour
	default:
		return compactModeBig
	}
}

func (c CompactInt) Encode(_ *Config) []byte {
	v := c.Big()
	switch c.Mode() {
	case compactModeSingle:
		return []byte{byte(v.Uint64() << 2)}
	case compactModeTwo:
		return binary.LittleEndian.AppendUint16(nil, uint16(v.Uint64()<<2)|compactModeTwo)
	case compactModeFour:
		return binary.LittleEndian.AppendUint32(nil, uint32(v.Uint64()<<2)|compactModeFour)
	}
	le := v.Bytes()
	slices.Reverse(le)
	for len(le) < 4 {
		le = append(le, 0)
	}
	return append([]byte{byte(len(le)-4)<<2 | compactModeBig}, le...)
}

func (c CompactInt) String() string {
	return c.Big().String()
}

func DecodeCompactInt(_ *Config, data []byte) (Decoded[CompactInt], error) {
	if err := need(data, 1, "compact"); err != nil {
		return Decoded[CompactInt]{}, err
	}
	switch data[0] & 0b11 {
	case compactModeSingle:
		return Decoded[CompactInt]{BytesDecoded: 1, Value: NewCompactInt(uint64(data[0] >> 2))}, nil
	case compactModeTwo:
		if err := need(data, 2, "compact"); err != nil {
			return Decoded[CompactInt]{}, err
		}
		v := binary.LittleEndian.Uint16(data) >> 2
		return Decoded[CompactInt]{BytesDecoded: 2, Value: NewCompactInt(uint64(v))}, nil
	case compactModeFour:
		if err := need(data, 4, "compact"); err != nil {
			return Decoded[CompactInt]{}, err
		}
		v := binary.LittleEndian.Uint32(data) >> 2
		return Decoded[CompactInt]{BytesDecoded: 4, Value: NewCompactInt(uint64(v))}, nil
	}
	n := int(data[0]>>2) + 4
	if err := need(data, 1+n, "compact"); err != nil {
		return Decoded[CompactInt]{}, err
	}
	be := slices.Clone(data[1 : 1+n])
	slices.Reverse(be)
	return Decoded[CompactInt]{BytesDecoded: 1 + n, Value: CompactInt{v: new(big.Int).SetBytes(be)}}, nil
}

// decodeLength reads a compact collection length.
func decodeLength(data []byte) (int, int, error) {
	d, err := DecodeCompactInt(nil, data)
	if err != nil {
		return 0, 0, err
	}
	n, err := d.Value.Len(len(data))
	if err != nil {
		return 0, 0, err
	}
	return n, d.BytesDecoded, nil
}
