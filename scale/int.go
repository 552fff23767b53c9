package scale

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/colorfulnotion/subwallet/suberrors"
)

// FixedInt is a little-endian integer of a fixed bit width. Negative values
// are stored as two's complement over that width.
type FixedInt struct {
	v         *big.Int
	BitLength int
}

// NewFixedInt accepts any value in [-2^(bits-1), 2^bits).
func NewFixedInt(v *big.Int, bitLength int) (FixedInt, error) {
	if bitLength <= 0 || bitLength%8 != 0 {
		return FixedInt{}, fmt.Errorf("%w: bit length %d", suberrors.ErrVInvalidArgument, bitLength)
	}
	upper := new(big.Int).Lsh(big.NewInt(1), uint(bitLength))
	lower := new(big.Int).Neg(new(big.Int).Rsh(upper, 1))
	if v.Cmp(upper) >= 0 || v.Cmp(lower) < 0 {
		return FixedInt{}, fmt.Errorf("%w: %s in %d bits", suberrors.ErrVValueOverflow, v, bitLength)
	}
	return FixedInt{v: new(big.Int).Set(v), BitLength: bitLength}, nil
}

func U8(v uint8) FixedInt   { return FixedInt{v: new(big.Int).SetUint64(uint64(v)), BitLength: 8} }
func U16(v uint16) FixedInt { return FixedInt{v: new(big.Int).SetUint64(uint64(v)), BitLength: 16} }
func U32(v uint32) FixedInt { return FixedInt{v: new(big.Int).SetUint64(uint64(v)), BitLength: 32} }
func U64(v uint64) FixedInt { return FixedInt{v: new(big.Int).SetUint64(v), BitLength: 64} }

// U128 fails for negative or overflowing values.
func U128(v *big.Int) (FixedInt, error) {
	if v.Sign() < 0 {
		return FixedInt{}, fmt.Errorf("%w: u128 %s", suberrors.ErrVNegativeUnsigned, v)
	}
	return NewFixedInt(v, 128)
}

func (f FixedInt) Big() *big.Int {
	if f.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(f.v)
}

func (f FixedInt) Uint64() uint64 {
	return f.Big().Uint64()
}

func (f FixedInt) Int64() int64 {
	return f.Big().Int64()
}

func (f FixedInt) Encode(_ *Config) []byte {
	v := f.Big()
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), uint(f.BitLength)))
	}
	out := make([]byte, f.BitLength/8)
	v.FillBytes(out)
	slices.Reverse(out)
	return out
}

func (f FixedInt) String() string {
	return f.Big().String()
}

// DecodeInt reads an unsigned little-endian integer.
func DecodeInt(bitLength int) DecodeFunc[FixedInt] {
	return func(_ *Config, data []byte) (Decoded[FixedInt], error) {
		n := bitLength / 8
		if err := need(data, n, fmt.Sprintf("u%d", bitLength)); err != nil {
			return Decoded[FixedInt]{}, err
		}
		be := slices.Clone(data[:n])
		slices.Reverse(be)
		return Decoded[FixedInt]{BytesDecoded: n, Value: FixedInt{v: new(big.Int).SetBytes(be), BitLength: bitLength}}, nil
	}
}

// DecodeSignedInt reads a two's complement little-endian integer.
func DecodeSignedInt(bitLength int) DecodeFunc[FixedInt] {
	unsigned := DecodeInt(bitLength)
	return func(cfg *Config, data []byte) (Decoded[FixedInt], error) {
		d, err := unsigned(cfg, data)
		if err != nil {
			return d, err
		}
		if d.Value.v.Bit(bitLength-1) == 1 {
			d.Value.v.Sub(d.Value.v, new(big.Int).Lsh(big.NewInt(1), uint(bitLength)))
		}
		return d, nil
	}
}

var (
	DecodeU8   = DecodeInt(8)
	DecodeU16  = DecodeInt(16)
	DecodeU32  = DecodeInt(32)
	DecodeU64  = DecodeInt(64)
	DecodeU128 = DecodeInt(128)
)

type Bool bool

func (b Bool) Encode(_ *Config) []byte {
	if b {
		return []byte{1}
	}
	return []byte{0}
}

func (b Bool) String() string {
	return fmt.Sprint(bool(b))
}

func DecodeBool(_ *Config, data []byte) (Decoded[Bool], error) {
	if err := need(data, 1, "bool"); err != nil {
		return Decoded[Bool]{}, err
	}
	switch data[0] {
	case 0:
		return Decoded[Bool]{BytesDecoded: 1, Value: false}, nil
	case 1:
		return Decoded[Bool]{BytesDecoded: 1, Value: true}, nil
	}
	return Decoded[Bool]{}, fmt.Errorf("%w: %#x", suberrors.ErrDInvalidBool, data[0])
}
