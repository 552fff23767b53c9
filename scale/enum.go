package scale

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/subwallet/suberrors"
)

// EnumMapping resolves a one-byte tag to a value.
type EnumMapping[T comparable] map[uint8]T

func (m EnumMapping[T]) Tag(v T) (uint8, bool) {
	for tag, candidate := range m {
		if candidate == v {
			return tag, true
		}
	}
	return 0, false
}

// Enum is a unit-variant enum: a single tag byte.
type Enum[T comparable] struct {
	Tag   uint8
	Value T
}

func NewEnum[T comparable](mapping EnumMapping[T], v T) (Enum[T], error) {
	tag, ok := mapping.Tag(v)
	if !ok {
		return Enum[T]{}, fmt.Errorf("%w: no tag for %v", suberrors.ErrVInvalidArgument, v)
	}
	return Enum[T]{Tag: tag, Value: v}, nil
}

func (e Enum[T]) Encode(_ *Config) []byte {
	return []byte{e.Tag}
}

func (e Enum[T]) String() string {
	return fmt.Sprint(e.Value)
}

func DecodeEnum[T comparable](mapping EnumMapping[T]) DecodeFunc[Enum[T]] {
	return func(_ *Config, data []byte) (Decoded[Enum[T]], error) {
		if err := need(data, 1, "enum"); err != nil {
			return Decoded[Enum[T]]{}, err
		}
		v, ok := mapping[data[0]]
		if !ok {
			return Decoded[Enum[T]]{}, fmt.Errorf("%w: %d", suberrors.ErrDUnknownEnumTag, data[0])
		}
		return Decoded[Enum[T]]{BytesDecoded: 1, Value: Enum[T]{Tag: data[0], Value: v}}, nil
	}
}

type Optional[T Value] struct {
	value T
	some  bool
}

func Some[T Value](v T) Optional[T] {
	return Optional[T]{value: v, some: true}
}

func None[T Value]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.some
}

func (o Optional[T]) IsSome() bool {
	return o.some
}

func (o Optional[T]) Encode(cfg *Config) []byte {
	if !o.some {
		return []byte{0}
	}
	return append([]byte{1}, o.value.Encode(cfg)...)
}

func (o Optional[T]) String() string {
	if !o.some {
		return "None"
	}
	return fmt.Sprintf("Some(%s)", o.value)
}

func DecodeOptional[T Value](fn DecodeFunc[T]) DecodeFunc[Optional[T]] {
	return func(cfg *Config, data []byte) (Decoded[Optional[T]], error) {
		if err := need(data, 1, "option"); err != nil {
			return Decoded[Optional[T]]{}, err
		}
		switch data[0] {
		case 0:
			return Decoded[Optional[T]]{BytesDecoded: 1}, nil
		case 1:
			d, err := fn(cfg, data[1:])
			if err != nil {
				return Decoded[Optional[T]]{}, err
			}
			return Decoded[Optional[T]]{BytesDecoded: 1 + d.BytesDecoded, Value: Some(d.Value)}, nil
		}
		return Decoded[Optional[T]]{}, fmt.Errorf("%w: option tag %d", suberrors.ErrDUnknownEnumTag, data[0])
	}
}

// Tuple concatenates its elements without any prefix.
type Tuple []Value

func (t Tuple) Encode(cfg *Config) []byte {
	var out []byte
	for _, v := range t {
		out = append(out, v.Encode(cfg)...)
	}
	return out
}

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func DecodeTuple(fns ...DecodeFunc[Value]) DecodeFunc[Tuple] {
	return func(cfg *Config, data []byte) (Decoded[Tuple], error) {
		out := make(Tuple, 0, len(fns))
		offset := 0
		for i, fn := range fns {
			d, err := fn(cfg, data[offset:])
			if err != nil {
				return Decoded[Tuple]{}, fmt.Errorf("tuple element %d: %w", i, err)
			}
			out = append(out, d.Value)
			offset += d.BytesDecoded
		}
		return Decoded[Tuple]{BytesDecoded: offset, Value: out}, nil
	}
}

// Array is a compact length-prefixed homogeneous sequence.
type Array[T Value] []T

func (a Array[T]) Encode(cfg *Config) []byte {
	out := EncodeCompact(uint64(len(a)))
	for _, v := range a {
		out = append(out, v.Encode(cfg)...)
	}
	return out
}

func (a Array[T]) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func DecodeArray[T Value](fn DecodeFunc[T]) DecodeFunc[Array[T]] {
	return func(cfg *Config, data []byte) (Decoded[Array[T]], error) {
		n, offset, err := decodeLength(data)
		if err != nil {
			return Decoded[Array[T]]{}, err
		}
		out := make(Array[T], 0, n)
		for i := 0; i < n; i++ {
			d, err := fn(cfg, data[offset:])
			if err != nil {
				return Decoded[Array[T]]{}, fmt.Errorf("array element %d: %w", i, err)
			}
			out = append(out, d.Value)
			offset += d.BytesDecoded
		}
		return Decoded[Array[T]]{BytesDecoded: offset, Value: out}, nil
	}
}
