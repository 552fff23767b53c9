// Package scale implements the SCALE codec types used by Substrate runtimes.
//
// Every value type encodes itself against a *Config and has a paired
// DecodeFunc that reports how many bytes it consumed. Composite types
// delegate to their children and sum the child byte counts.
package scale

import (
	"fmt"

	"github.com/colorfulnotion/subwallet/address"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// Network is the chain capability the codec needs: how accounts look and
// whether the active runtime expects tagged MultiAddress values.
type Network interface {
	AddressCodec() address.Codec
	SupportsMultiAddress(runtimeVersion *uint32) bool
}

// Config is threaded through every encode and decode call.
type Config struct {
	Network        Network
	RuntimeVersion *uint32
}

func NewConfig(network Network, runtimeVersion *uint32) *Config {
	return &Config{Network: network, RuntimeVersion: runtimeVersion}
}

// WithRuntimeVersion returns a copy of cfg pinned to runtimeVersion.
func (cfg *Config) WithRuntimeVersion(runtimeVersion *uint32) *Config {
	c := Config{RuntimeVersion: runtimeVersion}
	if cfg != nil {
		c.Network = cfg.Network
	}
	return &c
}

func (cfg *Config) multiAddress() bool {
	if cfg == nil || cfg.Network == nil {
		return true
	}
	return cfg.Network.SupportsMultiAddress(cfg.RuntimeVersion)
}

func (cfg *Config) addressCodec() address.Codec {
	if cfg == nil || cfg.Network == nil {
		return address.SS58{Prefix: 42}
	}
	return cfg.Network.AddressCodec()
}

// Value is implemented by every codec type.
type Value interface {
	Encode(cfg *Config) []byte
	String() string
}

type Decoded[T any] struct {
	BytesDecoded int
	Value        T
}

type DecodeFunc[T any] func(cfg *Config, data []byte) (Decoded[T], error)

// AsValue erases the concrete type of a decoder so it can be used in a Tuple.
func AsValue[T Value](fn DecodeFunc[T]) DecodeFunc[Value] {
	return func(cfg *Config, data []byte) (Decoded[Value], error) {
		d, err := fn(cfg, data)
		if err != nil {
			return Decoded[Value]{}, err
		}
		return Decoded[Value]{BytesDecoded: d.BytesDecoded, Value: d.Value}, nil
	}
}

// EncodeHex renders v as unprefixed lowercase hex.
func EncodeHex(cfg *Config, v Value) string {
	return common.Bytes2String(v.Encode(cfg))
}

// DecodeHex decodes a hex string with fn.
func DecodeHex[T any](cfg *Config, fn DecodeFunc[T], s string) (Decoded[T], error) {
	data, err := common.DecodeHex(s)
	if err != nil {
		return Decoded[T]{}, fmt.Errorf("%w: %v", suberrors.ErrDMalformedHex, err)
	}
	return fn(cfg, data)
}

// DecodeAll decodes data with fn and fails if any bytes remain.
func DecodeAll[T any](cfg *Config, fn DecodeFunc[T], data []byte) (T, error) {
	d, err := fn(cfg, data)
	if err != nil {
		var zero T
		return zero, err
	}
	if d.BytesDecoded != len(data) {
		var zero T
		return zero, fmt.Errorf("%w: %d of %d", suberrors.ErrDTrailingBytes, len(data)-d.BytesDecoded, len(data))
	}
	return d.Value, nil
}

func need(data []byte, n int, what string) error {
	if len(data) < n {
		return fmt.Errorf("%w: %s needs %d bytes, have %d", suberrors.ErrDUnexpectedEOF, what, n, len(data))
	}
	return nil
}
