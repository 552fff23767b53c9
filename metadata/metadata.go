// Package metadata decodes the runtime metadata a Substrate node publishes
// and derives storage keys, call indices and constants from it.
package metadata

import (
	"bytes"
	"fmt"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// Magic is "meta" read as a little-endian u32.
const Magic uint32 = 0x6174656d

var magicBytes = []byte("meta")

const (
	V11 uint8 = 11
	V12 uint8 = 12
	V13 uint8 = 13
	V14 uint8 = 14
)

// Metadata is the version independent catalogue every decoder produces.
type Metadata struct {
	Version   uint8
	Pallets   []*Pallet
	Extrinsic Extrinsic
	// Registry is only present from v14 on.
	Registry *Registry
}

type Pallet struct {
	Name string
	// Index is the call dispatch index of the pallet.
	Index     uint8
	Storage   []*StorageEntry
	Calls     []CallDef
	Events    []EventDef
	Constants []ConstantDef
	Errors    []ErrorDef
}

type Arg struct {
	Name string
	Type string
}

type CallDef struct {
	Name  string
	Index uint8
	Args  []Arg
	Docs  []string
}

type EventDef struct {
	Name  string
	Index uint8
	Args  []string
	Docs  []string
}

type ConstantDef struct {
	Name  string
	Type  string
	Value []byte
	Docs  []string
}

type ErrorDef struct {
	Name string
	Docs []string
}

type SignedExtension struct {
	Identifier       string
	Type             uint32
	AdditionalSigned uint32
}

type Extrinsic struct {
	Type             uint32
	Version          uint8
	SignedExtensions []SignedExtension
}

// Decode parses a metadata blob as returned by state_getMetadata.
func Decode(data []byte) (*Metadata, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("%w: %d bytes", suberrors.ErrDUnexpectedEOF, len(data))
	}
	if !bytes.Equal(data[:4], magicBytes) {
		return nil, fmt.Errorf("%w: %x", suberrors.ErrDBadMagicNumber, data[:4])
	}
	version := data[4]
	r := newReader(data[5:])
	var m *Metadata
	switch version {
	case V11:
		m = decodeV11(r)
	case V12, V13:
		m = decodeV13(r, version)
	case V14:
		m = decodeV14(r)
	default:
		return nil, fmt.Errorf("%w: v%d", suberrors.ErrDUnsupportedMetadata, version)
	}
	if r.err != nil {
		return nil, fmt.Errorf("metadata v%d: %w", version, r.err)
	}
	if !r.done() {
		return nil, fmt.Errorf("metadata v%d: %w: %d bytes after extrinsic", version, suberrors.ErrDTrailingBytes, r.remaining())
	}
	log.Debug(log.MetadataMonitoring, "metadata decoded", "version", version, "pallets", len(m.Pallets))
	return m, nil
}

func DecodeHex(s string) (*Metadata, error) {
	data, err := common.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suberrors.ErrDMalformedHex, err)
	}
	return Decode(data)
}

func (m *Metadata) Pallet(name string) (*Pallet, bool) {
	for _, p := range m.Pallets {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (p *Pallet) HasCalls() bool {
	return len(p.Calls) > 0
}
