package metadata

import (
	"fmt"
	"strings"
	"sync"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

type Hasher uint8

const (
	Blake2_128 Hasher = iota
	Blake2_256
	Blake2_128Concat
	Twox128
	Twox256
	Twox64Concat
	Identity
)

var hasherNames = [...]string{"Blake2_128", "Blake2_256", "Blake2_128Concat", "Twox128", "Twox256", "Twox64Concat", "Identity"}

func (h Hasher) String() string {
	if int(h) < len(hasherNames) {
		return hasherNames[h]
	}
	return fmt.Sprintf("Hasher(%d)", uint8(h))
}

// Apply hashes one encoded key argument. The concat hashers keep the raw
// argument after the digest so keys can be iterated.
func (h Hasher) Apply(arg []byte) ([]byte, bool) {
	switch h {
	case Blake2_128:
		return common.Blake2b128(arg), true
	case Blake2_256:
		return common.Blake2b256(arg), true
	case Blake2_128Concat:
		return common.Blake2b128Concat(arg), true
	case Twox128:
		return common.Twox128(arg), true
	case Twox256:
		return common.Twox256(arg), true
	case Twox64Concat:
		return common.Twox64Concat(arg), true
	case Identity:
		return append([]byte{}, arg...), true
	}
	return nil, false
}

type StorageShape uint8

const (
	Plain StorageShape = iota
	Map
	DoubleMap
	NMap
)

func (s StorageShape) String() string {
	switch s {
	case Plain:
		return "Plain"
	case Map:
		return "Map"
	case DoubleMap:
		return "DoubleMap"
	case NMap:
		return "NMap"
	}
	return fmt.Sprintf("StorageShape(%d)", uint8(s))
}

const (
	ModifierOptional uint8 = 0
	ModifierDefault  uint8 = 1
)

// StorageEntry locates one storage item. Hash results are memoized per
// argument encoding for the lifetime of the entry.
type StorageEntry struct {
	Pallet   string
	Name     string
	Shape    StorageShape
	Hashers  []Hasher
	Keys     []string
	Value    string
	Modifier uint8
	Default  []byte
	Docs     []string

	cache sync.Map
}

func unknownStorageType(tag uint8) error {
	return fmt.Errorf("%w: storage entry type %d", suberrors.ErrDUnknownEnumTag, tag)
}

// Arity is the number of key arguments Hash expects.
func (e *StorageEntry) Arity() int {
	switch e.Shape {
	case Plain:
		return 0
	case Map:
		return 1
	case DoubleMap:
		return 2
	}
	return len(e.Hashers)
}

// Prefix is twox128(pallet) ++ twox128(item), shared by every key of the entry.
func (e *StorageEntry) Prefix() []byte {
	return append(common.Twox128([]byte(e.Pallet)), common.Twox128([]byte(e.Name))...)
}

// Hash returns the 0x-prefixed storage key for the encoded arguments.
// An argument count that does not match the entry's hashers is an error.
// An unknown hasher yields "" with a warning.
func (e *StorageEntry) Hash(args ...[]byte) (string, error) {
	if len(args) != e.Arity() || len(e.Hashers) < len(args) {
		return "", fmt.Errorf("%w: %s.%s takes %d arguments, got %d", suberrors.ErrDStorageArgsMismatch, e.Pallet, e.Name, e.Arity(), len(args))
	}
	cacheKey := e.cacheKey(args)
	if v, ok := e.cache.Load(cacheKey); ok {
		return v.(string), nil
	}
	key := e.Prefix()
	for i, arg := range args {
		hashed, ok := e.Hashers[i].Apply(arg)
		if !ok {
			log.Warn(log.MetadataMonitoring, "unknown storage hasher", "pallet", e.Pallet, "item", e.Name, "hasher", e.Hashers[i])
			return "", nil
		}
		key = append(key, hashed...)
	}
	v, _ := e.cache.LoadOrStore(cacheKey, common.Bytes2Hex(key))
	return v.(string), nil
}

// HashValues encodes each value with cfg and hashes the results.
func (e *StorageEntry) HashValues(cfg *scale.Config, values ...scale.Value) (string, error) {
	args := make([][]byte, len(values))
	for i, v := range values {
		args[i] = v.Encode(cfg)
	}
	return e.Hash(args...)
}

func (e *StorageEntry) cacheKey(args [][]byte) string {
	var sb strings.Builder
	sb.WriteString(e.Pallet)
	sb.WriteByte('.')
	sb.WriteString(e.Name)
	for _, a := range args {
		sb.WriteByte('/')
		sb.WriteString(common.Bytes2String(a))
	}
	return sb.String()
}
