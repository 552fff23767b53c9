package storage

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// FeeBound selects which of the two remembered fees to read.
type FeeBound string

const (
	Smallest FeeBound = "smallest"
	Largest  FeeBound = "largest"
)

func ParseFeeBound(s string) (FeeBound, error) {
	switch b := FeeBound(strings.ToLower(s)); b {
	case Smallest, Largest:
		return b, nil
	}
	return "", fmt.Errorf("%w: fee bound %q", suberrors.ErrVInvalidArgument, s)
}

// FeeStore remembers, per network and transaction type, the smallest and
// largest fee the node has quoted. Values are compact encoded.
type FeeStore struct {
	store   *PersistenceStore
	network string
	mu      sync.Mutex
}

func NewFeeStore(store *PersistenceStore, network string) *FeeStore {
	return &FeeStore{store: store, network: network}
}

// OpenFeeStore opens the LevelDB at path, in memory when path is empty.
func OpenFeeStore(path, network string) (*FeeStore, error) {
	ps, err := NewPersistenceStore(path)
	if err != nil {
		return nil, err
	}
	return NewFeeStore(ps, network), nil
}

func (f *FeeStore) key(txType string, bound FeeBound) []byte {
	return []byte("fee/" + f.network + "/" + txType + "/" + string(bound))
}

// SaveLastFee widens the remembered [smallest, largest] range to include fee.
func (f *FeeStore) SaveLastFee(txType string, fee *big.Int) error {
	value, err := scale.NewCompactIntFromBig(fee)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	updates := map[string][]byte{}
	for _, bound := range []FeeBound{Smallest, Largest} {
		current, ok, err := f.get(txType, bound)
		if err != nil {
			return err
		}
		if !ok || (bound == Smallest && fee.Cmp(current) < 0) || (bound == Largest && fee.Cmp(current) > 0) {
			updates[string(f.key(txType, bound))] = value.Encode(nil)
		}
	}
	if len(updates) == 0 {
		return nil
	}
	log.Debug(log.StorageMonitoring, "SaveLastFee", "network", f.network, "type", txType, "fee", fee, "updated", len(updates))
	return f.store.PutBatch(updates)
}

// GetSavedLastFee returns the remembered fee, or false when the type has
// never been quoted.
func (f *FeeStore) GetSavedLastFee(txType string, bound FeeBound) (*big.Int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(txType, bound)
}

func (f *FeeStore) get(txType string, bound FeeBound) (*big.Int, bool, error) {
	raw, ok, err := f.store.Get(f.key(txType, bound))
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := scale.DecodeAll(nil, scale.DecodeCompactInt, raw)
	if err != nil {
		return nil, false, fmt.Errorf("fee %s/%s: %w", txType, bound, err)
	}
	return v.Big(), true, nil
}

// SavedFees lists the remembered bounds of every type on this network.
func (f *FeeStore) SavedFees() (map[string]map[FeeBound]*big.Int, error) {
	prefix := []byte("fee/" + f.network + "/")
	pairs, err := f.store.GetWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := map[string]map[FeeBound]*big.Int{}
	for _, kv := range pairs {
		rest := strings.TrimPrefix(string(kv[0]), string(prefix))
		i := strings.LastIndex(rest, "/")
		if i < 0 {
			continue
		}
		v, err := scale.DecodeAll(nil, scale.DecodeCompactInt, kv[1])
		if err != nil {
			return nil, err
		}
		txType := rest[:i]
		if out[txType] == nil {
			out[txType] = map[FeeBound]*big.Int{}
		}
		out[txType][FeeBound(rest[i+1:])] = v.Big()
	}
	return out, nil
}

func (f *FeeStore) Close() error {
	return f.store.Close()
}
