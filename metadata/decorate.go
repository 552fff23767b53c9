package metadata

import (
	"fmt"
	"slices"

	"github.com/colorfulnotion/subwallet/suberrors"
)

type Call struct {
	Pallet      string
	Name        string
	PalletIndex uint8
	CallIndex   uint8
	Args        []Arg
}

type Constant struct {
	Pallet string
	Name   string
	Value  []byte
	Type   string
}

// Decorated is the flat catalogue a protocol works against.
type Decorated struct {
	Version   uint8
	Calls     []Call
	Constants []Constant
	Storage   []*StorageEntry
	Extrinsic Extrinsic
}

// Selector names entries as "Pallet.name". A nil selector keeps everything.
type Selector []string

func (s Selector) keep(pallet, name string) bool {
	return s == nil || slices.Contains(s, pallet+"."+name)
}

// Decorate filters the metadata down to the named storage entries, calls
// and constants.
func (m *Metadata) Decorate(storage, calls, constants Selector) *Decorated {
	d := &Decorated{Version: m.Version, Extrinsic: m.Extrinsic}
	for _, p := range m.Pallets {
		for _, e := range p.Storage {
			if storage.keep(p.Name, e.Name) {
				d.Storage = append(d.Storage, e)
			}
		}
		for _, c := range p.Calls {
			if calls.keep(p.Name, c.Name) {
				d.Calls = append(d.Calls, Call{Pallet: p.Name, Name: c.Name, PalletIndex: p.Index, CallIndex: c.Index, Args: c.Args})
			}
		}
		for _, c := range p.Constants {
			if constants.keep(p.Name, c.Name) {
				d.Constants = append(d.Constants, Constant{Pallet: p.Name, Name: c.Name, Value: c.Value, Type: c.Type})
			}
		}
	}
	return d
}

func (d *Decorated) Call(pallet, name string) (Call, error) {
	for _, c := range d.Calls {
		if c.Pallet == pallet && c.Name == name {
			return c, nil
		}
	}
	return Call{}, fmt.Errorf("%w: %s.%s", suberrors.ErrNCallNotFound, pallet, name)
}

// FirstCall returns the first of the candidate call names the runtime has.
func (d *Decorated) FirstCall(pallet string, names ...string) (Call, error) {
	for _, name := range names {
		if c, err := d.Call(pallet, name); err == nil {
			return c, nil
		}
	}
	return Call{}, fmt.Errorf("%w: %s.%v", suberrors.ErrNCallNotFound, pallet, names)
}

// CallByIndex resolves a wire call tag.
func (d *Decorated) CallByIndex(palletIndex, callIndex uint8) (Call, error) {
	for _, c := range d.Calls {
		if c.PalletIndex == palletIndex && c.CallIndex == callIndex {
			return c, nil
		}
	}
	return Call{}, fmt.Errorf("%w: [%d, %d]", suberrors.ErrNCallNotFound, palletIndex, callIndex)
}

func (d *Decorated) Constant(pallet, name string) (Constant, error) {
	for _, c := range d.Constants {
		if c.Pallet == pallet && c.Name == name {
			return c, nil
		}
	}
	return Constant{}, fmt.Errorf("%w: %s.%s", suberrors.ErrNConstantNotFound, pallet, name)
}

// StorageEntry looks an entry up by its storage prefix and item name.
func (d *Decorated) StorageEntry(pallet, name string) (*StorageEntry, error) {
	for _, e := range d.Storage {
		if e.Pallet == pallet && e.Name == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", suberrors.ErrNStorageNotFound, pallet, name)
}
