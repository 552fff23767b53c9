package metadata

import (
	"fmt"

	"github.com/colorfulnotion/subwallet/suberrors"
)

const (
	storageTypeV14Plain uint8 = iota
	storageTypeV14Map
)

func decodeV14(r *reader) *Metadata {
	m := &Metadata{Version: V14, Registry: decodeRegistry(r)}
	n := r.length()
	for i := 0; i < n && r.err == nil; i++ {
		m.Pallets = append(m.Pallets, decodePalletV14(r, m.Registry))
	}
	m.Extrinsic = Extrinsic{Type: r.compact(), Version: r.u8()}
	exts := r.length()
	for i := 0; i < exts && r.err == nil; i++ {
		m.Extrinsic.SignedExtensions = append(m.Extrinsic.SignedExtensions, SignedExtension{
			Identifier:       r.str(),
			Type:             r.compact(),
			AdditionalSigned: r.compact(),
		})
	}
	r.compact() // runtime type
	return m
}

func decodePalletV14(r *reader, reg *Registry) *Pallet {
	p := &Pallet{Name: r.str()}
	if r.option() {
		p.Storage = decodeStorageV14(r, reg)
	}
	if r.option() {
		variants := variantsOf(r, reg, r.compact())
		for _, v := range variants {
			c := CallDef{Name: v.Name, Index: v.Index, Docs: v.Docs}
			for _, f := range v.Fields {
				c.Args = append(c.Args, Arg{Name: f.Name, Type: fieldTypeName(reg, f)})
			}
			p.Calls = append(p.Calls, c)
		}
	}
	if r.option() {
		for _, v := range variantsOf(r, reg, r.compact()) {
			e := EventDef{Name: v.Name, Index: v.Index, Docs: v.Docs}
			for _, f := range v.Fields {
				e.Args = append(e.Args, fieldTypeName(reg, f))
			}
			p.Events = append(p.Events, e)
		}
	}
	n := r.length()
	for i := 0; i < n && r.err == nil; i++ {
		c := ConstantDef{Name: r.str()}
		c.Type = reg.TypeName(r.compact())
		c.Value = r.bytes()
		c.Docs = r.strs()
		p.Constants = append(p.Constants, c)
	}
	if r.option() {
		for _, v := range variantsOf(r, reg, r.compact()) {
			p.Errors = append(p.Errors, ErrorDef{Name: v.Name, Docs: v.Docs})
		}
	}
	p.Index = r.u8()
	return p
}

func decodeStorageV14(r *reader, reg *Registry) []*StorageEntry {
	prefix := r.str()
	n := r.length()
	entries := make([]*StorageEntry, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		e := &StorageEntry{Pallet: prefix, Name: r.str(), Modifier: r.u8()}
		switch tag := r.u8(); tag {
		case storageTypeV14Plain:
			e.Shape = Plain
			e.Value = reg.TypeName(r.compact())
		case storageTypeV14Map:
			e.Hashers = r.hashers()
			key := r.compact()
			e.Value = reg.TypeName(r.compact())
			e.Shape, e.Keys = mapShape(reg, e.Hashers, key)
		default:
			r.fail(unknownStorageType(tag))
		}
		e.Default = r.bytes()
		e.Docs = r.strs()
		entries = append(entries, e)
	}
	return entries
}

// mapShape classifies a v14 map by its hasher count. With more than one
// hasher the key type is a tuple holding one element per hasher.
func mapShape(reg *Registry, hashers []Hasher, key uint32) (StorageShape, []string) {
	shape := NMap
	switch len(hashers) {
	case 1:
		return Map, []string{reg.TypeName(key)}
	case 2:
		shape = DoubleMap
	}
	t, err := reg.Lookup(key)
	if err != nil || t.Def.Kind != TypeDefTuple {
		return shape, []string{reg.TypeName(key)}
	}
	keys := make([]string, len(t.Def.Tuple))
	for i, e := range t.Def.Tuple {
		keys[i] = reg.TypeName(e)
	}
	return shape, keys
}

func variantsOf(r *reader, reg *Registry, id uint32) []Variant {
	if r.err != nil {
		return nil
	}
	t, err := reg.Lookup(id)
	if err != nil {
		r.fail(err)
		return nil
	}
	if t.Def.Kind != TypeDefVariant {
		r.fail(fmt.Errorf("%w: type %d is not a variant", suberrors.ErrDUnknownType, id))
		return nil
	}
	return t.Def.Variants
}

func fieldTypeName(reg *Registry, f Field) string {
	if f.TypeName != "" {
		return f.TypeName
	}
	return reg.TypeName(f.Type)
}
