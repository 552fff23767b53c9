package metadata

// v11 and v13 share the module layout below; v12 appended the pallet index
// and v13 added the NMap storage shape.
//
//	module   = name, Option<storage>, Option<Vec<call>>, Option<Vec<event>>,
//	           Vec<constant>, Vec<error> [, index u8]
//	storage  = prefix, Vec<entry>
//	entry    = name, modifier u8, type, default Vec<u8>, docs
const (
	storageTypePlain uint8 = iota
	storageTypeMap
	storageTypeDoubleMap
	storageTypeNMap
)

func decodeV11(r *reader) *Metadata {
	m := &Metadata{Version: V11}
	n := r.length()
	// v11 has no explicit index; dispatch counts only modules with calls.
	var callModules uint8
	for i := 0; i < n && r.err == nil; i++ {
		p := decodeModule(r, V11)
		p.Index = callModules
		if p.HasCalls() {
			callModules++
		}
		m.Pallets = append(m.Pallets, p)
	}
	m.Extrinsic = decodeLegacyExtrinsic(r)
	return m
}

func decodeV13(r *reader, version uint8) *Metadata {
	m := &Metadata{Version: version}
	n := r.length()
	for i := 0; i < n && r.err == nil; i++ {
		m.Pallets = append(m.Pallets, decodeModule(r, version))
	}
	m.Extrinsic = decodeLegacyExtrinsic(r)
	return m
}

func decodeModule(r *reader, version uint8) *Pallet {
	p := &Pallet{Name: r.str()}
	if r.option() {
		p.Storage = decodeLegacyStorage(r, version)
	}
	if r.option() {
		n := r.length()
		for i := 0; i < n && r.err == nil; i++ {
			c := CallDef{Name: r.str(), Index: uint8(i)}
			args := r.length()
			for j := 0; j < args && r.err == nil; j++ {
				c.Args = append(c.Args, Arg{Name: r.str(), Type: r.str()})
			}
			c.Docs = r.strs()
			p.Calls = append(p.Calls, c)
		}
	}
	if r.option() {
		n := r.length()
		for i := 0; i < n && r.err == nil; i++ {
			p.Events = append(p.Events, EventDef{Name: r.str(), Index: uint8(i), Args: r.strs(), Docs: r.strs()})
		}
	}
	n := r.length()
	for i := 0; i < n && r.err == nil; i++ {
		p.Constants = append(p.Constants, ConstantDef{Name: r.str(), Type: r.str(), Value: r.bytes(), Docs: r.strs()})
	}
	n = r.length()
	for i := 0; i < n && r.err == nil; i++ {
		p.Errors = append(p.Errors, ErrorDef{Name: r.str(), Docs: r.strs()})
	}
	if version >= V12 {
		p.Index = r.u8()
	}
	return p
}

func decodeLegacyStorage(r *reader, version uint8) []*StorageEntry {
	prefix := r.str()
	n := r.length()
	entries := make([]*StorageEntry, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		e := &StorageEntry{Pallet: prefix, Name: r.str(), Modifier: r.u8()}
		switch tag := r.u8(); tag {
		case storageTypePlain:
			e.Shape = Plain
			e.Value = r.str()
		case storageTypeMap:
			e.Shape = Map
			e.Hashers = []Hasher{r.hasher()}
			e.Keys = []string{r.str()}
			e.Value = r.str()
			r.bool() // linked
		case storageTypeDoubleMap:
			e.Shape = DoubleMap
			h1 := r.hasher()
			e.Keys = []string{r.str(), r.str()}
			e.Value = r.str()
			e.Hashers = []Hasher{h1, r.hasher()}
		case storageTypeNMap:
			if version < V13 {
				r.fail(unknownStorageType(tag))
				break
			}
			e.Shape = NMap
			e.Keys = r.strs()
			e.Hashers = r.hashers()
			e.Value = r.str()
		default:
			r.fail(unknownStorageType(tag))
		}
		e.Default = r.bytes()
		e.Docs = r.strs()
		entries = append(entries, e)
	}
	return entries
}

func decodeLegacyExtrinsic(r *reader) Extrinsic {
	ext := Extrinsic{Version: r.u8()}
	for _, id := range r.strs() {
		ext.SignedExtensions = append(ext.SignedExtensions, SignedExtension{Identifier: id})
	}
	return ext
}
