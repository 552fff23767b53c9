package metadata

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/subwallet/suberrors"
)

type TypeDefKind uint8

const (
	TypeDefComposite TypeDefKind = iota
	TypeDefVariant
	TypeDefSequence
	TypeDefArray
	TypeDefTuple
	TypeDefPrimitive
	TypeDefCompact
	TypeDefBitSequence
)

type Primitive uint8

const (
	PrimitiveBool Primitive = iota
	PrimitiveChar
	PrimitiveStr
	PrimitiveU8
	PrimitiveU16
	PrimitiveU32
	PrimitiveU64
	PrimitiveU128
	PrimitiveU256
	PrimitiveI8
	PrimitiveI16
	PrimitiveI32
	PrimitiveI64
	PrimitiveI128
	PrimitiveI256
)

var primitiveNames = [...]string{"bool", "char", "str", "u8", "u16", "u32", "u64", "u128", "u256", "i8", "i16", "i32", "i64", "i128", "i256"}

func (p Primitive) String() string {
	if int(p) < len(primitiveNames) {
		return primitiveNames[p]
	}
	return fmt.Sprintf("Primitive(%d)", uint8(p))
}

type Field struct {
	Name     string
	Type     uint32
	TypeName string
	Docs     []string
}

type Variant struct {
	Name   string
	Fields []Field
	Index  uint8
	Docs   []string
}

type TypeParam struct {
	Name string
	Type *uint32
}

type TypeDef struct {
	Kind      TypeDefKind
	Fields    []Field
	Variants  []Variant
	Type      uint32 // element of Sequence, Array, Compact; bit store of BitSequence
	Len       uint32
	Tuple     []uint32
	Primitive Primitive
	BitOrder  uint32
}

type PortableType struct {
	ID     uint32
	Path   []string
	Params []TypeParam
	Def    TypeDef
	Docs   []string
}

// Registry is the v14 portable type registry.
type Registry struct {
	types map[uint32]*PortableType
}

func (reg *Registry) Lookup(id uint32) (*PortableType, error) {
	t, ok := reg.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", suberrors.ErrDUnknownType, id)
	}
	return t, nil
}

func (reg *Registry) Len() int {
	return len(reg.types)
}

// TypeName renders a type id the way type names appear in legacy metadata.
func (reg *Registry) TypeName(id uint32) string {
	return reg.typeName(id, 0)
}

func (reg *Registry) typeName(id uint32, depth int) string {
	t, ok := reg.types[id]
	if !ok || depth > 16 {
		return fmt.Sprintf("<%d>", id)
	}
	switch t.Def.Kind {
	case TypeDefPrimitive:
		return t.Def.Primitive.String()
	case TypeDefSequence:
		return "Vec<" + reg.typeName(t.Def.Type, depth+1) + ">"
	case TypeDefArray:
		return fmt.Sprintf("[%s; %d]", reg.typeName(t.Def.Type, depth+1), t.Def.Len)
	case TypeDefCompact:
		return "Compact<" + reg.typeName(t.Def.Type, depth+1) + ">"
	case TypeDefTuple:
		parts := make([]string, len(t.Def.Tuple))
		for i, e := range t.Def.Tuple {
			parts[i] = reg.typeName(e, depth+1)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TypeDefBitSequence:
		return "BitVec"
	}
	if len(t.Path) == 0 {
		return fmt.Sprintf("<%d>", id)
	}
	name := t.Path[len(t.Path)-1]
	var params []string
	for _, p := range t.Params {
		if p.Type != nil {
			params = append(params, reg.typeName(*p.Type, depth+1))
		}
	}
	if len(params) > 0 {
		name += "<" + strings.Join(params, ", ") + ">"
	}
	return name
}

func decodeRegistry(r *reader) *Registry {
	reg := &Registry{types: map[uint32]*PortableType{}}
	n := r.length()
	for i := 0; i < n && r.err == nil; i++ {
		t := &PortableType{ID: r.compact(), Path: r.strs()}
		params := r.length()
		for j := 0; j < params && r.err == nil; j++ {
			p := TypeParam{Name: r.str()}
			if r.option() {
				id := r.compact()
				p.Type = &id
			}
			t.Params = append(t.Params, p)
		}
		t.Def = decodeTypeDef(r)
		t.Docs = r.strs()
		reg.types[t.ID] = t
	}
	return reg
}

func decodeTypeDef(r *reader) TypeDef {
	def := TypeDef{Kind: TypeDefKind(r.u8())}
	switch def.Kind {
	case TypeDefComposite:
		def.Fields = decodeFields(r)
	case TypeDefVariant:
		n := r.length()
		for i := 0; i < n && r.err == nil; i++ {
			def.Variants = append(def.Variants, Variant{Name: r.str(), Fields: decodeFields(r), Index: r.u8(), Docs: r.strs()})
		}
	case TypeDefSequence, TypeDefCompact:
		def.Type = r.compact()
	case TypeDefArray:
		def.Len = r.u32()
		def.Type = r.compact()
	case TypeDefTuple:
		n := r.length()
		for i := 0; i < n && r.err == nil; i++ {
			def.Tuple = append(def.Tuple, r.compact())
		}
	case TypeDefPrimitive:
		def.Primitive = Primitive(r.u8())
	case TypeDefBitSequence:
		def.Type = r.compact()
		def.BitOrder = r.compact()
	default:
		r.fail(fmt.Errorf("%w: type def %d", suberrors.ErrDUnknownEnumTag, def.Kind))
	}
	return def
}

func decodeFields(r *reader) []Field {
	n := r.length()
	out := make([]Field, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, Field{Name: r.optionalStr(), Type: r.compact(), TypeName: r.optionalStr(), Docs: r.strs()})
	}
	return out
}
