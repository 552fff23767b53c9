package metadata

import (
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/scale"
)

// blob assembles metadata fixtures field by field.
type blob []byte

func newBlob(version uint8) blob {
	return append(blob("meta"), version)
}

func (b blob) u8(v uint8) blob       { return append(b, v) }
func (b blob) u32(v uint32) blob     { return append(b, scale.U32(v).Encode(nil)...) }
func (b blob) compact(v uint64) blob { return append(b, scale.EncodeCompact(v)...) }
func (b blob) str(s string) blob     { return append(b, scale.String(s).Encode(nil)...) }
func (b blob) bytes(v []byte) blob   { return append(b, scale.Bytes(v).Encode(nil)...) }
func (b blob) none() blob            { return append(b, 0) }
func (b blob) some() blob            { return append(b, 1) }
func (b blob) raw(v blob) blob       { return append(b, v...) }

func (b blob) strs(v ...string) blob {
	b = b.compact(uint64(len(v)))
	for _, s := range v {
		b = b.str(s)
	}
	return b
}

func (b blob) vec(items ...blob) blob {
	b = b.compact(uint64(len(items)))
	for _, it := range items {
		b = b.raw(it)
	}
	return b
}

const aliceHex = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

var alice = common.Hex2Bytes(aliceHex)

// legacyModule builds a v11/v13 module. index < 0 omits the pallet index.
func legacyModule(name string, storage blob, calls []blob, constants []blob, index int) blob {
	var m blob
	m = m.str(name)
	if storage == nil {
		m = m.none()
	} else {
		m = m.some().raw(storage)
	}
	if calls == nil {
		m = m.none()
	} else {
		m = m.some().vec(calls...)
	}
	m = m.none() // events
	m = m.vec(constants...)
	m = m.vec(blob(nil).str("InsufficientBalance").strs("Balance too low"))
	if index >= 0 {
		m = m.u8(uint8(index))
	}
	return m
}

func legacyCall(name string, args ...[2]string) blob {
	var as []blob
	for _, a := range args {
		as = append(as, blob(nil).str(a[0]).str(a[1]))
	}
	return blob(nil).str(name).vec(as...).strs()
}

func legacyConstant(name, typ string, value []byte) blob {
	return blob(nil).str(name).str(typ).bytes(value).strs("doc")
}

func legacyEntry(name string, typ blob) blob {
	return blob(nil).str(name).u8(ModifierDefault).raw(typ).bytes(nil).strs()
}

func plainType(value string) blob {
	return blob(nil).u8(storageTypePlain).str(value)
}

func mapType(h Hasher, key, value string) blob {
	return blob(nil).u8(storageTypeMap).u8(uint8(h)).str(key).str(value).u8(0)
}

func doubleMapType(h1 Hasher, key1, key2, value string, h2 Hasher) blob {
	return blob(nil).u8(storageTypeDoubleMap).u8(uint8(h1)).str(key1).str(key2).str(value).u8(uint8(h2))
}

func nmapType(keys []string, hashers []Hasher, value string) blob {
	b := blob(nil).u8(storageTypeNMap).strs(keys...).compact(uint64(len(hashers)))
	for _, h := range hashers {
		b = b.u8(uint8(h))
	}
	return b.str(value)
}

// legacyFixture is System, Babe (no calls), Balances, Staking. withIndex
// appends the explicit indices 0, 1, 5, 7 and adds an NMap entry (v13).
func legacyFixture(version uint8) []byte {
	withIndex := version >= V12
	idx := func(i int) int {
		if withIndex {
			return i
		}
		return -1
	}
	system := blob(nil).str("System").vec(
		legacyEntry("Account", mapType(Blake2_128Concat, "T::AccountId", "AccountInfo<T::Index, T::AccountData>")),
		legacyEntry("Number", plainType("T::BlockNumber")),
	)
	balances := blob(nil).str("Balances").vec(legacyEntry("TotalIssuance", plainType("T::Balance")))
	stakingEntries := []blob{
		legacyEntry("Bonded", mapType(Twox64Concat, "T::AccountId", "T::AccountId")),
		legacyEntry("ErasStakers", doubleMapType(Twox64Concat, "EraIndex", "T::AccountId", "Exposure", Twox64Concat)),
	}
	if version >= V13 {
		stakingEntries = append(stakingEntries, legacyEntry("ErasStakersPaged",
			nmapType([]string{"EraIndex", "T::AccountId", "Page"}, []Hasher{Twox64Concat, Blake2_128Concat, Identity}, "ExposurePage")))
	}
	staking := blob(nil).str("Staking").vec(stakingEntries...)

	modules := []blob{
		legacyModule("System", system, []blob{legacyCall("remark", [2]string{"_remark", "Vec<u8>"})},
			[]blob{legacyConstant("BlockHashCount", "T::BlockNumber", common.Hex2Bytes("60090000"))}, idx(0)),
		legacyModule("Babe", nil, nil, nil, idx(1)),
		legacyModule("Balances", balances, []blob{
			legacyCall("transfer", [2]string{"dest", "<T::Lookup as StaticLookup>::Source"}, [2]string{"value", "Compact<T::Balance>"}),
			legacyCall("transfer_keep_alive", [2]string{"dest", "<T::Lookup as StaticLookup>::Source"}, [2]string{"value", "Compact<T::Balance>"}),
		}, []blob{legacyConstant("ExistentialDeposit", "T::Balance", common.Hex2Bytes("00e40b54020000000000000000000000"))}, idx(5)),
		legacyModule("Staking", staking, []blob{
			legacyCall("bond", [2]string{"value", "Compact<BalanceOf<T>>"}, [2]string{"payee", "RewardDestination<T::AccountId>"}),
			legacyCall("bond_extra", [2]string{"max_additional", "Compact<BalanceOf<T>>"}),
		}, nil, idx(7)),
	}
	b := newBlob(version).vec(modules...)
	return b.u8(4).strs("CheckSpecVersion", "CheckNonce")
}

// portable type helpers for v14
func portable(id uint64, path []string, def blob) blob {
	return blob(nil).compact(id).strs(path...).vec().raw(def).strs()
}

func portableWithParams(id uint64, path []string, params []blob, def blob) blob {
	return blob(nil).compact(id).strs(path...).vec(params...).raw(def).strs()
}

func param(name string, ty int) blob {
	b := blob(nil).str(name)
	if ty < 0 {
		return b.none()
	}
	return b.some().compact(uint64(ty))
}

func primitive(p Primitive) blob { return blob(nil).u8(uint8(TypeDefPrimitive)).u8(uint8(p)) }

func field(name string, ty uint64, typeName string) blob {
	b := blob(nil)
	if name == "" {
		b = b.none()
	} else {
		b = b.some().str(name)
	}
	b = b.compact(ty)
	if typeName == "" {
		b = b.none()
	} else {
		b = b.some().str(typeName)
	}
	return b.strs()
}

func variant(name string, index uint8, fields ...blob) blob {
	return blob(nil).str(name).vec(fields...).u8(index).strs()
}

func v14Fixture() []byte {
	types := []blob{
		portable(0, nil, primitive(PrimitiveU8)),
		portable(1, nil, blob(nil).u8(uint8(TypeDefSequence)).compact(0)),
		portable(2, nil, primitive(PrimitiveU128)),
		portable(3, nil, blob(nil).u8(uint8(TypeDefCompact)).compact(2)),
		portable(4, []string{"sp_core", "crypto", "AccountId32"}, blob(nil).u8(uint8(TypeDefComposite)).vec(field("", 5, "[u8; 32]"))),
		portable(5, nil, blob(nil).u8(uint8(TypeDefArray)).u32(32).compact(0)),
		portable(6, []string{"pallet_balances", "pallet", "Call"}, blob(nil).u8(uint8(TypeDefVariant)).vec(
			variant("transfer_allow_death", 0, field("dest", 7, "AccountIdLookupOf<T>"), field("value", 3, "")),
			variant("transfer_keep_alive", 3, field("dest", 7, "AccountIdLookupOf<T>"), field("value", 3, "")),
		)),
		portableWithParams(7, []string{"sp_runtime", "multiaddress", "MultiAddress"},
			[]blob{param("AccountId", 4), param("AccountIndex", -1)},
			blob(nil).u8(uint8(TypeDefVariant)).vec(variant("Id", 0, field("", 4, "AccountId")))),
		portable(8, nil, blob(nil).u8(uint8(TypeDefTuple)).vec(blob(nil).compact(9), blob(nil).compact(4))),
		portable(9, nil, primitive(PrimitiveU32)),
		portable(10, []string{"frame_system", "AccountInfo"}, blob(nil).u8(uint8(TypeDefComposite)).vec(field("nonce", 9, "Nonce"))),
		portable(11, []string{"pallet_staking", "pallet", "Call"}, blob(nil).u8(uint8(TypeDefVariant)).vec(
			variant("bond", 0, field("value", 3, "")),
			variant("nominate", 5, field("targets", 12, "")),
		)),
		portable(12, nil, blob(nil).u8(uint8(TypeDefSequence)).compact(7)),
		portable(13, []string{"pallet_balances", "pallet", "Error"}, blob(nil).u8(uint8(TypeDefVariant)).vec(
			variant("InsufficientBalance", 2),
		)),
	}
	entry := func(name string, typ blob) blob {
		return blob(nil).str(name).u8(ModifierDefault).raw(typ).bytes(nil).strs()
	}
	hashers := func(hs ...Hasher) blob {
		b := blob(nil).compact(uint64(len(hs)))
		for _, h := range hs {
			b = b.u8(uint8(h))
		}
		return b
	}
	system := blob(nil).str("System").
		some().str("System").vec(
		entry("Account", blob(nil).u8(storageTypeV14Map).raw(hashers(Blake2_128Concat)).compact(4).compact(10)),
		entry("Number", blob(nil).u8(storageTypeV14Plain).compact(9)),
	).
		none().none().
		vec(blob(nil).str("BlockHashCount").compact(9).bytes(common.Hex2Bytes("60090000")).strs()).
		none().u8(0)
	balances := blob(nil).str("Balances").none().
		some().compact(6).
		none().
		vec(blob(nil).str("ExistentialDeposit").compact(2).bytes(common.Hex2Bytes("00e40b54020000000000000000000000")).strs()).
		some().compact(13).
		u8(5)
	staking := blob(nil).str("Staking").
		some().str("Staking").vec(
		entry("ErasStakers", blob(nil).u8(storageTypeV14Map).raw(hashers(Twox64Concat, Twox64Concat)).compact(8).compact(2)),
	).
		some().compact(11).
		none().vec().none().u8(7)

	b := newBlob(V14).vec(types...).vec(system, balances, staking)
	b = b.compact(1).u8(4).vec(blob(nil).str("CheckNonce").compact(9).compact(0))
	return b.compact(0)
}
