package transaction

import (
	"math/big"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/scale"
)

// SigningPayload is what the signer signs:
//
//	call ++ era ++ compact(nonce) ++ compact(tip) [++ mode] ++ u32(spec)
//	++ u32(txVersion) ++ genesis ++ blockHash [++ metadataHashFlag]
//
// The optional fields follow the network's payload configuration.
type SigningPayload struct {
	Call               []byte
	Era                Era
	Nonce              uint32
	Tip                *big.Int
	SpecVersion        uint32
	TransactionVersion uint32
	GenesisHash        common.Hash
	BlockHash          common.Hash
	ModeByte           bool
	MetadataHash       bool
}

// NewSigningPayload fills the format flags from ctx's network.
func NewSigningPayload(ctx *Context, call []byte, era Era, nonce uint32, tip *big.Int, specVersion, txVersion uint32, genesis, block common.Hash) *SigningPayload {
	p := &SigningPayload{
		Call:               call,
		Era:                era,
		Nonce:              nonce,
		Tip:                tip,
		SpecVersion:        specVersion,
		TransactionVersion: txVersion,
		GenesisHash:        genesis,
		BlockHash:          block,
	}
	if ctx.Network != nil {
		p.ModeByte = ctx.Network.Payload.ModeByte
		p.MetadataHash = ctx.Network.Payload.MetadataHash
	}
	if era.Immortal {
		p.BlockHash = genesis
	}
	return p
}

func (p *SigningPayload) Encode() []byte {
	out := append([]byte{}, p.Call...)
	out = append(out, p.Era.Encode(nil)...)
	out = append(out, scale.EncodeCompact(uint64(p.Nonce))...)
	out = append(out, tipCompact(p.Tip).Encode(nil)...)
	if p.ModeByte {
		out = append(out, 0)
	}
	out = append(out, scale.U32(p.SpecVersion).Encode(nil)...)
	out = append(out, scale.U32(p.TransactionVersion).Encode(nil)...)
	out = append(out, p.GenesisHash.Bytes()...)
	out = append(out, p.BlockHash.Bytes()...)
	if p.MetadataHash {
		out = append(out, 0)
	}
	return out
}

func (p *SigningPayload) Hex() string {
	return common.Bytes2String(p.Encode())
}

func tipCompact(tip *big.Int) scale.CompactInt {
	if tip == nil || tip.Sign() <= 0 {
		return scale.NewCompactInt(0)
	}
	c, err := scale.NewCompactIntFromBig(tip)
	if err != nil {
		return scale.NewCompactInt(0)
	}
	return c
}
