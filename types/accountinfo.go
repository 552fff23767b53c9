package types

import (
	"fmt"
	"math/big"

	"github.com/colorfulnotion/subwallet/scale"
)

// AccountData is the balances part of System.Account.
type AccountData struct {
	Free     *big.Int `json:"free"`
	Reserved *big.Int `json:"reserved"`
	Frozen   *big.Int `json:"frozen"`
	Flags    *big.Int `json:"flags"`
}

// AccountInfo is the value stored under System.Account. Older runtimes
// named the last two balances misc_frozen and fee_frozen; the layout is the
// same.
type AccountInfo struct {
	Nonce       uint32      `json:"nonce"`
	Consumers   uint32      `json:"consumers"`
	Providers   uint32      `json:"providers"`
	Sufficients uint32      `json:"sufficients"`
	Data        AccountData `json:"data"`
}

// EmptyAccountInfo is what a never-funded account reads as.
func EmptyAccountInfo() *AccountInfo {
	return &AccountInfo{Data: AccountData{Free: new(big.Int), Reserved: new(big.Int), Frozen: new(big.Int), Flags: new(big.Int)}}
}

func DecodeAccountInfo(data []byte) (*AccountInfo, error) {
	d := scale.NewDecoder(nil, data)
	var words [4]uint32
	for i := range words {
		v, err := d.DecodeNextInt(32)
		if err != nil {
			return nil, fmt.Errorf("account info: %w", err)
		}
		words[i] = uint32(v.Uint64())
	}
	var balances [4]*big.Int
	for i := range balances {
		v, err := d.DecodeNextInt(128)
		if err != nil {
			return nil, fmt.Errorf("account info: %w", err)
		}
		balances[i] = v.Big()
	}
	return &AccountInfo{
		Nonce:       words[0],
		Consumers:   words[1],
		Providers:   words[2],
		Sufficients: words[3],
		Data:        AccountData{Free: balances[0], Reserved: balances[1], Frozen: balances[2], Flags: balances[3]},
	}, nil
}

func (a *AccountInfo) Encode() ([]byte, error) {
	out := append(scale.U32(a.Nonce).Encode(nil), scale.U32(a.Consumers).Encode(nil)...)
	out = append(out, scale.U32(a.Providers).Encode(nil)...)
	out = append(out, scale.U32(a.Sufficients).Encode(nil)...)
	for _, b := range []*big.Int{a.Data.Free, a.Data.Reserved, a.Data.Frozen, a.Data.Flags} {
		if b == nil {
			b = new(big.Int)
		}
		v, err := scale.U128(b)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Encode(nil)...)
	}
	return out, nil
}

// Transferable is free minus frozen, floored at zero.
func (a *AccountInfo) Transferable() *big.Int {
	if a.Data.Free == nil {
		return new(big.Int)
	}
	out := new(big.Int).Set(a.Data.Free)
	if a.Data.Frozen != nil {
		out.Sub(out, a.Data.Frozen)
	}
	if out.Sign() < 0 {
		return new(big.Int)
	}
	return out
}
