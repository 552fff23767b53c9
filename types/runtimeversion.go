package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"

	"github.com/colorfulnotion/subwallet/common"
)

// RuntimeVersion is the state_getRuntimeVersion result.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	ImplName           string `json:"implName"`
	AuthoringVersion   uint32 `json:"authoringVersion"`
	SpecVersion        uint32 `json:"specVersion"`
	ImplVersion        uint32 `json:"implVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
	StateVersion       uint8  `json:"stateVersion"`
}

func (r RuntimeVersion) String() string {
	return fmt.Sprintf("%s/%d (tx %d)", r.SpecName, r.SpecVersion, r.TransactionVersion)
}

// Header is the part of chain_getHeader the wallet reads.
type Header struct {
	ParentHash common.Hash `json:"parentHash"`
	Number     BlockNumber `json:"number"`
	StateRoot  common.Hash `json:"stateRoot"`
}

// BlockNumber is rendered by nodes as a 0x-prefixed hex quantity.
type BlockNumber uint64

func (n *BlockNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var v uint64
		if err2 := json.Unmarshal(data, &v); err2 != nil {
			return err
		}
		*n = BlockNumber(v)
		return nil
	}
	v, err := strconv.ParseUint(common.StripHexPrefix(s), 16, 64)
	if err != nil {
		return fmt.Errorf("block number %q: %w", s, err)
	}
	*n = BlockNumber(v)
	return nil
}

func (n BlockNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%x", uint64(n)))
}

// FeeInfo is the payment_queryInfo result. partialFee is a decimal string.
type FeeInfo struct {
	Class      string          `json:"class"`
	PartialFee Balance         `json:"partialFee"`
	Weight     json.RawMessage `json:"weight"`
}

// Balance decodes the decimal or hex string encodings nodes use for u128.
type Balance struct {
	*big.Int
}

func NewBalance(v *big.Int) Balance {
	return Balance{Int: new(big.Int).Set(v)}
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return err
		}
		s = n.String()
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return fmt.Errorf("invalid balance %q", s)
	}
	b.Int = v
	return nil
}

func (b Balance) MarshalJSON() ([]byte, error) {
	if b.Int == nil {
		return json.Marshal("0")
	}
	return json.Marshal(b.Int.String())
}
