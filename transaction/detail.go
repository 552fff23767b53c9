package transaction

import (
	"fmt"
	"math/big"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// PreparedTransactionDetail is one call of a prepared batch.
type PreparedTransactionDetail struct {
	RuntimeVersion *uint32
	Type           TransactionType
	Fee            *big.Int
	Transaction    *Transaction
	// Payload is the hex signing payload.
	Payload string
}

// Encode writes
//
//	Option<u32 specVersion> ++ u8 type ++ compact(fee) ++ extrinsic ++ String(payload)
//
// The extrinsic is encoded against the detail's own runtime version.
func (p *PreparedTransactionDetail) Encode(cfg *scale.Config) ([]byte, error) {
	rv := scale.None[scale.FixedInt]()
	if p.RuntimeVersion != nil {
		rv = scale.Some(scale.U32(*p.RuntimeVersion))
	}
	tag, err := scale.NewEnum(TypeTags, p.Type)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int)
	if p.Fee != nil {
		fee = p.Fee
	}
	feeValue, err := scale.NewCompactIntFromBig(fee)
	if err != nil {
		return nil, err
	}
	local := cfg.WithRuntimeVersion(p.RuntimeVersion)
	out := rv.Encode(local)
	out = append(out, tag.Encode(local)...)
	out = append(out, feeValue.Encode(local)...)
	out = append(out, p.Transaction.Encode(local)...)
	out = append(out, scale.String(p.Payload).Encode(local)...)
	return out, nil
}

// DecodePreparedTransactionDetail reads one batch element. The call is
// dispatched on the decoded type tag.
func DecodePreparedTransactionDetail(ctx *Context) scale.DecodeFunc[*PreparedTransactionDetail] {
	return func(cfg *scale.Config, data []byte) (scale.Decoded[*PreparedTransactionDetail], error) {
		d := scale.NewDecoder(cfg, data)
		rv, err := scale.Next(d, scale.DecodeOptional(scale.DecodeU32))
		if err != nil {
			return scale.Decoded[*PreparedTransactionDetail]{}, err
		}
		p := &PreparedTransactionDetail{}
		if v, ok := rv.Get(); ok {
			version := uint32(v.Uint64())
			p.RuntimeVersion = &version
		}
		tag, err := scale.Next(d, scale.DecodeEnum(TypeTags))
		if err != nil {
			return scale.Decoded[*PreparedTransactionDetail]{}, err
		}
		p.Type = tag.Value
		fee, err := d.DecodeNextCompactInt()
		if err != nil {
			return scale.Decoded[*PreparedTransactionDetail]{}, err
		}
		p.Fee = fee.Big()

		local := ctx.At(p.RuntimeVersion)
		tx, err := DecodeTransaction(local, p.Type)(local.Config(), d.Remaining())
		if err != nil {
			return scale.Decoded[*PreparedTransactionDetail]{}, fmt.Errorf("%s transaction: %w", p.Type, err)
		}
		p.Transaction = tx.Value
		if err := d.Skip(tx.BytesDecoded); err != nil {
			return scale.Decoded[*PreparedTransactionDetail]{}, err
		}
		payload, err := d.DecodeNextString()
		if err != nil {
			return scale.Decoded[*PreparedTransactionDetail]{}, err
		}
		p.Payload = string(payload)
		return scale.Decoded[*PreparedTransactionDetail]{BytesDecoded: d.Offset(), Value: p}, nil
	}
}

// EncodeBatch writes the details as Array<Bytes>.
func EncodeBatch(ctx *Context, details []*PreparedTransactionDetail) ([]byte, error) {
	if len(details) == 0 {
		return nil, suberrors.ErrVInvalidBatch
	}
	items := make(scale.Array[scale.Bytes], 0, len(details))
	for i, p := range details {
		enc, err := p.Encode(ctx.Config())
		if err != nil {
			return nil, fmt.Errorf("detail %d: %w", i, err)
		}
		items = append(items, enc)
	}
	return items.Encode(ctx.Config()), nil
}

func DecodeBatch(ctx *Context, data []byte) ([]*PreparedTransactionDetail, error) {
	items, err := scale.DecodeAll(ctx.Config(), scale.DecodeArray(scale.DecodeBytes), data)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, suberrors.ErrVInvalidBatch
	}
	out := make([]*PreparedTransactionDetail, 0, len(items))
	for i, item := range items {
		p, err := scale.DecodeAll(ctx.Config(), DecodePreparedTransactionDetail(ctx), item)
		if err != nil {
			return nil, fmt.Errorf("detail %d: %w", i, err)
		}
		out = append(out, p)
	}
	log.Debug(log.TxMonitoring, "batch decoded", "details", len(out))
	return out, nil
}

func EncodeBatchHex(ctx *Context, details []*PreparedTransactionDetail) (string, error) {
	b, err := EncodeBatch(ctx, details)
	if err != nil {
		return "", err
	}
	return common.Bytes2String(b), nil
}

func DecodeBatchHex(ctx *Context, s string) ([]*PreparedTransactionDetail, error) {
	data, err := common.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suberrors.ErrDMalformedHex, err)
	}
	return DecodeBatch(ctx, data)
}

// UnsignedTransaction and SignedTransaction carry an encoded batch. The
// signed form has every extrinsic's signature attached.
type UnsignedTransaction struct {
	Network string `json:"network"`
	Batch   string `json:"batch"`
}

type SignedTransaction struct {
	Network string `json:"network"`
	Batch   string `json:"batch"`
}

// Summary is the user facing view of one prepared detail.
type Summary struct {
	Type   TransactionType `json:"type"`
	From   string          `json:"from"`
	To     []string        `json:"to,omitempty"`
	Amount *big.Int        `json:"amount,omitempty"`
	Fee    *big.Int        `json:"fee"`
}

// Summarize projects a detail. Calls without parts yield only sender and fee.
func (p *PreparedTransactionDetail) Summarize(ctx *Context) (Summary, error) {
	s := Summary{Type: p.Type, Fee: p.Fee}
	if p.Transaction == nil {
		return s, nil
	}
	if p.Transaction.Signer != nil {
		from, err := p.Transaction.Signer.Address(ctx.Config())
		if err != nil {
			return s, err
		}
		s.From = from
	}
	for _, part := range p.Transaction.Method.SummaryParts() {
		if part.To != "" {
			s.To = append(s.To, part.To)
		}
		if part.Amount != nil {
			if s.Amount == nil {
				s.Amount = new(big.Int)
			}
			s.Amount.Add(s.Amount, part.Amount)
		}
	}
	return s, nil
}
