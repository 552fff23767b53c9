package transaction

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

type Field struct {
	Name  string
	Value scale.Value
}

// SummaryPart is one human readable movement of funds inside a call.
type SummaryPart struct {
	To     string   `json:"to,omitempty"`
	Amount *big.Int `json:"amount,omitempty"`
}

// Method is a dispatchable call: [palletIndex, callIndex] followed by the
// call's fields.
type Method struct {
	Type        TransactionType
	PalletIndex uint8
	CallIndex   uint8
	Args        Args
	Fields      []Field

	encoded []byte
}

// NewMethod validates args, resolves the call index from the runtime
// metadata and builds the ordered fields.
func NewMethod(ctx *Context, t TransactionType, args Args) (*Method, error) {
	codec, err := lookup(t)
	if err != nil {
		return nil, err
	}
	if m := args.Missing(); len(m) > 0 {
		return nil, suberrors.MissingArguments(t.String(), m)
	}
	call, err := codec.resolve(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := codec.fields(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	return &Method{Type: t, PalletIndex: call.PalletIndex, CallIndex: call.CallIndex, Args: args, Fields: fields}, nil
}

func (m *Method) Encode(cfg *scale.Config) []byte {
	if m.encoded != nil {
		return slices.Clone(m.encoded)
	}
	out := []byte{m.PalletIndex, m.CallIndex}
	for _, f := range m.Fields {
		out = append(out, f.Value.Encode(cfg)...)
	}
	return out
}

func (m *Method) String() string {
	parts := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		parts = append(parts, f.Name+": "+f.Value.String())
	}
	return fmt.Sprintf("%s[%d, %d](%s)", m.Type, m.PalletIndex, m.CallIndex, strings.Join(parts, ", "))
}

func (m *Method) SummaryParts() []SummaryPart {
	codec, err := lookup(m.Type)
	if err != nil || codec.summary == nil {
		return nil
	}
	return codec.summary(m.Args)
}

// DecodeMethod decodes a call of type t. With metadata in ctx the call index
// must belong to t.
func DecodeMethod(ctx *Context, t TransactionType) scale.DecodeFunc[*Method] {
	return func(cfg *scale.Config, data []byte) (scale.Decoded[*Method], error) {
		codec, err := lookup(t)
		if err != nil {
			return scale.Decoded[*Method]{}, err
		}
		d := scale.NewDecoder(cfg, data)
		index, err := d.DecodeNextFixedBytes(2)
		if err != nil {
			return scale.Decoded[*Method]{}, err
		}
		if err := codec.check(ctx, index[0], index[1]); err != nil {
			return scale.Decoded[*Method]{}, fmt.Errorf("%s: %w", t, err)
		}
		args, err := codec.decode(ctx, d)
		if err != nil {
			return scale.Decoded[*Method]{}, fmt.Errorf("%s: %w", t, err)
		}
		m := &Method{
			Type:        t,
			PalletIndex: index[0],
			CallIndex:   index[1],
			Args:        args,
			encoded:     slices.Clone(data[:d.Offset()]),
		}
		return scale.Decoded[*Method]{BytesDecoded: d.Offset(), Value: m}, nil
	}
}

// TypeOf maps a metadata call back to its transaction type.
func TypeOf(call metadata.Call) (TransactionType, bool) {
	for t, codec := range registry {
		if codec.pallet == call.Pallet && slices.Contains(codec.calls, call.Name) {
			return t, true
		}
	}
	return 0, false
}

// NewArgs returns an empty argument record for t, ready to be filled from
// JSON.
func NewArgs(t TransactionType) (Args, error) {
	codec, err := lookup(t)
	if err != nil {
		return nil, err
	}
	return codec.newArgs(), nil
}

func lookup(t TransactionType) (methodCodec, error) {
	codec, ok := registry[t]
	if !ok {
		return methodCodec{}, fmt.Errorf("%w: %s", suberrors.ErrUUnsupportedTransactionType, t)
	}
	return codec, nil
}

// ResolveCall finds the call t dispatches to on ctx's runtime.
func ResolveCall(ctx *Context, t TransactionType) (metadata.Call, error) {
	codec, err := lookup(t)
	if err != nil {
		return metadata.Call{}, err
	}
	return codec.resolve(ctx)
}
