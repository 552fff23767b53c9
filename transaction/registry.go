package transaction

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// methodCodec is the per-type entry of the dispatch table: where the call
// lives, how its fields are built and read back, and what it shows a user.
type methodCodec struct {
	pallet  string
	calls   []string
	newArgs func() Args
	fields  func(ctx *Context, a Args) ([]Field, error)
	decode  func(ctx *Context, d *scale.Decoder) (Args, error)
	summary func(a Args) []SummaryPart
}

var registry = map[TransactionType]methodCodec{}

func register[A Args](
	t TransactionType,
	pallet string,
	calls []string,
	newArgs func() A,
	fields func(*Context, A) ([]Field, error),
	decode func(*Context, *scale.Decoder) (A, error),
	summary func(A) []SummaryPart,
) {
	c := methodCodec{
		pallet:  pallet,
		calls:   calls,
		newArgs: func() Args { return newArgs() },
		fields: func(ctx *Context, a Args) ([]Field, error) {
			typed, ok := a.(A)
			if !ok {
				return nil, fmt.Errorf("%w: %T is not %s arguments", suberrors.ErrVInvalidArgument, a, t)
			}
			return fields(ctx, typed)
		},
		decode: func(ctx *Context, d *scale.Decoder) (Args, error) {
			return decode(ctx, d)
		},
	}
	if summary != nil {
		c.summary = func(a Args) []SummaryPart {
			if typed, ok := a.(A); ok {
				return summary(typed)
			}
			return nil
		}
	}
	registry[t] = c
}

func (c methodCodec) resolve(ctx *Context) (metadata.Call, error) {
	if ctx == nil || ctx.Metadata == nil {
		return metadata.Call{}, fmt.Errorf("%w: no runtime metadata for %s", suberrors.ErrNCallNotFound, c.pallet)
	}
	return ctx.Metadata.FirstCall(c.pallet, c.calls...)
}

func (c methodCodec) check(ctx *Context, palletIndex, callIndex uint8) error {
	if ctx == nil || ctx.Metadata == nil {
		return nil
	}
	call, err := ctx.Metadata.CallByIndex(palletIndex, callIndex)
	if err != nil {
		return err
	}
	if call.Pallet != c.pallet || !slices.Contains(c.calls, call.Name) {
		return fmt.Errorf("%w: [%d, %d] is %s.%s", suberrors.ErrNCallNotFound, palletIndex, callIndex, call.Pallet, call.Name)
	}
	return nil
}

func compact(v *big.Int) (scale.Value, error) {
	return scale.NewCompactIntFromBig(v)
}

func u128(v *big.Int) (scale.Value, error) {
	return scale.U128(v)
}

func dest(ctx *Context, addr string) (scale.Value, error) {
	return scale.NewMultiAddressId(ctx.Config(), addr)
}

func account(ctx *Context, addr string) (scale.Value, error) {
	return scale.NewAccountId(ctx.Config(), addr)
}

// build collects fields, stopping at the first constructor error.
type build struct {
	fields []Field
	err    error
}

func (b *build) add(name string, v scale.Value, err error) *build {
	if b.err != nil {
		return b
	}
	if err != nil {
		b.err = fmt.Errorf("%s: %w", name, err)
		return b
	}
	b.fields = append(b.fields, Field{Name: name, Value: v})
	return b
}

func (b *build) done() ([]Field, error) {
	return b.fields, b.err
}

func nextAddress(d *scale.Decoder) (string, error) {
	id, err := d.DecodeNextAccountId()
	if err != nil {
		return "", err
	}
	return id.Address(d.Config())
}

func nextDest(d *scale.Decoder) (string, error) {
	m, err := d.DecodeNextMultiAddress()
	if err != nil {
		return "", err
	}
	if id, ok := m.AccountId(); ok {
		return id.Address(d.Config())
	}
	return m.String(), nil
}

func nextCompact(d *scale.Decoder) (*big.Int, error) {
	v, err := d.DecodeNextCompactInt()
	return v.Big(), err
}

func nextU128(d *scale.Decoder) (*big.Int, error) {
	v, err := d.DecodeNextInt(128)
	return v.Big(), err
}

func nextU32(d *scale.Decoder) (uint32, error) {
	v, err := d.DecodeNextInt(32)
	return uint32(v.Uint64()), err
}

const (
	palletBalances         = "Balances"
	palletStaking          = "Staking"
	palletUtility          = "Utility"
	palletParachainStaking = "ParachainStaking"
)

func init() {
	registerSubstrate()
	registerParachainStaking()
}

func registerSubstrate() {
	register(Transfer, palletBalances, []string{"transfer_allow_death", "transfer"},
		func() *TransferArgs { return &TransferArgs{} },
		func(ctx *Context, a *TransferArgs) ([]Field, error) {
			b := &build{}
			v, err := dest(ctx, a.To)
			b.add("dest", v, err)
			v, err = compact(a.Value)
			return b.add("value", v, err).done()
		},
		func(_ *Context, d *scale.Decoder) (*TransferArgs, error) {
			to, err := nextDest(d)
			if err != nil {
				return nil, err
			}
			value, err := nextCompact(d)
			return &TransferArgs{To: to, Value: value}, err
		},
		func(a *TransferArgs) []SummaryPart {
			return []SummaryPart{{To: a.To, Amount: a.Value}}
		},
	)

	register(Bond, palletStaking, []string{"bond"},
		func() *BondArgs { return &BondArgs{} },
		func(ctx *Context, a *BondArgs) ([]Field, error) {
			b := &build{}
			v, err := compact(a.Value)
			b.add("value", v, err)
			v, err = a.Payee.value(ctx.Config())
			return b.add("payee", v, err).done()
		},
		func(_ *Context, d *scale.Decoder) (*BondArgs, error) {
			value, err := nextCompact(d)
			if err != nil {
				return nil, err
			}
			payee, err := decodePayee(d)
			return &BondArgs{Value: value, Payee: payee}, err
		},
		nil,
	)

	for t, call := range map[TransactionType]string{Unbond: "unbond", Rebond: "rebond", BondExtra: "bond_extra"} {
		register(t, palletStaking, []string{call},
			func() *AmountArgs { return &AmountArgs{} },
			func(_ *Context, a *AmountArgs) ([]Field, error) {
				v, err := compact(a.Value)
				return (&build{}).add("value", v, err).done()
			},
			func(_ *Context, d *scale.Decoder) (*AmountArgs, error) {
				value, err := nextCompact(d)
				return &AmountArgs{Value: value}, err
			},
			nil,
		)
	}

	register(WithdrawUnbonded, palletStaking, []string{"withdraw_unbonded"},
		func() *WithdrawUnbondedArgs { return &WithdrawUnbondedArgs{} },
		func(_ *Context, a *WithdrawUnbondedArgs) ([]Field, error) {
			return []Field{{Name: "num_slashing_spans", Value: scale.U32(a.SlashingSpans)}}, nil
		},
		func(_ *Context, d *scale.Decoder) (*WithdrawUnbondedArgs, error) {
			spans, err := nextU32(d)
			return &WithdrawUnbondedArgs{SlashingSpans: spans}, err
		},
		nil,
	)

	register(Nominate, palletStaking, []string{"nominate"},
		func() *NominateArgs { return &NominateArgs{} },
		func(ctx *Context, a *NominateArgs) ([]Field, error) {
			targets := make(scale.Array[scale.MultiAddress], 0, len(a.Targets))
			for i, addr := range a.Targets {
				m, err := scale.NewMultiAddressId(ctx.Config(), addr)
				if err != nil {
					return nil, fmt.Errorf("targets[%d]: %w", i, err)
				}
				targets = append(targets, m)
			}
			return []Field{{Name: "targets", Value: targets}}, nil
		},
		func(_ *Context, d *scale.Decoder) (*NominateArgs, error) {
			n, err := d.DecodeNextCompactInt()
			if err != nil {
				return nil, err
			}
			a := &NominateArgs{}
			for i := uint64(0); i < n.Uint64(); i++ {
				target, err := nextDest(d)
				if err != nil {
					return nil, fmt.Errorf("targets[%d]: %w", i, err)
				}
				a.Targets = append(a.Targets, target)
			}
			return a, nil
		},
		func(a *NominateArgs) []SummaryPart {
			parts := make([]SummaryPart, len(a.Targets))
			for i, target := range a.Targets {
				parts[i] = SummaryPart{To: target}
			}
			return parts
		},
	)

	noArgs(CancelNomination, palletStaking, "chill")
	noArgs(SetController, palletStaking, "set_controller")

	register(CollectPayout, palletStaking, []string{"payout_stakers"},
		func() *CollectPayoutArgs { return &CollectPayoutArgs{} },
		collectPayoutFields,
		decodeCollectPayout,
		nil,
	)

	register(SetPayee, palletStaking, []string{"set_payee"},
		func() *SetPayeeArgs { return &SetPayeeArgs{} },
		func(ctx *Context, a *SetPayeeArgs) ([]Field, error) {
			v, err := a.Payee.value(ctx.Config())
			return (&build{}).add("payee", v, err).done()
		},
		func(_ *Context, d *scale.Decoder) (*SetPayeeArgs, error) {
			payee, err := decodePayee(d)
			return &SetPayeeArgs{Payee: payee}, err
		},
		nil,
	)

	// Sub-calls are always payouts.
	register(SubmitBatch, palletUtility, []string{"batch"},
		func() *SubmitBatchArgs { return &SubmitBatchArgs{} },
		func(ctx *Context, a *SubmitBatchArgs) ([]Field, error) {
			calls := make(scale.Array[*Method], 0, len(a.Payouts))
			for i, p := range a.Payouts {
				m, err := NewMethod(ctx, CollectPayout, p)
				if err != nil {
					return nil, fmt.Errorf("calls[%d]: %w", i, err)
				}
				calls = append(calls, m)
			}
			return []Field{{Name: "calls", Value: calls}}, nil
		},
		func(ctx *Context, d *scale.Decoder) (*SubmitBatchArgs, error) {
			calls, err := scale.Next(d, scale.DecodeArray(DecodeMethod(ctx, CollectPayout)))
			if err != nil {
				return nil, err
			}
			a := &SubmitBatchArgs{}
			for _, m := range calls {
				a.Payouts = append(a.Payouts, m.Args.(*CollectPayoutArgs))
			}
			return a, nil
		},
		nil,
	)
}

func collectPayoutFields(ctx *Context, a *CollectPayoutArgs) ([]Field, error) {
	b := &build{}
	v, err := account(ctx, a.ValidatorStash)
	b.add("validator_stash", v, err)
	return b.add("era", scale.U32(*a.Era), nil).done()
}

func decodeCollectPayout(_ *Context, d *scale.Decoder) (*CollectPayoutArgs, error) {
	stash, err := nextAddress(d)
	if err != nil {
		return nil, err
	}
	era, err := nextU32(d)
	return &CollectPayoutArgs{ValidatorStash: stash, Era: &era}, err
}

func noArgs(t TransactionType, pallet, call string) {
	register(t, pallet, []string{call},
		func() *NoArgs { return &NoArgs{} },
		func(*Context, *NoArgs) ([]Field, error) { return nil, nil },
		func(*Context, *scale.Decoder) (*NoArgs, error) { return &NoArgs{}, nil },
		nil,
	)
}

func registerParachainStaking() {
	register(Delegate, palletParachainStaking, []string{"delegate"},
		func() *DelegateArgs { return &DelegateArgs{} },
		func(ctx *Context, a *DelegateArgs) ([]Field, error) {
			b := &build{}
			v, err := account(ctx, a.Candidate)
			b.add("candidate", v, err)
			v, err = u128(a.Amount)
			b.add("amount", v, err)
			b.add("candidate_delegation_count", scale.U32(a.CandidateDelegationCount), nil)
			return b.add("delegation_count", scale.U32(a.DelegationCount), nil).done()
		},
		func(_ *Context, d *scale.Decoder) (*DelegateArgs, error) {
			a := &DelegateArgs{}
			var err error
			if a.Candidate, err = nextAddress(d); err != nil {
				return nil, err
			}
			if a.Amount, err = nextU128(d); err != nil {
				return nil, err
			}
			if a.CandidateDelegationCount, err = nextU32(d); err != nil {
				return nil, err
			}
			a.DelegationCount, err = nextU32(d)
			return a, err
		},
		func(a *DelegateArgs) []SummaryPart {
			return []SummaryPart{{To: a.Candidate, Amount: a.Amount}}
		},
	)

	for t, call := range map[TransactionType]string{
		DelegatorBondMore:         "delegator_bond_more",
		ScheduleDelegatorBondLess: "schedule_delegator_bond_less",
	} {
		var summary func(*CandidateAmountArgs) []SummaryPart
		if t == DelegatorBondMore {
			summary = func(a *CandidateAmountArgs) []SummaryPart {
				return []SummaryPart{{To: a.Candidate, Amount: a.Amount}}
			}
		}
		register(t, palletParachainStaking, []string{call},
			func() *CandidateAmountArgs { return &CandidateAmountArgs{} },
			func(ctx *Context, a *CandidateAmountArgs) ([]Field, error) {
				b := &build{}
				v, err := account(ctx, a.Candidate)
				b.add("candidate", v, err)
				v, err = u128(a.Amount)
				return b.add("amount", v, err).done()
			},
			func(_ *Context, d *scale.Decoder) (*CandidateAmountArgs, error) {
				candidate, err := nextAddress(d)
				if err != nil {
					return nil, err
				}
				amount, err := nextU128(d)
				return &CandidateAmountArgs{Candidate: candidate, Amount: amount}, err
			},
			summary,
		)
	}

	for t, call := range map[TransactionType]string{
		ScheduleRevokeDelegation: "schedule_revoke_delegation",
		CancelDelegationRequest:  "cancel_delegation_request",
	} {
		register(t, palletParachainStaking, []string{call},
			func() *CandidateArgs { return &CandidateArgs{} },
			func(ctx *Context, a *CandidateArgs) ([]Field, error) {
				v, err := account(ctx, a.Candidate)
				return (&build{}).add("candidate", v, err).done()
			},
			func(_ *Context, d *scale.Decoder) (*CandidateArgs, error) {
				candidate, err := nextAddress(d)
				return &CandidateArgs{Candidate: candidate}, err
			},
			nil,
		)
	}

	register(ExecuteDelegationRequest, palletParachainStaking, []string{"execute_delegation_request"},
		func() *ExecuteDelegationRequestArgs { return &ExecuteDelegationRequestArgs{} },
		func(ctx *Context, a *ExecuteDelegationRequestArgs) ([]Field, error) {
			b := &build{}
			v, err := account(ctx, a.Delegator)
			b.add("delegator", v, err)
			v, err = account(ctx, a.Candidate)
			return b.add("candidate", v, err).done()
		},
		func(_ *Context, d *scale.Decoder) (*ExecuteDelegationRequestArgs, error) {
			delegator, err := nextAddress(d)
			if err != nil {
				return nil, err
			}
			candidate, err := nextAddress(d)
			return &ExecuteDelegationRequestArgs{Delegator: delegator, Candidate: candidate}, err
		},
		nil,
	)

	noArgs(ScheduleLeaveDelegators, palletParachainStaking, "schedule_leave_delegators")
	noArgs(CancelLeaveDelegators, palletParachainStaking, "cancel_leave_delegators")

	register(ExecuteLeaveDelegators, palletParachainStaking, []string{"execute_leave_delegators"},
		func() *ExecuteLeaveDelegatorsArgs { return &ExecuteLeaveDelegatorsArgs{} },
		func(ctx *Context, a *ExecuteLeaveDelegatorsArgs) ([]Field, error) {
			b := &build{}
			v, err := account(ctx, a.Delegator)
			b.add("delegator", v, err)
			return b.add("delegation_count", scale.U32(a.DelegationCount), nil).done()
		},
		func(_ *Context, d *scale.Decoder) (*ExecuteLeaveDelegatorsArgs, error) {
			delegator, err := nextAddress(d)
			if err != nil {
				return nil, err
			}
			count, err := nextU32(d)
			return &ExecuteLeaveDelegatorsArgs{Delegator: delegator, DelegationCount: count}, err
		},
		nil,
	)
}

// Selector names every call the given types may resolve to, for
// metadata.Decorate. With no types it covers the whole registry.
func Selector(types ...TransactionType) metadata.Selector {
	if len(types) == 0 {
		for t := range registry {
			types = append(types, t)
		}
	}
	sel := metadata.Selector{}
	for _, t := range types {
		codec, ok := registry[t]
		if !ok {
			continue
		}
		for _, call := range codec.calls {
			if name := codec.pallet + "." + call; !slices.Contains(sel, name) {
				sel = append(sel, name)
			}
		}
	}
	return sel
}
