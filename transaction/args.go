package transaction

import (
	"fmt"
	"math/big"

	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// Args is the typed argument record of one transaction type.
type Args interface {
	// Missing names the required fields that are not set.
	Missing() []string
}

type TransferArgs struct {
	To    string   `json:"to"`
	Value *big.Int `json:"value"`
}

func (a *TransferArgs) Missing() []string {
	return missing(field("to", a.To != ""), field("value", a.Value != nil))
}

type BondArgs struct {
	Value *big.Int `json:"value"`
	Payee *Payee   `json:"payee"`
}

func (a *BondArgs) Missing() []string {
	return missing(field("value", a.Value != nil), field("payee", a.Payee != nil))
}

// AmountArgs covers unbond, rebond and bond_extra.
type AmountArgs struct {
	Value *big.Int `json:"value"`
}

func (a *AmountArgs) Missing() []string {
	return missing(field("value", a.Value != nil))
}

type WithdrawUnbondedArgs struct {
	SlashingSpans uint32 `json:"slashing_spans"`
}

func (a *WithdrawUnbondedArgs) Missing() []string { return nil }

type NominateArgs struct {
	Targets []string `json:"targets"`
}

func (a *NominateArgs) Missing() []string {
	return missing(field("targets", len(a.Targets) > 0))
}

// NoArgs is used by calls without parameters.
type NoArgs struct{}

func (a *NoArgs) Missing() []string { return nil }

type CollectPayoutArgs struct {
	ValidatorStash string  `json:"validator_stash"`
	Era            *uint32 `json:"era"`
}

func (a *CollectPayoutArgs) Missing() []string {
	return missing(field("validator_stash", a.ValidatorStash != ""), field("era", a.Era != nil))
}

type SetPayeeArgs struct {
	Payee *Payee `json:"payee"`
}

func (a *SetPayeeArgs) Missing() []string {
	return missing(field("payee", a.Payee != nil))
}

// SubmitBatchArgs batches payout calls through Utility.batch.
type SubmitBatchArgs struct {
	Payouts []*CollectPayoutArgs `json:"payouts"`
}

func (a *SubmitBatchArgs) Missing() []string {
	out := missing(field("payouts", len(a.Payouts) > 0))
	for i, p := range a.Payouts {
		for _, m := range p.Missing() {
			out = append(out, fmt.Sprintf("payouts[%d].%s", i, m))
		}
	}
	return out
}

type DelegateArgs struct {
	Candidate                string   `json:"candidate"`
	Amount                   *big.Int `json:"amount"`
	CandidateDelegationCount uint32   `json:"candidate_delegation_count"`
	DelegationCount          uint32   `json:"delegation_count"`
}

func (a *DelegateArgs) Missing() []string {
	return missing(field("candidate", a.Candidate != ""), field("amount", a.Amount != nil))
}

// CandidateAmountArgs covers delegator_bond_more and
// schedule_delegator_bond_less.
type CandidateAmountArgs struct {
	Candidate string   `json:"candidate"`
	Amount    *big.Int `json:"amount"`
}

func (a *CandidateAmountArgs) Missing() []string {
	return missing(field("candidate", a.Candidate != ""), field("amount", a.Amount != nil))
}

// CandidateArgs covers schedule_revoke_delegation and
// cancel_delegation_request.
type CandidateArgs struct {
	Candidate string `json:"candidate"`
}

func (a *CandidateArgs) Missing() []string {
	return missing(field("candidate", a.Candidate != ""))
}

type ExecuteDelegationRequestArgs struct {
	Delegator string `json:"delegator"`
	Candidate string `json:"candidate"`
}

func (a *ExecuteDelegationRequestArgs) Missing() []string {
	return missing(field("delegator", a.Delegator != ""), field("candidate", a.Candidate != ""))
}

type ExecuteLeaveDelegatorsArgs struct {
	Delegator       string `json:"delegator"`
	DelegationCount uint32 `json:"delegation_count"`
}

func (a *ExecuteLeaveDelegatorsArgs) Missing() []string {
	return missing(field("delegator", a.Delegator != ""))
}

type presence struct {
	name string
	set  bool
}

func field(name string, set bool) presence {
	return presence{name: name, set: set}
}

func missing(fields ...presence) []string {
	var out []string
	for _, f := range fields {
		if !f.set {
			out = append(out, f.name)
		}
	}
	return out
}

type PayeeKind uint8

const (
	PayeeStaked PayeeKind = iota
	PayeeStash
	PayeeController
	PayeeAccount
	PayeeNone
)

var payeeNames = scale.EnumMapping[string]{
	uint8(PayeeStaked):     "Staked",
	uint8(PayeeStash):      "Stash",
	uint8(PayeeController): "Controller",
	uint8(PayeeAccount):    "Account",
	uint8(PayeeNone):       "None",
}

// Payee is the staking RewardDestination. Account carries an address.
type Payee struct {
	Kind    PayeeKind `json:"kind"`
	Account string    `json:"account,omitempty"`
}

func (p *Payee) value(cfg *scale.Config) (scale.Value, error) {
	name, ok := payeeNames[uint8(p.Kind)]
	if !ok {
		return nil, fmt.Errorf("%w: payee kind %d", suberrors.ErrVInvalidArgument, p.Kind)
	}
	tag := scale.Enum[string]{Tag: uint8(p.Kind), Value: name}
	if p.Kind != PayeeAccount {
		return tag, nil
	}
	id, err := scale.NewAccountId(cfg, p.Account)
	if err != nil {
		return nil, err
	}
	return scale.Tuple{tag, id}, nil
}

func (p *Payee) String() string {
	if p.Kind == PayeeAccount {
		return fmt.Sprintf("Account(%s)", p.Account)
	}
	return payeeNames[uint8(p.Kind)]
}

func decodePayee(d *scale.Decoder) (*Payee, error) {
	tag, err := scale.Next(d, scale.DecodeEnum(payeeNames))
	if err != nil {
		return nil, err
	}
	p := &Payee{Kind: PayeeKind(tag.Tag)}
	if p.Kind == PayeeAccount {
		if p.Account, err = nextAddress(d); err != nil {
			return nil, err
		}
	}
	return p, nil
}
