// Package transaction turns typed transaction intents into SCALE encoded
// extrinsics, signing payloads and the prepared batch exchanged between an
// offline signer and an online broadcaster.
package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
)

// TransactionType is the closed set of supported calls. The numeric value
// is the wire tag in a prepared batch.
type TransactionType uint8

const (
	Transfer TransactionType = iota
	Bond
	Unbond
	Rebond
	BondExtra
	WithdrawUnbonded
	Nominate
	CancelNomination
	CollectPayout
	SetPayee
	SetController
	SubmitBatch
	Delegate
	DelegatorBondMore
	ScheduleDelegatorBondLess
	ScheduleRevokeDelegation
	ExecuteDelegationRequest
	CancelDelegationRequest
	ScheduleLeaveDelegators
	ExecuteLeaveDelegators
	CancelLeaveDelegators
)

var typeNames = map[TransactionType]string{
	Transfer:                  "transfer",
	Bond:                      "bond",
	Unbond:                    "unbond",
	Rebond:                    "rebond",
	BondExtra:                 "bond_extra",
	WithdrawUnbonded:          "withdraw_unbonded",
	Nominate:                  "nominate",
	CancelNomination:          "cancel_nomination",
	CollectPayout:             "collect_payout",
	SetPayee:                  "set_payee",
	SetController:             "set_controller",
	SubmitBatch:               "submit_batch",
	Delegate:                  "delegate",
	DelegatorBondMore:         "delegator_bond_more",
	ScheduleDelegatorBondLess: "schedule_delegator_bond_less",
	ScheduleRevokeDelegation:  "schedule_revoke_delegation",
	ExecuteDelegationRequest:  "execute_delegation_request",
	CancelDelegationRequest:   "cancel_delegation_request",
	ScheduleLeaveDelegators:   "schedule_leave_delegators",
	ExecuteLeaveDelegators:    "execute_leave_delegators",
	CancelLeaveDelegators:     "cancel_leave_delegators",
}

// TypeTags maps wire tags to transaction types.
var TypeTags = func() scale.EnumMapping[TransactionType] {
	m := scale.EnumMapping[TransactionType]{}
	for t := range typeNames {
		m[uint8(t)] = t
	}
	return m
}()

func (t TransactionType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TransactionType(%d)", uint8(t))
}

func ParseTransactionType(name string) (TransactionType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", suberrors.ErrUUnsupportedTransactionType, name)
}

func (t TransactionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseTransactionType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Context carries what encoding and decoding calls depend on: the network,
// the decorated runtime metadata and the runtime version.
type Context struct {
	Network        *chainspecs.Network
	Metadata       *metadata.Decorated
	RuntimeVersion *uint32
	cfg            *scale.Config
}

func NewContext(network *chainspecs.Network, md *metadata.Decorated, runtimeVersion *uint32) *Context {
	return &Context{
		Network:        network,
		Metadata:       md,
		RuntimeVersion: runtimeVersion,
		cfg:            scale.NewConfig(network, runtimeVersion),
	}
}

func (c *Context) Config() *scale.Config {
	return c.cfg
}

// At returns a copy of c pinned to another runtime version.
func (c *Context) At(runtimeVersion *uint32) *Context {
	return NewContext(c.Network, c.Metadata, runtimeVersion)
}

// Supports reports whether the network is configured for t.
func (c *Context) Supports(t TransactionType) error {
	if c.Network != nil && !c.Network.SupportsTransactionType(t.String()) {
		return fmt.Errorf("%w: %s on %s", suberrors.ErrUUnsupportedTransactionType, t, c.Network.ID)
	}
	return nil
}
