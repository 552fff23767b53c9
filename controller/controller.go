// Package controller drives the transaction lifecycle against a node:
// prepare, estimate, sign, decode and broadcast.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/storage"
	"github.com/colorfulnotion/subwallet/transaction"
	"github.com/colorfulnotion/subwallet/types"
)

const (
	palletSystem       = "System"
	storageAccount     = "Account"
	existentialDeposit = "Balances.ExistentialDeposit"
)

// Controller is bound to one network. The fee store is optional.
type Controller struct {
	Network *chainspecs.Network
	node    NodeClient
	fees    *storage.FeeStore
}

func New(network *chainspecs.Network, node NodeClient, fees *storage.FeeStore) *Controller {
	return &Controller{Network: network, node: node, fees: fees}
}

// Request is one call to prepare.
type Request struct {
	Type transaction.TransactionType `json:"type"`
	Args transaction.Args            `json:"args"`
	Tip  *big.Int                    `json:"tip,omitempty"`
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type transaction.TransactionType `json:"type"`
		Args json.RawMessage             `json:"args"`
		Tip  *big.Int                    `json:"tip"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	args, err := transaction.NewArgs(raw.Type)
	if err != nil {
		return err
	}
	if len(raw.Args) > 0 {
		if err := json.Unmarshal(raw.Args, args); err != nil {
			return fmt.Errorf("%s args: %w", raw.Type, err)
		}
	}
	*r = Request{Type: raw.Type, Args: args, Tip: raw.Tip}
	return nil
}

// offline is the context used where no node is consulted.
func (c *Controller) offline() *transaction.Context {
	return transaction.NewContext(c.Network, nil, nil)
}

// decorate keeps what the wallet reads: the account storage, the registry
// calls and the existential deposit.
func decorate(md *metadata.Metadata) *metadata.Decorated {
	return md.Decorate(
		metadata.Selector{palletSystem + "." + storageAccount},
		transaction.Selector(),
		metadata.Selector{existentialDeposit},
	)
}

// transactionContext loads the runtime active at a block.
func (c *Controller) transactionContext(ctx context.Context, at *common.Hash, specVersion uint32) (*transaction.Context, error) {
	md, err := c.node.GetMetadata(ctx, at)
	if err != nil {
		return nil, err
	}
	return transaction.NewContext(c.Network, decorate(md), &specVersion), nil
}

// GetAccountInfo reads System.Account. An account the chain has never seen
// is returned empty.
func (c *Controller) GetAccountInfo(ctx context.Context, address string) (*types.AccountInfo, error) {
	rv, err := c.node.GetRuntimeVersion(ctx, nil)
	if err != nil {
		return nil, err
	}
	txCtx, err := c.transactionContext(ctx, nil, rv.SpecVersion)
	if err != nil {
		return nil, err
	}
	id, err := scale.NewAccountId(txCtx.Config(), address)
	if err != nil {
		return nil, err
	}
	return c.accountInfo(ctx, txCtx, id)
}

func (c *Controller) accountInfo(ctx context.Context, txCtx *transaction.Context, id scale.AccountId) (*types.AccountInfo, error) {
	entry, err := txCtx.Metadata.StorageEntry(palletSystem, storageAccount)
	if err != nil {
		return nil, err
	}
	key, err := entry.HashValues(txCtx.Config(), id)
	if err != nil {
		return nil, err
	}
	raw, found, err := c.node.GetStorage(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Debug(log.ControllerMonitoring, "account not on chain", "account", id)
		return types.EmptyAccountInfo(), nil
	}
	return types.DecodeAccountInfo(raw)
}

// TransactionMetadata resolves the call index a transaction type has on the
// current runtime.
func (c *Controller) TransactionMetadata(ctx context.Context, t transaction.TransactionType) (metadata.Call, error) {
	md, err := c.node.GetMetadata(ctx, nil)
	if err != nil {
		return metadata.Call{}, err
	}
	return transaction.ResolveCall(transaction.NewContext(c.Network, decorate(md), nil), t)
}

// ExistentialDeposit is the minimum balance an account must keep.
func (c *Controller) ExistentialDeposit(ctx context.Context) (*big.Int, error) {
	md, err := c.node.GetMetadata(ctx, nil)
	if err != nil {
		return nil, err
	}
	constant, err := decorate(md).Constant("Balances", "ExistentialDeposit")
	if err != nil {
		return nil, err
	}
	v, err := scale.DecodeAll(nil, scale.DecodeU128, constant.Value)
	if err != nil {
		return nil, err
	}
	return v.Big(), nil
}

// StorageKey derives the key of a storage item on the current runtime.
// Arguments are already SCALE encoded.
func (c *Controller) StorageKey(ctx context.Context, pallet, name string, args ...[]byte) (string, error) {
	md, err := c.node.GetMetadata(ctx, nil)
	if err != nil {
		return "", err
	}
	entry, err := md.Decorate(metadata.Selector{pallet + "." + name}, metadata.Selector{}, metadata.Selector{}).StorageEntry(pallet, name)
	if err != nil {
		return "", err
	}
	return entry.Hash(args...)
}
