package controller

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/storage"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/colorfulnotion/subwallet/transaction"
	"github.com/colorfulnotion/subwallet/types"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// feeMarginNum/feeMarginDen is the safety margin on estimates.
const (
	feeMarginNum = 12
	feeMarginDen = 10
)

var errEmptyHash = errors.New("empty hash")

// chainData is what one extrinsic is built against.
type chainData struct {
	height      uint64
	blockHash   common.Hash
	genesisHash common.Hash
	runtime     *types.RuntimeVersion
}

// fetchChainData queries the best block, the genesis hash and the runtime
// version concurrently. The header is read at the best hash so the era's
// birth block is the block the payload commits to. Every missing piece is
// reported.
func (c *Controller) fetchChainData(ctx context.Context) (*chainData, error) {
	var (
		data chainData
		mu   sync.Mutex
		errs *multierror.Error
		g    errgroup.Group
	)
	record := func(what string, err error) error {
		err = fmt.Errorf("%s: %w", what, err)
		mu.Lock()
		errs = multierror.Append(errs, err)
		mu.Unlock()
		return err
	}
	g.Go(func() error {
		hash, err := c.node.GetBlockHash(ctx, nil)
		if err == nil && common.IsNilHash(hash) {
			err = errEmptyHash
		}
		if err != nil {
			return record("last block hash", err)
		}
		header, err := c.node.GetHeader(ctx, &hash)
		if err != nil {
			return record("chain height", err)
		}
		data.blockHash = hash
		data.height = uint64(header.Number)
		return nil
	})
	g.Go(func() error {
		zero := uint64(0)
		hash, err := c.node.GetBlockHash(ctx, &zero)
		if err == nil && common.IsNilHash(hash) {
			err = errEmptyHash
		}
		if err != nil {
			return record("genesis hash", err)
		}
		data.genesisHash = hash
		return nil
	})
	g.Go(func() error {
		rv, err := c.node.GetRuntimeVersion(ctx, nil)
		if err != nil {
			return record("runtime version", err)
		}
		data.runtime = rv
		return nil
	})
	// Wait reports the first failure, errs holds all of them
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", suberrors.ErrNMissingChainData, errs.ErrorOrNil())
	}
	return &data, nil
}

// validate rejects requests before any node round trip.
func (c *Controller) validate(requests []Request) error {
	if len(requests) == 0 {
		return suberrors.ErrVInvalidBatch
	}
	offline := c.offline()
	for i, req := range requests {
		if err := offline.Supports(req.Type); err != nil {
			return fmt.Errorf("request %d: %w", i, err)
		}
		if req.Args == nil {
			args, err := transaction.NewArgs(req.Type)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			requests[i].Args = args
		}
		if m := requests[i].Args.Missing(); len(m) > 0 {
			return fmt.Errorf("request %d: %w", i, suberrors.MissingArguments(req.Type.String(), m))
		}
		if req.Tip != nil {
			if _, err := scale.NewCompactIntFromBig(req.Tip); err != nil {
				return fmt.Errorf("request %d: %w: tip %s: %v", i, suberrors.ErrVInvalidArgument, req.Tip, err)
			}
		}
	}
	return nil
}

// prepare builds one zero-signature extrinsic per request with consecutive
// nonces starting at the sender's account nonce, and weighs each against
// the node.
func (c *Controller) prepare(ctx context.Context, sender string, requests []Request) ([]*transaction.PreparedTransactionDetail, *types.AccountInfo, error) {
	if err := c.validate(requests); err != nil {
		return nil, nil, err
	}
	signer, err := scale.NewAccountId(c.offline().Config(), sender)
	if err != nil {
		return nil, nil, err
	}

	var account *types.AccountInfo
	details := make([]*transaction.PreparedTransactionDetail, 0, len(requests))
	for i, req := range requests {
		data, err := c.fetchChainData(ctx)
		if err != nil {
			return nil, nil, err
		}
		txCtx, err := c.transactionContext(ctx, &data.blockHash, data.runtime.SpecVersion)
		if err != nil {
			return nil, nil, err
		}
		if account == nil {
			if account, err = c.accountInfo(ctx, txCtx, signer); err != nil {
				return nil, nil, err
			}
		}

		method, err := transaction.NewMethod(txCtx, req.Type, req.Args)
		if err != nil {
			return nil, nil, fmt.Errorf("request %d: %w", i, err)
		}
		era := transaction.NewMortalEra(data.height, c.Network.EraPeriod)
		nonce := account.Nonce + uint32(i)
		tx := transaction.NewTransaction(txCtx, signer, method, era, nonce, req.Tip)

		fee, err := c.queryFee(ctx, txCtx, tx, data.blockHash)
		if err != nil {
			return nil, nil, fmt.Errorf("request %d: %w", i, err)
		}
		payload := transaction.NewSigningPayload(txCtx, method.Encode(txCtx.Config()), era, nonce, req.Tip,
			data.runtime.SpecVersion, data.runtime.TransactionVersion, data.genesisHash, data.blockHash)

		specVersion := data.runtime.SpecVersion
		details = append(details, &transaction.PreparedTransactionDetail{
			RuntimeVersion: &specVersion,
			Type:           req.Type,
			Fee:            fee,
			Transaction:    tx,
			Payload:        payload.Hex(),
		})
		log.Debug(log.ControllerMonitoring, "prepared", "type", req.Type, "nonce", nonce, "era", era, "fee", fee, "runtime", data.runtime)
	}
	return details, account, nil
}

// queryFee weighs the zero-signature extrinsic and records the fee.
func (c *Controller) queryFee(ctx context.Context, txCtx *transaction.Context, tx *transaction.Transaction, at common.Hash) (*big.Int, error) {
	info, err := c.node.QueryFeeInfo(ctx, tx.Encode(txCtx.Config()), &at)
	if err != nil {
		return nil, err
	}
	fee := new(big.Int).Set(info.PartialFee.Int)
	if c.fees != nil {
		if err := c.fees.SaveLastFee(tx.Method.Type.String(), fee); err != nil {
			log.Warn(log.ControllerMonitoring, "failed to save fee", "type", tx.Method.Type, "err", err)
		}
	}
	return fee, nil
}

func totalFee(details []*transaction.PreparedTransactionDetail) *big.Int {
	total := new(big.Int)
	for _, d := range details {
		if d.Fee != nil {
			total.Add(total, d.Fee)
		}
	}
	return total
}

// PrepareSubmittableTransactions builds the unsigned batch for requests. The
// summed fees must fit in available; a nil available means the sender's
// transferable balance.
func (c *Controller) PrepareSubmittableTransactions(ctx context.Context, sender string, available *big.Int, requests []Request) (*transaction.UnsignedTransaction, error) {
	details, account, err := c.prepare(ctx, sender, requests)
	if err != nil {
		return nil, err
	}
	if available == nil {
		available = account.Transferable()
	}
	total := totalFee(details)
	if total.Cmp(available) > 0 {
		return nil, fmt.Errorf("%w: fees %s, available %s", suberrors.ErrBInsufficientBalance, total, available)
	}
	batch, err := transaction.EncodeBatchHex(c.offline(), details)
	if err != nil {
		return nil, err
	}
	log.Info(log.ControllerMonitoring, "batch prepared", "network", c.Network.ID, "sender", sender, "calls", len(details), "fees", total)
	return &transaction.UnsignedTransaction{Network: c.Network.ID, Batch: batch}, nil
}

// EstimateTransactionFees forecasts the fees of requests. Types with a
// recorded fee use the largest one seen; the rest are prepared against
// sender, or the zero account when sender is empty. The sum carries a 20%
// margin.
func (c *Controller) EstimateTransactionFees(ctx context.Context, sender string, requests []Request) (*big.Int, error) {
	total := new(big.Int)
	var fresh []Request
	for _, req := range requests {
		if c.fees != nil {
			fee, ok, err := c.fees.GetSavedLastFee(req.Type.String(), storage.Largest)
			if err != nil {
				return nil, err
			}
			if ok {
				total.Add(total, fee)
				continue
			}
		}
		fresh = append(fresh, req)
	}
	if len(fresh) > 0 {
		if sender == "" {
			placeholder, err := scale.AccountId(make([]byte, c.Network.AddressCodec().AccountIDLength())).Address(c.offline().Config())
			if err != nil {
				return nil, err
			}
			sender = placeholder
		}
		details, _, err := c.prepare(ctx, sender, fresh)
		if err != nil {
			return nil, err
		}
		total.Add(total, totalFee(details))
	}
	total.Mul(total, big.NewInt(feeMarginNum))
	total.Div(total, big.NewInt(feeMarginDen))
	return total, nil
}
