package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/crypto"
	"github.com/colorfulnotion/subwallet/log"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/colorfulnotion/subwallet/transaction"
)

func (c *Controller) checkNetwork(network string) error {
	if network != "" && network != c.Network.ID {
		return fmt.Errorf("%w: batch is for %s, controller is on %s", suberrors.ErrNNetworkNotSupported, network, c.Network.ID)
	}
	return nil
}

// Decode reads a batch without contacting the node.
func (c *Controller) Decode(batch string) ([]*transaction.PreparedTransactionDetail, error) {
	return transaction.DecodeBatchHex(c.offline(), batch)
}

// Summaries renders each call of a batch for display.
func (c *Controller) Summaries(batch string) ([]transaction.Summary, error) {
	details, err := c.Decode(batch)
	if err != nil {
		return nil, err
	}
	out := make([]transaction.Summary, 0, len(details))
	for i, d := range details {
		s, err := d.Summarize(c.offline().At(d.RuntimeVersion))
		if err != nil {
			return nil, fmt.Errorf("detail %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Sign attaches signer's signature over each detail's payload. Works
// offline.
func (c *Controller) Sign(unsigned *transaction.UnsignedTransaction, signer crypto.Signer) (*transaction.SignedTransaction, error) {
	if err := c.checkNetwork(unsigned.Network); err != nil {
		return nil, err
	}
	if signer.Scheme() != c.Network.Signature {
		return nil, fmt.Errorf("%w: %s key on a %s network", suberrors.ErrUUnsupportedSignature, signer.Scheme(), c.Network.Signature)
	}
	details, err := c.Decode(unsigned.Batch)
	if err != nil {
		return nil, err
	}
	for i, d := range details {
		tx := d.Transaction
		if !bytes.Equal(tx.Signer, signer.AccountId()) {
			return nil, fmt.Errorf("%w: detail %d is signed by %s", suberrors.ErrVInvalidArgument, i, tx.Signer)
		}
		payload, err := common.DecodeHex(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w: detail %d payload: %v", suberrors.ErrDMalformedHex, i, err)
		}
		call := tx.Method.Encode(c.offline().At(d.RuntimeVersion).Config())
		if !bytes.HasPrefix(payload, call) {
			return nil, fmt.Errorf("%w: detail %d payload does not carry its call", suberrors.ErrVInvalidArgument, i)
		}
		sig, err := signer.Sign(payload)
		if err != nil {
			return nil, fmt.Errorf("detail %d: %w", i, err)
		}
		if err := tx.Sign(sig); err != nil {
			return nil, fmt.Errorf("detail %d: %w", i, err)
		}
	}
	batch, err := transaction.EncodeBatchHex(c.offline(), details)
	if err != nil {
		return nil, err
	}
	log.Info(log.ControllerMonitoring, "batch signed", "network", c.Network.ID, "calls", len(details), "scheme", signer.Scheme())
	return &transaction.SignedTransaction{Network: c.Network.ID, Batch: batch}, nil
}

// Broadcast submits every extrinsic of a signed batch in order and returns
// their hashes. Nothing is submitted if any extrinsic is unsigned.
func (c *Controller) Broadcast(ctx context.Context, signed *transaction.SignedTransaction) ([]common.Hash, error) {
	if err := c.checkNetwork(signed.Network); err != nil {
		return nil, err
	}
	details, err := c.Decode(signed.Batch)
	if err != nil {
		return nil, err
	}
	for i, d := range details {
		if !d.Transaction.IsSigned() {
			return nil, fmt.Errorf("%w: detail %d (%s)", suberrors.ErrUNotSigned, i, d.Type)
		}
	}
	hashes := make([]common.Hash, 0, len(details))
	for i, d := range details {
		cfg := c.offline().At(d.RuntimeVersion).Config()
		hash, err := c.node.SubmitExtrinsic(ctx, d.Transaction.Encode(cfg))
		if err != nil {
			return hashes, fmt.Errorf("detail %d: %w", i, err)
		}
		log.Info(log.ControllerMonitoring, "broadcast", "type", d.Type, "nonce", d.Transaction.Nonce, "hash", hash)
		hashes = append(hashes, hash)
	}
	return hashes, nil
}
