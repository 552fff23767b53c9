package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/colorfulnotion/subwallet/chainspecs"
	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/crypto"
	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/storage"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/colorfulnotion/subwallet/transaction"
	"github.com/colorfulnotion/subwallet/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceSeed = "0xe5be9a5092b81bca64be81d212e7f2f9eba183bb7a90954f7b76361f6edb5c0a"
	aliceDOT  = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"
	bobDOT    = "14E5nqKAp3oAJcmzgZhUD2RcptBeUBScxKHgJKU4HPNcKVf3"
	charlie   = "14Gjs1TD93gnwEBfDMHoCgsuf1s2TVKUP6Z1qKmAZnZ8cW5q"

	genesisHash = "0x91b171bb158e2d3848fa23a9f1c25182fb8e20313b2c1eb49219da7a70ce90c3"
	bestHash    = "0xc0096358534ec8d21d01d34b836eed476a1c343f8724fa2153dc0725ad797a90"
)

func testMetadata(t testing.TB) *metadata.Metadata {
	t.Helper()
	ed, err := scale.U128(big.NewInt(10_000_000_000))
	require.NoError(t, err)
	return &metadata.Metadata{
		Version:   metadata.V14,
		Extrinsic: metadata.Extrinsic{Version: 4},
		Pallets: []*metadata.Pallet{
			{
				Name: "System",
				Storage: []*metadata.StorageEntry{{
					Pallet:  "System",
					Name:    "Account",
					Shape:   metadata.Map,
					Hashers: []metadata.Hasher{metadata.Blake2_128Concat},
				}},
			},
			{
				Name:      "Balances",
				Index:     5,
				Calls:     []metadata.CallDef{{Name: "transfer_allow_death", Index: 0}, {Name: "transfer_keep_alive", Index: 3}},
				Constants: []metadata.ConstantDef{{Name: "ExistentialDeposit", Type: "u128", Value: ed.Encode(nil)}},
			},
			{
				Name:  "Staking",
				Index: 7,
				Calls: []metadata.CallDef{{Name: "bond", Index: 0}, {Name: "nominate", Index: 5}, {Name: "chill", Index: 6}},
			},
		},
	}
}

// fakeNode serves a fixed chain at height 1000 on runtime 30, except that a
// header asked for without a hash is a newer head. Fees are handed out in
// order, repeating the last one.
type fakeNode struct {
	mu        sync.Mutex
	md        *metadata.Metadata
	storage   map[string][]byte
	fees      []int64
	feeCalls  int
	submitted [][]byte
	calls     int
	headerAt  *common.Hash

	noGenesis  bool
	rvErr      error
	submitFail error
}

func newFakeNode(t testing.TB, fees ...int64) *fakeNode {
	if len(fees) == 0 {
		fees = []int64{156_000_000}
	}
	return &fakeNode{md: testMetadata(t), storage: map[string][]byte{}, fees: fees}
}

func (f *fakeNode) touch() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeNode) setAccount(t testing.TB, addr string, info *types.AccountInfo) {
	t.Helper()
	id, err := scale.NewAccountId(scale.NewConfig(chainspecs.MustReadNetwork("polkadot"), nil), addr)
	require.NoError(t, err)
	key, err := f.md.Pallets[0].Storage[0].Hash(id)
	require.NoError(t, err)
	raw, err := info.Encode()
	require.NoError(t, err)
	f.storage[key] = raw
}

func (f *fakeNode) GetStorage(_ context.Context, key string, _ *common.Hash) ([]byte, bool, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.storage[key]
	return v, ok, nil
}

func (f *fakeNode) GetMetadata(_ context.Context, _ *common.Hash) (*metadata.Metadata, error) {
	f.touch()
	return f.md, nil
}

func (f *fakeNode) GetRuntimeVersion(_ context.Context, _ *common.Hash) (*types.RuntimeVersion, error) {
	f.touch()
	if f.rvErr != nil {
		return nil, f.rvErr
	}
	return &types.RuntimeVersion{SpecName: "polkadot", SpecVersion: 30, TransactionVersion: 26}, nil
}

func (f *fakeNode) GetBlockHash(_ context.Context, number *uint64) (common.Hash, error) {
	f.touch()
	if number != nil && *number == 0 {
		if f.noGenesis {
			return common.Hash{}, fmt.Errorf("%w: chain_getBlockHash returned null", suberrors.ErrNMissingChainData)
		}
		return common.HexToHash(genesisHash), nil
	}
	return common.HexToHash(bestHash), nil
}

func (f *fakeNode) GetHeader(_ context.Context, at *common.Hash) (*types.Header, error) {
	f.touch()
	f.mu.Lock()
	f.headerAt = at
	f.mu.Unlock()
	if at == nil {
		return &types.Header{ParentHash: common.HexToHash(bestHash), Number: 1003}, nil
	}
	return &types.Header{ParentHash: common.HexToHash(genesisHash), Number: 1000}, nil
}

func (f *fakeNode) QueryFeeInfo(_ context.Context, _ []byte, _ *common.Hash) (*types.FeeInfo, error) {
	f.touch()
	f.mu.Lock()
	defer f.mu.Unlock()
	fee := f.fees[min(f.feeCalls, len(f.fees)-1)]
	f.feeCalls++
	return &types.FeeInfo{Class: "normal", PartialFee: types.NewBalance(big.NewInt(fee))}, nil
}

func (f *fakeNode) SubmitExtrinsic(_ context.Context, ext []byte) (common.Hash, error) {
	f.touch()
	if f.submitFail != nil {
		return common.Hash{}, f.submitFail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, ext)
	return common.Blake2Hash(ext), nil
}

func newController(t *testing.T, node *fakeNode) (*Controller, *storage.FeeStore) {
	t.Helper()
	fees, err := storage.OpenFeeStore("", "polkadot")
	require.NoError(t, err)
	t.Cleanup(func() { fees.Close() })
	return New(chainspecs.MustReadNetwork("polkadot"), node, fees), fees
}

func fundedAlice(t *testing.T, node *fakeNode, nonce uint32, free int64) {
	info := types.EmptyAccountInfo()
	info.Nonce = nonce
	info.Providers = 1
	info.Data.Free = big.NewInt(free)
	node.setAccount(t, aliceDOT, info)
}

func transfer(to string, value int64) Request {
	return Request{Type: transaction.Transfer, Args: &transaction.TransferArgs{To: to, Value: big.NewInt(value)}}
}

func aliceSigner(t *testing.T) crypto.Signer {
	s, err := crypto.SignerFromHex(chainspecs.SignatureSr25519, aliceSeed)
	require.NoError(t, err)
	return s
}

func TestGetAccountInfo(t *testing.T) {
	node := newFakeNode(t)
	fundedAlice(t, node, 7, 1_000_000)
	c, _ := newController(t, node)
	ctx := context.Background()

	info, err := c.GetAccountInfo(ctx, aliceDOT)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), info.Nonce)
	assert.Equal(t, int64(1_000_000), info.Data.Free.Int64())

	empty, err := c.GetAccountInfo(ctx, bobDOT)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), empty.Nonce)
	assert.Equal(t, 0, empty.Transferable().Sign())

	_, err = c.GetAccountInfo(ctx, "0xf24FF3a9CF04c71Dbc94D0b566f7A27B94566cac")
	assert.Error(t, err)
}

func TestPrepareSubmittableTransactions(t *testing.T) {
	node := newFakeNode(t, 100, 200)
	fundedAlice(t, node, 7, 1_000_000)
	c, fees := newController(t, node)

	unsigned, err := c.PrepareSubmittableTransactions(context.Background(), aliceDOT, nil, []Request{
		transfer(bobDOT, 12345),
		{Type: transaction.Nominate, Args: &transaction.NominateArgs{Targets: []string{bobDOT, charlie}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "polkadot", unsigned.Network)

	details, err := c.Decode(unsigned.Batch)
	require.NoError(t, err)
	require.Len(t, details, 2)

	cfg := c.offline().At(details[0].RuntimeVersion).Config()
	for i, d := range details {
		require.NotNil(t, d.RuntimeVersion)
		assert.Equal(t, uint32(30), *d.RuntimeVersion)
		assert.Equal(t, uint32(7+i), d.Transaction.Nonce)
		assert.False(t, d.Transaction.IsSigned())
		assert.Equal(t, uint64(64), d.Transaction.Era.Period)
		payload, err := common.DecodeHex(d.Payload)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(common.Bytes2String(payload), common.Bytes2String(d.Transaction.Method.Encode(cfg))))
	}
	assert.Equal(t, transaction.Transfer, details[0].Type)
	assert.Equal(t, int64(100), details[0].Fee.Int64())
	assert.Equal(t, transaction.Nominate, details[1].Type)
	assert.Equal(t, int64(200), details[1].Fee.Int64())
	assert.Equal(t, uint8(7), details[1].Transaction.Method.PalletIndex)
	assert.Equal(t, uint8(5), details[1].Transaction.Method.CallIndex)

	// payload ends with genesis ++ best hash ++ metadata hash flag
	payload := details[0].Payload
	assert.True(t, strings.HasSuffix(payload, common.StripHexPrefix(genesisHash)+common.StripHexPrefix(bestHash)+"00"))

	saved, ok, err := fees.GetSavedLastFee("nominate", storage.Largest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(200), saved.Int64())
}

func TestPrepareInsufficientBalance(t *testing.T) {
	node := newFakeNode(t, 100, 200, 300)
	fundedAlice(t, node, 0, 1_000_000)
	c, _ := newController(t, node)

	requests := []Request{transfer(bobDOT, 1), transfer(bobDOT, 2), transfer(charlie, 3)}
	_, err := c.PrepareSubmittableTransactions(context.Background(), aliceDOT, big.NewInt(500), requests)
	require.Error(t, err)
	assert.True(t, errors.Is(err, suberrors.ErrBInsufficientBalance))
	assert.Contains(t, err.Error(), "600")
	assert.Empty(t, node.submitted)

	node.feeCalls = 0
	_, err = c.PrepareSubmittableTransactions(context.Background(), aliceDOT, big.NewInt(600), requests)
	assert.NoError(t, err)
}

func TestPrepareUsesTransferableBalance(t *testing.T) {
	node := newFakeNode(t, 100)
	info := types.EmptyAccountInfo()
	info.Data.Free = big.NewInt(150)
	info.Data.Frozen = big.NewInt(60)
	node.setAccount(t, aliceDOT, info)
	c, _ := newController(t, node)

	_, err := c.PrepareSubmittableTransactions(context.Background(), aliceDOT, nil, []Request{transfer(bobDOT, 1)})
	assert.True(t, errors.Is(err, suberrors.ErrBInsufficientBalance))

	// a never-funded sender has nothing to pay with
	_, err = c.PrepareSubmittableTransactions(context.Background(), bobDOT, nil, []Request{transfer(aliceDOT, 1)})
	assert.True(t, errors.Is(err, suberrors.ErrBInsufficientBalance))
}

func TestPrepareMissingChainData(t *testing.T) {
	node := newFakeNode(t)
	fundedAlice(t, node, 0, 1_000_000)
	node.noGenesis = true
	node.rvErr = fmt.Errorf("%w: connection reset", suberrors.ErrNRPCFailure)
	c, _ := newController(t, node)

	_, err := c.PrepareSubmittableTransactions(context.Background(), aliceDOT, nil, []Request{transfer(bobDOT, 1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, suberrors.ErrNMissingChainData))
	assert.Contains(t, err.Error(), "genesis hash")
	assert.Contains(t, err.Error(), "runtime version")
	assert.Equal(t, 0, node.feeCalls)
}

func TestPrepareEraMatchesCheckpoint(t *testing.T) {
	node := newFakeNode(t)
	fundedAlice(t, node, 0, 1_000_000)
	c, _ := newController(t, node)

	unsigned, err := c.PrepareSubmittableTransactions(context.Background(), aliceDOT, nil, []Request{transfer(bobDOT, 1)})
	require.NoError(t, err)
	require.NotNil(t, node.headerAt)
	assert.Equal(t, common.HexToHash(bestHash), *node.headerAt)

	details, err := c.Decode(unsigned.Batch)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, transaction.NewMortalEra(1000, 64), details[0].Transaction.Era)
	assert.Equal(t, uint64(1000%64), details[0].Transaction.Era.Phase)
}

func TestPrepareRejectsInvalidTip(t *testing.T) {
	node := newFakeNode(t)
	c, _ := newController(t, node)
	ctx := context.Background()

	negative := transfer(bobDOT, 1)
	negative.Tip = big.NewInt(-1)
	_, err := c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, []Request{negative})
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))
	assert.ErrorContains(t, err, "tip -1")

	huge := transfer(bobDOT, 1)
	huge.Tip = new(big.Int).Lsh(big.NewInt(1), 600)
	_, err = c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, []Request{huge})
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))

	assert.Equal(t, 0, node.calls)
}

func TestPrepareValidation(t *testing.T) {
	node := newFakeNode(t)
	c, _ := newController(t, node)
	ctx := context.Background()

	_, err := c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, nil)
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidBatch))

	_, err = c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, []Request{{Type: transaction.Delegate}})
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedTransactionType))

	_, err = c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, []Request{
		transfer(bobDOT, 1),
		{Type: transaction.Transfer, Args: &transaction.TransferArgs{To: bobDOT}},
	})
	assert.True(t, errors.Is(err, suberrors.ErrVMissingArguments))
	assert.ErrorContains(t, err, "value")

	_, err = c.PrepareSubmittableTransactions(ctx, "not-an-address", nil, []Request{transfer(bobDOT, 1)})
	assert.Error(t, err)

	assert.Equal(t, 0, node.calls)
}

func TestSignAndBroadcast(t *testing.T) {
	node := newFakeNode(t, 100, 200)
	fundedAlice(t, node, 3, 1_000_000)
	c, _ := newController(t, node)
	ctx := context.Background()

	unsigned, err := c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, []Request{transfer(bobDOT, 10), transfer(charlie, 20)})
	require.NoError(t, err)

	_, err = c.Broadcast(ctx, &transaction.SignedTransaction{Network: unsigned.Network, Batch: unsigned.Batch})
	assert.True(t, errors.Is(err, suberrors.ErrUNotSigned))
	assert.Empty(t, node.submitted)

	alice := aliceSigner(t)
	signed, err := c.Sign(unsigned, alice)
	require.NoError(t, err)

	details, err := c.Decode(signed.Batch)
	require.NoError(t, err)
	for _, d := range details {
		require.True(t, d.Transaction.IsSigned())
		payload, err := common.DecodeHex(d.Payload)
		require.NoError(t, err)
		ok, err := crypto.Verify(chainspecs.SignatureSr25519, alice.PublicKey(), payload, d.Transaction.Signature)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	hashes, err := c.Broadcast(ctx, signed)
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	require.Len(t, node.submitted, 2)
	cfg := c.offline().At(details[0].RuntimeVersion).Config()
	assert.Equal(t, details[0].Transaction.Encode(cfg), node.submitted[0])
	assert.Equal(t, details[1].Transaction.Hash(cfg), hashes[1])
}

func TestSignRejectsWrongKey(t *testing.T) {
	node := newFakeNode(t)
	fundedAlice(t, node, 0, 1_000_000)
	c, _ := newController(t, node)

	unsigned, err := c.PrepareSubmittableTransactions(context.Background(), aliceDOT, nil, []Request{transfer(bobDOT, 10)})
	require.NoError(t, err)

	ed, err := crypto.SignerFromHex(chainspecs.SignatureEd25519, aliceSeed)
	require.NoError(t, err)
	_, err = c.Sign(unsigned, ed)
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedSignature))

	other, err := crypto.NewSigner(chainspecs.SignatureSr25519, make([]byte, crypto.SeedSize))
	require.NoError(t, err)
	_, err = c.Sign(unsigned, other)
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))

	_, err = c.Sign(&transaction.UnsignedTransaction{Network: "kusama", Batch: unsigned.Batch}, aliceSigner(t))
	assert.True(t, errors.Is(err, suberrors.ErrNNetworkNotSupported))
}

func TestBroadcastStopsOnFailure(t *testing.T) {
	node := newFakeNode(t)
	fundedAlice(t, node, 0, 1_000_000)
	c, _ := newController(t, node)
	ctx := context.Background()

	unsigned, err := c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, []Request{transfer(bobDOT, 10)})
	require.NoError(t, err)
	signed, err := c.Sign(unsigned, aliceSigner(t))
	require.NoError(t, err)

	node.submitFail = fmt.Errorf("%w: 1010 Invalid Transaction", suberrors.ErrNRPCFailure)
	hashes, err := c.Broadcast(ctx, signed)
	assert.True(t, errors.Is(err, suberrors.ErrNRPCFailure))
	assert.Empty(t, hashes)
}

func TestEstimateTransactionFees(t *testing.T) {
	node := newFakeNode(t, 1000)
	c, _ := newController(t, node)
	ctx := context.Background()

	// nothing recorded yet: weighed against the zero account
	est, err := c.EstimateTransactionFees(ctx, "", []Request{transfer(bobDOT, 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), est.Int64())
	assert.Equal(t, 1, node.feeCalls)

	node.fees = []int64{2500}
	fundedAlice(t, node, 0, 1_000_000)
	_, err = c.PrepareSubmittableTransactions(ctx, aliceDOT, nil, []Request{transfer(bobDOT, 1)})
	require.NoError(t, err)

	// the largest recorded fee is reused without a node round trip
	est, err = c.EstimateTransactionFees(ctx, "", []Request{{Type: transaction.Transfer}, {Type: transaction.Transfer}})
	require.NoError(t, err)
	assert.Equal(t, int64(6000), est.Int64())
	assert.Equal(t, 2, node.feeCalls)
}

func TestSummaries(t *testing.T) {
	node := newFakeNode(t, 100)
	fundedAlice(t, node, 0, 1_000_000)
	c, _ := newController(t, node)

	unsigned, err := c.PrepareSubmittableTransactions(context.Background(), aliceDOT, nil, []Request{transfer(bobDOT, 12345)})
	require.NoError(t, err)

	summaries, err := c.Summaries(unsigned.Batch)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, transaction.Transfer, summaries[0].Type)
	assert.Equal(t, aliceDOT, summaries[0].From)
	assert.Equal(t, []string{bobDOT}, summaries[0].To)
	assert.Equal(t, int64(12345), summaries[0].Amount.Int64())
	assert.Equal(t, int64(100), summaries[0].Fee.Int64())
}

func TestChainQueries(t *testing.T) {
	node := newFakeNode(t)
	c, _ := newController(t, node)
	ctx := context.Background()

	call, err := c.TransactionMetadata(ctx, transaction.Nominate)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), call.PalletIndex)
	assert.Equal(t, uint8(5), call.CallIndex)

	_, err = c.TransactionMetadata(ctx, transaction.Rebond)
	assert.True(t, errors.Is(err, suberrors.ErrNCallNotFound))

	ed, err := c.ExistentialDeposit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000_000), ed.Int64())

	id, err := scale.NewAccountId(c.offline().Config(), aliceDOT)
	require.NoError(t, err)
	key, err := c.StorageKey(ctx, "System", "Account", id)
	require.NoError(t, err)
	// twox128("System") ++ twox128("Account") ++ blake2_128(id) ++ id
	assert.True(t, strings.HasPrefix(key, "0x26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"))
	assert.True(t, strings.HasSuffix(key, common.StripHexPrefix(common.Bytes2String(id))))
}

func TestRequestJSON(t *testing.T) {
	var reqs []Request
	err := json.Unmarshal([]byte(`[
		{"type": "transfer", "args": {"to": "`+bobDOT+`", "value": 5000000000}},
		{"type": "nominate", "args": {"targets": ["`+bobDOT+`"]}, "tip": 10},
		{"type": "cancel_nomination"}
	]`), &reqs)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	args, ok := reqs[0].Args.(*transaction.TransferArgs)
	require.True(t, ok)
	assert.Equal(t, bobDOT, args.To)
	assert.Equal(t, int64(5_000_000_000), args.Value.Int64())
	assert.Equal(t, int64(10), reqs[1].Tip.Int64())
	assert.Empty(t, reqs[2].Args.Missing())

	err = json.Unmarshal([]byte(`{"type": "teleport"}`), &Request{})
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedTransactionType))
}
