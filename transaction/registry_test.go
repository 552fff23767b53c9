package transaction

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/colorfulnotion/subwallet/common"
	"github.com/colorfulnotion/subwallet/metadata"
	"github.com/colorfulnotion/subwallet/scale"
	"github.com/colorfulnotion/subwallet/suberrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	bobHex     = "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
	charlieHex = "90b5ab205c6974c9ea841be688864633dc9ca8a357843eeacf2314649965fe22"
)

func u32p(v uint32) *uint32 { return &v }

func TestRegistryCoversEveryType(t *testing.T) {
	for tag, typ := range TypeTags {
		assert.Equal(t, tag, uint8(typ))
		_, err := lookup(typ)
		assert.NoError(t, err, typ.String())
		args, err := NewArgs(typ)
		require.NoError(t, err)
		assert.NotNil(t, args)

		parsed, err := ParseTransactionType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	assert.Len(t, TypeTags, int(CancelLeaveDelegators)+1)

	_, err := ParseTransactionType("teleport")
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedTransactionType))
	_, err = NewArgs(TransactionType(99))
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedTransactionType))
	assert.Equal(t, "TransactionType(99)", TransactionType(99).String())
}

func TestTransactionTypeJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Type TransactionType `json:"type"`
	}{ScheduleRevokeDelegation})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"schedule_revoke_delegation"}`, string(b))

	var out struct {
		Type TransactionType `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"bond_extra"}`), &out))
	assert.Equal(t, BondExtra, out.Type)
	assert.Error(t, json.Unmarshal([]byte(`{"type":"mint"}`), &out))
}

func TestTypeOf(t *testing.T) {
	typ, ok := TypeOf(metadata.Call{Pallet: "Staking", Name: "payout_stakers"})
	require.True(t, ok)
	assert.Equal(t, CollectPayout, typ)

	typ, ok = TypeOf(metadata.Call{Pallet: "Balances", Name: "transfer"})
	require.True(t, ok)
	assert.Equal(t, Transfer, typ)

	_, ok = TypeOf(metadata.Call{Pallet: "Balances", Name: "transfer_keep_alive"})
	assert.False(t, ok)
}

func TestPolkadotMethodEncoding(t *testing.T) {
	ctx := polkadotContext(t)
	tests := []struct {
		typ  TransactionType
		args Args
		hex  string
	}{
		{Bond, &BondArgs{Value: big.NewInt(1_000_000_000_000), Payee: &Payee{Kind: PayeeStaked}}, "0700070010a5d4e800"},
		{Bond, &BondArgs{Value: big.NewInt(1), Payee: &Payee{Kind: PayeeAccount, Account: bobDOT}}, "07000403" + bobHex},
		{BondExtra, &AmountArgs{Value: big.NewInt(100)}, "07019101"},
		{Unbond, &AmountArgs{Value: big.NewInt(63)}, "0702fc"},
		{Rebond, &AmountArgs{Value: big.NewInt(64)}, "07130101"},
		{WithdrawUnbonded, &WithdrawUnbondedArgs{SlashingSpans: 2}, "070302000000"},
		{Nominate, &NominateArgs{Targets: []string{bobDOT, charlieDOT}}, "07050800" + bobHex + "00" + charlieHex},
		{CancelNomination, &NoArgs{}, "0706"},
		{SetPayee, &SetPayeeArgs{Payee: &Payee{Kind: PayeeStash}}, "070701"},
		{SetController, &NoArgs{}, "0708"},
		{CollectPayout, &CollectPayoutArgs{ValidatorStash: bobDOT, Era: u32p(1400)}, "0712" + bobHex + "78050000"},
		{SubmitBatch, &SubmitBatchArgs{Payouts: []*CollectPayoutArgs{
			{ValidatorStash: bobDOT, Era: u32p(1400)},
			{ValidatorStash: charlieDOT, Era: u32p(1401)},
		}}, "1a0008" + "0712" + bobHex + "78050000" + "0712" + charlieHex + "79050000"},
		{Transfer, &TransferArgs{To: bobDOT, Value: big.NewInt(1_000_000_000_000)}, polkadotMethod},
	}
	for _, tc := range tests {
		t.Run(tc.typ.String(), func(t *testing.T) {
			m, err := NewMethod(ctx, tc.typ, tc.args)
			require.NoError(t, err)
			enc := m.Encode(ctx.Config())
			assert.Equal(t, tc.hex, common.Bytes2String(enc))

			d, err := DecodeMethod(ctx, tc.typ)(ctx.Config(), enc)
			require.NoError(t, err)
			assert.Equal(t, len(enc), d.BytesDecoded)
			assert.Equal(t, m.PalletIndex, d.Value.PalletIndex)
			assert.Equal(t, m.CallIndex, d.Value.CallIndex)
			assert.Equal(t, enc, d.Value.Encode(ctx.Config()))

			rebuilt, err := NewMethod(ctx, tc.typ, d.Value.Args)
			require.NoError(t, err)
			assert.Equal(t, enc, rebuilt.Encode(ctx.Config()))
		})
	}
}

func TestDecodedPolkadotArgs(t *testing.T) {
	ctx := polkadotContext(t)
	m, err := NewMethod(ctx, SubmitBatch, &SubmitBatchArgs{Payouts: []*CollectPayoutArgs{{ValidatorStash: charlieDOT, Era: u32p(7)}}})
	require.NoError(t, err)
	d, err := DecodeMethod(ctx, SubmitBatch)(ctx.Config(), m.Encode(ctx.Config()))
	require.NoError(t, err)
	args := d.Value.Args.(*SubmitBatchArgs)
	require.Len(t, args.Payouts, 1)
	assert.Equal(t, charlieDOT, args.Payouts[0].ValidatorStash)
	assert.Equal(t, uint32(7), *args.Payouts[0].Era)

	m, err = NewMethod(ctx, Bond, &BondArgs{Value: big.NewInt(5), Payee: &Payee{Kind: PayeeAccount, Account: bobDOT}})
	require.NoError(t, err)
	d, err = DecodeMethod(ctx, Bond)(ctx.Config(), m.Encode(ctx.Config()))
	require.NoError(t, err)
	bond := d.Value.Args.(*BondArgs)
	assert.Equal(t, "Account("+bobDOT+")", bond.Payee.String())
	assert.Equal(t, int64(5), bond.Value.Int64())
}

func TestMoonbeamMethodEncoding(t *testing.T) {
	ctx := moonbeamContext(t)
	alithHex := "f24ff3a9cf04c71dbc94d0b566f7a27b94566cac"
	baltatharHex := "3cd0a705a2dc65e5b1e1205896baa2be8a07c6e0"
	// 5 GLMR as u128 little endian
	amount := "0000f444829163450000000000000000"
	five := new(big.Int).Mul(big.NewInt(5), big.NewInt(1_000_000_000_000_000_000))
	tests := []struct {
		typ  TransactionType
		args Args
		hex  string
	}{
		{Delegate, &DelegateArgs{Candidate: baltathar, Amount: five, CandidateDelegationCount: 3, DelegationCount: 1},
			"1411" + baltatharHex + amount + "03000000" + "01000000"},
		{DelegatorBondMore, &CandidateAmountArgs{Candidate: baltathar, Amount: five}, "1414" + baltatharHex + amount},
		{ScheduleDelegatorBondLess, &CandidateAmountArgs{Candidate: baltathar, Amount: five}, "1415" + baltatharHex + amount},
		{ScheduleRevokeDelegation, &CandidateArgs{Candidate: baltathar}, "1413" + baltatharHex},
		{CancelDelegationRequest, &CandidateArgs{Candidate: baltathar}, "1417" + baltatharHex},
		{ExecuteDelegationRequest, &ExecuteDelegationRequestArgs{Delegator: alith, Candidate: baltathar}, "1416" + alithHex + baltatharHex},
		{ScheduleLeaveDelegators, &NoArgs{}, "140a"},
		{ExecuteLeaveDelegators, &ExecuteLeaveDelegatorsArgs{Delegator: alith, DelegationCount: 2}, "140b" + alithHex + "02000000"},
		{CancelLeaveDelegators, &NoArgs{}, "140c"},
	}
	for _, tc := range tests {
		t.Run(tc.typ.String(), func(t *testing.T) {
			m, err := NewMethod(ctx, tc.typ, tc.args)
			require.NoError(t, err)
			enc := m.Encode(ctx.Config())
			assert.Equal(t, tc.hex, common.Bytes2String(enc))

			d, err := DecodeMethod(ctx, tc.typ)(ctx.Config(), enc)
			require.NoError(t, err)
			rebuilt, err := NewMethod(ctx, tc.typ, d.Value.Args)
			require.NoError(t, err)
			assert.Equal(t, enc, rebuilt.Encode(ctx.Config()))
		})
	}

	m, err := NewMethod(ctx, Delegate, tests[0].args)
	require.NoError(t, err)
	parts := m.SummaryParts()
	require.Len(t, parts, 1)
	assert.Equal(t, baltathar, parts[0].To)
	assert.Equal(t, 0, five.Cmp(parts[0].Amount))
}

func TestNewMethodErrors(t *testing.T) {
	ctx := polkadotContext(t)

	_, err := NewMethod(ctx, Transfer, &TransferArgs{})
	assert.True(t, errors.Is(err, suberrors.ErrVMissingArguments))
	assert.ErrorContains(t, err, "to, value")

	_, err = NewMethod(ctx, SubmitBatch, &SubmitBatchArgs{Payouts: []*CollectPayoutArgs{{ValidatorStash: bobDOT}}})
	assert.True(t, errors.Is(err, suberrors.ErrVMissingArguments))
	assert.ErrorContains(t, err, "payouts[0].era")

	_, err = NewMethod(ctx, Transfer, &NoArgs{})
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))

	_, err = NewMethod(ctx, Transfer, &TransferArgs{To: "not-an-address", Value: big.NewInt(1)})
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidAddress))

	_, err = NewMethod(ctx, Transfer, &TransferArgs{To: bobDOT, Value: big.NewInt(-1)})
	assert.True(t, errors.Is(err, suberrors.ErrVNegativeUnsigned))

	_, err = NewMethod(ctx, Bond, &BondArgs{Value: big.NewInt(1), Payee: &Payee{Kind: 9}})
	assert.True(t, errors.Is(err, suberrors.ErrVInvalidArgument))

	_, err = NewMethod(ctx, Delegate, &DelegateArgs{Candidate: bobDOT, Amount: big.NewInt(1)})
	assert.True(t, errors.Is(err, suberrors.ErrNCallNotFound))

	_, err = NewMethod(NewContext(ctx.Network, nil, ctx.RuntimeVersion), Transfer, &TransferArgs{To: bobDOT, Value: big.NewInt(1)})
	assert.True(t, errors.Is(err, suberrors.ErrNCallNotFound))

	_, err = NewMethod(ctx, TransactionType(99), &NoArgs{})
	assert.True(t, errors.Is(err, suberrors.ErrUUnsupportedTransactionType))

	mctx := moonbeamContext(t)
	_, err = NewMethod(mctx, Delegate, &DelegateArgs{Candidate: baltathar, Amount: new(big.Int).Lsh(big.NewInt(1), 128)})
	assert.True(t, errors.Is(err, suberrors.ErrVValueOverflow))
}

func TestTransferFallsBackToLegacyCall(t *testing.T) {
	md := &metadata.Decorated{Calls: []metadata.Call{{Pallet: "Balances", Name: "transfer", PalletIndex: 5, CallIndex: 0}}}
	ctx := NewContext(polkadotContext(t).Network, md, rv(30))
	m, err := NewMethod(ctx, Transfer, &TransferArgs{To: bobDOT, Value: big.NewInt(1_000_000_000_000)})
	require.NoError(t, err)
	assert.Equal(t, polkadotMethod, common.Bytes2String(m.Encode(ctx.Config())))
}

func TestDecodeMethodWithoutMetadata(t *testing.T) {
	full := polkadotContext(t)
	m, err := NewMethod(full, Unbond, &AmountArgs{Value: big.NewInt(9)})
	require.NoError(t, err)

	bare := NewContext(full.Network, nil, full.RuntimeVersion)
	d, err := DecodeMethod(bare, Unbond)(bare.Config(), m.Encode(full.Config()))
	require.NoError(t, err)
	assert.Equal(t, int64(9), d.Value.Args.(*AmountArgs).Value.Int64())

	_, err = DecodeMethod(full, Rebond)(full.Config(), m.Encode(full.Config()))
	assert.True(t, errors.Is(err, suberrors.ErrNCallNotFound))
}

func TestTransferRoundTrip(t *testing.T) {
	ctx := polkadotContext(t)
	rapid.Check(t, func(t *rapid.T) {
		pk := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "account")
		to, err := scale.AccountId(pk).Address(ctx.Config())
		if err != nil {
			t.Fatal(err)
		}
		value := new(big.Int).SetUint64(rapid.Uint64().Draw(t, "value"))
		m, err := NewMethod(ctx, Transfer, &TransferArgs{To: to, Value: value})
		if err != nil {
			t.Fatal(err)
		}
		d, err := DecodeMethod(ctx, Transfer)(ctx.Config(), m.Encode(ctx.Config()))
		if err != nil {
			t.Fatal(err)
		}
		got := d.Value.Args.(*TransferArgs)
		if got.To != to || got.Value.Cmp(value) != 0 {
			t.Fatalf("decoded %s %s, want %s %s", got.To, got.Value, to, value)
		}
	})
}
