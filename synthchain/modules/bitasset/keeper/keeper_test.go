package keeper_test

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/keeper"
	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

const (
	issuer   types.AccountID = "issuer"
	feeder   types.AccountID = "feeder"
	borrower types.AccountID = "borrower"
	seller   types.AccountID = "seller"
)

var (
	// afterActivation is safely past the default margin fee activation time.
	afterActivation = time.Date(2021, time.June, 1, 12, 0, 0, 0, time.UTC)

	// beforeActivation precedes it.
	beforeActivation = time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)
)

func testContext(blockTime time.Time) sdk.Context {
	return sdk.Context{}.
		WithBlockTime(blockTime).
		WithEventManager(sdk.NewEventManager()).
		WithLogger(log.NewNopLogger())
}

func feeRatio(v uint16) *uint16 { return &v }

type fixture struct {
	t   *testing.T
	k   *keeper.Keeper
	ctx sdk.Context

	coreID types.AssetID
	usdID  types.AssetID
}

// newFixture seeds a collateral asset and one bitasset backed by it, with a
// single authorized feed producer.
func newFixture(t *testing.T, blockTime time.Time, mcfr *uint16) *fixture {
	t.Helper()

	k := keeper.NewKeeper(types.DefaultParams())
	ctx := testContext(blockTime)

	coreID, err := k.RegisterAsset(ctx, issuer, "CORE", 5)
	require.NoError(t, err)

	id, err := k.HandleOperation(ctx, &types.MsgCreateBitasset{
		Issuer:    issuer,
		Symbol:    "USDBIT",
		Precision: 4,
		Options: types.BitassetOptions{
			BackingAssetID:     coreID,
			MarginCallFeeRatio: mcfr,
			FeedProducers:      []types.AccountID{feeder},
		},
	})
	require.NoError(t, err)

	return &fixture{
		t:      t,
		k:      k,
		ctx:    ctx,
		coreID: coreID,
		usdID:  types.AssetID(id),
	}
}

func (f *fixture) usdAmt(v int64) types.AssetAmount  { return types.NewAssetAmount(f.usdID, v) }
func (f *fixture) coreAmt(v int64) types.AssetAmount { return types.NewAssetAmount(f.coreID, v) }

func (f *fixture) fund(account types.AccountID, amount int64) {
	f.t.Helper()
	require.NoError(f.t, f.k.FundBalance(f.ctx, account, f.coreAmt(amount)))
}

func (f *fixture) publishFeed(base, quote int64, mcr, mssr uint16) error {
	_, err := f.k.HandleOperation(f.ctx, &types.MsgPublishPriceFeed{
		Publisher: feeder,
		AssetID:   f.usdID,
		Feed: types.PriceFeed{
			SettlementPrice:            types.NewPrice(f.usdAmt(base), f.coreAmt(quote)),
			MaintenanceCollateralRatio: mcr,
			MaximumShortSqueezeRatio:   mssr,
		},
	})
	return err
}

func (f *fixture) mustPublishFeed(base, quote int64, mcr, mssr uint16) {
	f.t.Helper()
	require.NoError(f.t, f.publishFeed(base, quote, mcr, mssr))
}

func (f *fixture) borrow(account types.AccountID, deltaDebt, deltaCollateral int64) (types.OrderID, error) {
	id, err := f.k.HandleOperation(f.ctx, &types.MsgAdjustCallOrder{
		Borrower:        account,
		AssetID:         f.usdID,
		DeltaDebt:       deltaDebt,
		DeltaCollateral: deltaCollateral,
	})
	return types.OrderID(id), err
}

func (f *fixture) mustBorrow(account types.AccountID, deltaDebt, deltaCollateral int64) types.OrderID {
	f.t.Helper()
	id, err := f.borrow(account, deltaDebt, deltaCollateral)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) sellDebt(account types.AccountID, forSale, toReceive int64) (types.OrderID, error) {
	id, err := f.k.HandleOperation(f.ctx, &types.MsgCreateLimitOrder{
		Seller:       account,
		AmountToSell: f.usdAmt(forSale),
		MinToReceive: f.coreAmt(toReceive),
	})
	return types.OrderID(id), err
}

func (f *fixture) mustSellDebt(account types.AccountID, forSale, toReceive int64) types.OrderID {
	f.t.Helper()
	id, err := f.sellDebt(account, forSale, toReceive)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) balance(account types.AccountID, assetID types.AssetID) sdkmath.Int {
	return f.k.GetBalance(account, assetID)
}

// fillEvents extracts the margin call fill events emitted so far.
func (f *fixture) fillEvents() []sdk.Event {
	var fills []sdk.Event
	for _, ev := range f.ctx.EventManager().Events() {
		if ev.Type == types.EventTypeMarginCallFill {
			fills = append(fills, ev)
		}
	}
	return fills
}

func eventAttr(ev sdk.Event, key string) string {
	for _, attr := range ev.Attributes {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

func TestRegisterAssetAndFund(t *testing.T) {
	f := newFixture(t, afterActivation, nil)

	asset := f.k.GetAssetBySymbol("CORE")
	require.NotNil(t, asset)
	assert.False(t, asset.IsBitasset)

	f.fund(borrower, 1_000_000)
	assert.Equal(t, sdkmath.NewInt(1_000_000), f.balance(borrower, f.coreID))

	dyn := f.k.GetDynamicAssetData(f.coreID)
	require.NotNil(t, dyn)
	assert.Equal(t, sdkmath.NewInt(1_000_000), dyn.CurrentSupply)

	// Bitasset supply only enters through borrowing.
	err := f.k.FundBalance(f.ctx, borrower, f.usdAmt(1))
	require.ErrorIs(t, err, types.ErrInvalidAsset)

	_, err = f.k.RegisterAsset(f.ctx, issuer, "CORE", 5)
	require.ErrorIs(t, err, types.ErrAssetExists)
}

func TestHandleOperationRejectsInvalid(t *testing.T) {
	f := newFixture(t, afterActivation, nil)

	_, err := f.k.HandleOperation(f.ctx, &types.MsgCreateLimitOrder{
		Seller:       seller,
		AmountToSell: f.usdAmt(0),
		MinToReceive: f.coreAmt(100),
	})
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}
