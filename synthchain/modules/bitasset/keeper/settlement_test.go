package keeper_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// A feed drop that the least collateralized position cannot absorb at the
// call-pays price settles the whole asset at that position's
// collateralization.
func TestGlobalSettlement(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)
	f.fund(seller, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 2_000_000, 80_000_000)
	f.mustBorrow(seller, 2_000_000, 90_000_000)

	// At feed 1/30 the borrower would need 2M * 1500/1000 * 30 = 90M
	// collateral to cover at the call-pays price but holds 80M.
	f.mustPublishFeed(1, 30, 1750, 1500)

	bd := f.k.GetBitassetData(f.usdID)
	require.True(t, bd.HasSettlement())

	// Settlement price is the trigger's own collateralization: 2M debt per
	// 80M collateral. Both positions pay at it: the trigger its entire
	// collateral, the healthier one 2M * 80M/2M = 80M of its 90M.
	assert.Nil(t, f.k.GetCallOrderByBorrower(borrower, f.usdID))
	assert.Nil(t, f.k.GetCallOrderByBorrower(seller, f.usdID))
	assert.Equal(t, sdkmath.NewInt(160_000_000), bd.SettlementFund)

	// Refunds: the trigger gets nothing back, the other keeps 10M.
	assert.Equal(t, sdkmath.NewInt(20_000_000), f.balance(borrower, f.coreID))
	assert.Equal(t, sdkmath.NewInt(20_000_000), f.balance(seller, f.coreID))

	// Supply is untouched by settlement itself; holders redeem later.
	assert.Equal(t, sdkmath.NewInt(4_000_000), f.k.GetDynamicAssetData(f.usdID).CurrentSupply)

	// No new positions on a settled asset.
	_, err := f.borrow(borrower, 1_000_000, 50_000_000)
	require.ErrorIs(t, err, types.ErrGloballySettled)
}

func TestGlobalSettlementNotTriggeredWhenCovered(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 2_000_000, 80_000_000)

	// Margin-called but coverable: required 2M * 1500/1000 * 25 = 75M < 80M.
	f.mustPublishFeed(1, 25, 1750, 1500)

	assert.False(t, f.k.GetBitassetData(f.usdID).HasSettlement())
	require.NotNil(t, f.k.GetCallOrderByBorrower(borrower, f.usdID))
}

func TestForceSettleAfterGlobalSettlement(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)
	f.fund(seller, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 2_000_000, 80_000_000)
	f.mustBorrow(seller, 2_000_000, 90_000_000)
	f.mustPublishFeed(1, 30, 1750, 1500)
	require.True(t, f.k.GetBitassetData(f.usdID).HasSettlement())

	// Redeem at the frozen settlement price, the trigger's 2M debt per 80M
	// collateral, i.e. 40 collateral per debt unit.
	_, err := f.k.HandleOperation(f.ctx, &types.MsgForceSettle{
		Account: borrower,
		Amount:  f.usdAmt(2_000_000),
	})
	require.NoError(t, err)

	assert.Equal(t, sdkmath.NewInt(20_000_000+80_000_000), f.balance(borrower, f.coreID))
	assert.True(t, f.balance(borrower, f.usdID).IsZero())

	bd := f.k.GetBitassetData(f.usdID)
	assert.Equal(t, sdkmath.NewInt(80_000_000), bd.SettlementFund)
	assert.Equal(t, sdkmath.NewInt(2_000_000), f.k.GetDynamicAssetData(f.usdID).CurrentSupply)

	// More than the balance held cannot be redeemed.
	_, err = f.k.HandleOperation(f.ctx, &types.MsgForceSettle{
		Account: borrower,
		Amount:  f.usdAmt(1),
	})
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
}

// Instant settlement against the least collateralized position at the feed
// price, less the collateral fee.
func TestForceSettleAgainstPosition(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 2_000_000, 80_000_000)

	// 500_000 debt at 1/5 is 2_500_000 collateral gross; the fee is
	// round_up(2_500_000) * 50/1000 = 125_000.
	_, err := f.k.HandleOperation(f.ctx, &types.MsgForceSettle{
		Account: borrower,
		Amount:  f.usdAmt(500_000),
	})
	require.NoError(t, err)

	assert.Equal(t, sdkmath.NewInt(1_500_000), f.balance(borrower, f.usdID))
	assert.Equal(t, sdkmath.NewInt(20_000_000+2_375_000), f.balance(borrower, f.coreID))

	call := f.k.GetCallOrderByBorrower(borrower, f.usdID)
	require.NotNil(t, call)
	assert.Equal(t, sdkmath.NewInt(1_500_000), call.Debt.Amount)
	assert.Equal(t, sdkmath.NewInt(77_500_000), call.Collateral.Amount)

	dyn := f.k.GetDynamicAssetData(f.usdID)
	assert.Equal(t, sdkmath.NewInt(1_500_000), dyn.CurrentSupply)
	assert.Equal(t, sdkmath.NewInt(125_000), dyn.AccumulatedCollateralFees)
}

func TestForceSettleCapsAtPositionDebt(t *testing.T) {
	f := newFixture(t, afterActivation, nil)
	f.fund(borrower, 100_000_000)
	f.fund(seller, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 500_000, 20_000_000)
	f.mustBorrow(seller, 2_000_000, 90_000_000)

	// The borrower's smaller position is the least collateralized (40 < 45);
	// settling 800_000 only consumes its 500_000 debt, the rest stays in the
	// seller's balance.
	_, err := f.k.HandleOperation(f.ctx, &types.MsgForceSettle{
		Account: seller,
		Amount:  f.usdAmt(800_000),
	})
	require.NoError(t, err)

	assert.Equal(t, sdkmath.NewInt(1_500_000), f.balance(seller, f.usdID))
	assert.Nil(t, f.k.GetCallOrderByBorrower(borrower, f.usdID))
	// 500_000 debt at 1/5 is 2_500_000 collateral, no fee configured.
	assert.Equal(t, sdkmath.NewInt(10_000_000+2_500_000), f.balance(seller, f.coreID))
}

func TestForceSettleRequiresCounterparty(t *testing.T) {
	f := newFixture(t, afterActivation, nil)
	f.fund(borrower, 100_000_000)
	f.mustPublishFeed(1, 5, 1750, 1500)

	_, err := f.k.HandleOperation(f.ctx, &types.MsgForceSettle{
		Account: borrower,
		Amount:  f.usdAmt(1),
	})
	require.ErrorIs(t, err, types.ErrOrderNotFound)
}
