package keeper_test

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// TestMarginCallMakerFilledByNewOrder covers the call-is-maker direction: the
// position is already margin-called and resting when a new limit order
// arrives, so the fill executes at the feed-derived match price.
//
// Feed 17/400, MSSR 1500, MCFR 50: match price 17/580, call pays at 17/600.
// Filling 2_000_000 debt: the order receives round_up(2_000_000*580/17) =
// 68_235_295, the call pays round_up(2_000_000*600/17) = 70_588_236, and the
// 2_352_941 difference is the margin call fee.
func TestMarginCallMakerFilledByNewOrder(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)
	f.fund(seller, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	callID := f.mustBorrow(borrower, 2_000_000, 80_000_000)
	f.mustBorrow(seller, 2_000_000, 90_000_000)

	// The feed drop margin-calls the borrower (40 < 700/17 collateral per
	// debt) but the book is empty, so nothing fills yet.
	f.mustPublishFeed(17, 400, 1750, 1500)
	require.NotNil(t, f.k.GetCallOrder(callID))
	require.Empty(t, f.fillEvents())

	// A new sell order tolerating the match price fills the call completely.
	orderID := f.mustSellDebt(seller, 2_000_000, 65_000_000)

	assert.Nil(t, f.k.GetCallOrderByBorrower(borrower, f.usdID))
	assert.Nil(t, f.k.GetLimitOrder(orderID))

	// Seller: 100M - 90M collateral + 68_235_295 proceeds.
	assert.Equal(t, sdkmath.NewInt(78_235_295), f.balance(seller, f.coreID))
	assert.True(t, f.balance(seller, f.usdID).IsZero())

	// Borrower: 100M - 80M collateral + (80M - 70_588_236) refund.
	assert.Equal(t, sdkmath.NewInt(29_411_764), f.balance(borrower, f.coreID))
	assert.Equal(t, sdkmath.NewInt(2_000_000), f.balance(borrower, f.usdID))

	dyn := f.k.GetDynamicAssetData(f.usdID)
	assert.Equal(t, sdkmath.NewInt(2_352_941), dyn.AccumulatedCollateralFees)
	assert.Equal(t, sdkmath.NewInt(2_000_000), dyn.CurrentSupply)

	fills := f.fillEvents()
	require.Len(t, fills, 1)
	assert.Equal(t, "2000000", eventAttr(fills[0], types.AttributeKeyFilledDebt))
	assert.Equal(t, "68235295", eventAttr(fills[0], types.AttributeKeyOrderReceives))
	assert.Equal(t, "70588236", eventAttr(fills[0], types.AttributeKeyCallPays))
	assert.Equal(t, "2352941", eventAttr(fills[0], types.AttributeKeyMarginCallFee))
	assert.Equal(t, "true", eventAttr(fills[0], types.AttributeKeyCallIsMaker))
}

// TestMarginCallTakerAgainstRestingOrder covers the order-is-maker direction:
// the sell order rests first, then a feed drop sends the calls through the
// book at the order's own limit price.
//
// Order price 187/4000: filling 2_000_000 debt the order receives
// round_up(2_000_000*4000/187) = 42_780_749; the call pays at 187/4000 *
// 1450/1500 = 5423/120000, round_up(2_000_000*120000/5423) = 44_255_948; fee
// 1_475_199.
func TestMarginCallTakerAgainstRestingOrder(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)
	f.fund(seller, 200_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 2_000_000, 80_000_000)
	f.mustBorrow(seller, 3_740_000, 170_000_000)

	// Resting while everyone is still healthy.
	orderID := f.mustSellDebt(seller, 3_740_000, 80_000_000)
	require.Empty(t, f.fillEvents())

	f.mustPublishFeed(17, 400, 1750, 1500)

	fills := f.fillEvents()
	require.Len(t, fills, 1)
	assert.Equal(t, "2000000", eventAttr(fills[0], types.AttributeKeyFilledDebt))
	assert.Equal(t, "42780749", eventAttr(fills[0], types.AttributeKeyOrderReceives))
	assert.Equal(t, "44255948", eventAttr(fills[0], types.AttributeKeyCallPays))
	assert.Equal(t, "1475199", eventAttr(fills[0], types.AttributeKeyMarginCallFee))
	assert.Equal(t, "false", eventAttr(fills[0], types.AttributeKeyCallIsMaker))

	// The call is closed with its surplus refunded.
	assert.Nil(t, f.k.GetCallOrderByBorrower(borrower, f.usdID))
	assert.Equal(t, sdkmath.NewInt(20_000_000+35_744_052), f.balance(borrower, f.coreID))

	// The order is reduced proportionally, receive leg rounded up to keep the
	// limit price.
	order := f.k.GetLimitOrder(orderID)
	require.NotNil(t, order)
	assert.Equal(t, sdkmath.NewInt(1_740_000), order.ForSale.Amount)
	assert.Equal(t, sdkmath.NewInt(37_219_252), order.ToReceive.Amount)

	// The seller's own healthier position was never touched.
	require.NotNil(t, f.k.GetCallOrderByBorrower(seller, f.usdID))

	dyn := f.k.GetDynamicAssetData(f.usdID)
	assert.Equal(t, sdkmath.NewInt(1_475_199), dyn.AccumulatedCollateralFees)
}

// Without a configured fee ratio both legs execute at the same price and the
// fee pool stays untouched.
func TestMarginCallWithoutFeeRatio(t *testing.T) {
	f := newFixture(t, afterActivation, nil)
	f.fund(borrower, 100_000_000)
	f.fund(seller, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 2_000_000, 80_000_000)
	f.mustBorrow(seller, 2_000_000, 90_000_000)

	f.mustPublishFeed(17, 400, 1750, 1500)
	f.mustSellDebt(seller, 2_000_000, 65_000_000)

	fills := f.fillEvents()
	require.Len(t, fills, 1)

	// Match price without fee is 17/600; both legs identical.
	receives := eventAttr(fills[0], types.AttributeKeyOrderReceives)
	pays := eventAttr(fills[0], types.AttributeKeyCallPays)
	assert.Equal(t, "70588236", receives)
	assert.Equal(t, receives, pays)
	assert.Equal(t, "0", eventAttr(fills[0], types.AttributeKeyMarginCallFee))

	dyn := f.k.GetDynamicAssetData(f.usdID)
	assert.True(t, dyn.AccumulatedCollateralFees.IsZero())
}

// An order demanding more than the match price allows must not fill a
// margin-called position.
func TestMarginCallNotFilledBelowMatchPrice(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)
	f.fund(seller, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	callID := f.mustBorrow(borrower, 2_000_000, 80_000_000)
	f.mustBorrow(seller, 2_000_000, 90_000_000)

	f.mustPublishFeed(17, 400, 1750, 1500)

	// Match price is 17/580 (~0.02931 debt per collateral); an order asking
	// for more collateral per debt unit sits above it and must rest.
	orderID := f.mustSellDebt(seller, 2_000_000, 70_000_000)

	require.Empty(t, f.fillEvents())
	require.NotNil(t, f.k.GetCallOrder(callID))
	require.NotNil(t, f.k.GetLimitOrder(orderID))
}

// Conservation: collateral leaving the position equals proceeds plus fee, and
// filled debt leaves the supply.
func TestMarginCallConservation(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)
	f.fund(seller, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	f.mustBorrow(borrower, 2_000_000, 80_000_000)
	f.mustBorrow(seller, 2_000_000, 90_000_000)
	supplyBefore := f.k.GetDynamicAssetData(f.usdID).CurrentSupply

	f.mustPublishFeed(17, 400, 1750, 1500)
	f.mustSellDebt(seller, 2_000_000, 65_000_000)

	fills := f.fillEvents()
	require.Len(t, fills, 1)

	receives, ok := sdkmath.NewIntFromString(eventAttr(fills[0], types.AttributeKeyOrderReceives))
	require.True(t, ok)
	pays, ok := sdkmath.NewIntFromString(eventAttr(fills[0], types.AttributeKeyCallPays))
	require.True(t, ok)
	fee, ok := sdkmath.NewIntFromString(eventAttr(fills[0], types.AttributeKeyMarginCallFee))
	require.True(t, ok)
	filled, ok := sdkmath.NewIntFromString(eventAttr(fills[0], types.AttributeKeyFilledDebt))
	require.True(t, ok)

	assert.Equal(t, pays, receives.Add(fee))
	assert.Equal(t, supplyBefore.Sub(filled), f.k.GetDynamicAssetData(f.usdID).CurrentSupply)
}

// Multiple margin-called positions are filled worst collateralization first.
func TestMarginCallsFilledWorstFirst(t *testing.T) {
	f := newFixture(t, afterActivation, feeRatio(50))
	f.fund(borrower, 100_000_000)
	f.fund(seller, 200_000_000)
	other := types.AccountID("other")
	f.fund(other, 100_000_000)

	f.mustPublishFeed(1, 5, 1750, 1500)
	worstID := f.mustBorrow(borrower, 2_000_000, 80_000_000)
	betterID := f.mustBorrow(other, 2_000_000, 81_000_000)
	f.mustBorrow(seller, 3_000_000, 150_000_000)

	f.mustPublishFeed(17, 400, 1750, 1500)

	// Sells enough to absorb only the worst position.
	f.mustSellDebt(seller, 2_000_000, 65_000_000)

	fills := f.fillEvents()
	require.Len(t, fills, 1)
	assert.Nil(t, f.k.GetCallOrder(worstID))
	assert.NotNil(t, f.k.GetCallOrder(betterID))
}
