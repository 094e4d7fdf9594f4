package keeper

import (
	"cosmossdk.io/errors"
	"github.com/InjectiveLabs/metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// fillMarginCall executes one match between a margin-called position and a
// limit order selling the debt asset.
//
// The order side receives filled_debt converted at the match price; the call
// side pays filled_debt converted at the call-pays price, which is the match
// price narrowed by (MSSR-MCFR)/MSSR. Both legs round up, against the call.
// The difference between the two legs is the margin call fee and accrues to
// the asset's collateral fee pool, so collateral leaving the position always
// equals collateral received by the seller plus the fee.
//
// Returns nil without filling when the position cannot cover the collateral
// debit; whether that escalates to global settlement is the feed-update
// trigger's decision.
func (k *Keeper) fillMarginCall(
	ctx sdk.Context,
	bd *types.BitassetData,
	call *types.CallOrder,
	order *types.LimitOrder,
	matchPrice types.Price,
	callIsMaker bool,
) (*types.Fill, error) {
	metrics.ReportFuncCall(k.svcTags)

	mcfr := bd.Options.FeeRatio()
	mssr := bd.CurrentFeed.MaximumShortSqueezeRatio

	filledDebt := call.Debt
	if order.ForSale.Amount.LT(filledDebt.Amount) {
		filledDebt = order.ForSale
	}

	orderReceives, err := filledDebt.MulPriceRoundUp(matchPrice)
	if err != nil {
		metrics.ReportFuncError(k.svcTags)
		return nil, err
	}
	payPrice, err := types.CallPaysPrice(matchPrice, mcfr, mssr)
	if err != nil {
		metrics.ReportFuncError(k.svcTags)
		return nil, err
	}
	callPays, err := filledDebt.MulPriceRoundUp(payPrice)
	if err != nil {
		metrics.ReportFuncError(k.svcTags)
		return nil, err
	}

	fee := callPays.Sub(orderReceives)
	if fee.Amount.IsNegative() {
		// The call must never pay less than the order receives; a violation
		// means the price derivation itself is broken, so halt the match pass
		// rather than mint collateral from nowhere.
		metrics.ReportFuncError(k.svcTags)
		return nil, errors.Wrapf(types.ErrNegativeMarginCallFee,
			"call %d pays %s, order %d receives %s at match price %s",
			call.ID, callPays, order.ID, orderReceives, matchPrice.Display())
	}

	if callPays.Amount.GT(call.Collateral.Amount) {
		return nil, nil
	}

	// Settle the order side first: escrowed debt units repay the position.
	if filledDebt.Amount.Equal(order.ForSale.Amount) {
		k.removeLimitOrder(order)
	} else {
		newForSale := order.ForSale.Sub(filledDebt)
		// The remainder keeps the original limit price; the receive leg
		// rounds up so the reduced order never asks for less per unit.
		product := order.ToReceive.Amount.Mul(newForSale.Amount)
		newReceiveAmt := product.Quo(order.ForSale.Amount)
		if !product.Mod(order.ForSale.Amount).IsZero() {
			newReceiveAmt = newReceiveAmt.AddRaw(1)
		}
		k.reduceLimitOrder(order, newForSale, types.AssetAmount{AssetID: order.ToReceive.AssetID, Amount: newReceiveAmt})
	}
	k.creditBalance(order.Seller, orderReceives)

	dyn := k.dynamicData[bd.AssetID]
	dyn.CurrentSupply = dyn.CurrentSupply.Sub(filledDebt.Amount)
	dyn.AccumulatedCollateralFees = dyn.AccumulatedCollateralFees.Add(fee.Amount)

	call.Debt = call.Debt.Sub(filledDebt)
	call.Collateral = call.Collateral.Sub(callPays)
	if call.Debt.Amount.IsZero() {
		k.creditBalance(call.Borrower, call.Collateral)
		k.removeCallOrder(call)
		k.emitCallEvent(ctx, types.EventTypeCallOrderClosed, call)
	} else {
		k.emitCallEvent(ctx, types.EventTypeCallOrderUpdated, call)
	}

	fill := &types.Fill{
		AssetID:       bd.AssetID,
		CallOrderID:   call.ID,
		LimitOrderID:  order.ID,
		Borrower:      call.Borrower,
		Seller:        order.Seller,
		FilledDebt:    filledDebt,
		OrderReceives: orderReceives,
		CallPays:      callPays,
		MarginCallFee: fee,
		MatchPrice:    matchPrice,
		CallIsMaker:   callIsMaker,
	}
	ctx.EventManager().EmitEvent(fill.ToEvent())

	k.logger.WithFields(map[string]interface{}{
		"asset_id":    bd.AssetID,
		"call_order":  call.ID,
		"limit_order": order.ID,
		"filled_debt": filledDebt.Amount.String(),
		"fee":         fee.Amount.String(),
	}).Debugln("filled margin call")

	return fill, nil
}
