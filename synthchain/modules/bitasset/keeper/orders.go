package keeper

import (
	"strconv"

	"cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/InjectiveLabs/metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// CreateLimitOrder escrows the sold amount and rests the order on the book.
// When the order sells a bitasset's debt units for its backing collateral it
// is immediately matched as taker against any margin-called positions; the
// returned ID stays valid for history even if the order fills completely.
func (k *Keeper) CreateLimitOrder(ctx sdk.Context, msg *types.MsgCreateLimitOrder) (types.OrderID, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	if k.assets[msg.AmountToSell.AssetID] == nil {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrAssetNotFound, "asset-%d", msg.AmountToSell.AssetID)
	}
	if k.assets[msg.MinToReceive.AssetID] == nil {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrAssetNotFound, "asset-%d", msg.MinToReceive.AssetID)
	}
	if !msg.Expiration.IsZero() && !ctx.BlockTime().Before(msg.Expiration) {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrInvalidExpiration, "expiration %s is not in the future", msg.Expiration.UTC())
	}
	if err := k.debitBalance(msg.Seller, msg.AmountToSell); err != nil {
		return 0, err
	}

	order := &types.LimitOrder{
		ID:         k.nextOrderSequence(),
		Seller:     msg.Seller,
		ForSale:    msg.AmountToSell,
		ToReceive:  msg.MinToReceive,
		Expiration: msg.Expiration,
	}
	k.insertLimitOrder(order)
	k.emitOrderEvent(ctx, types.EventTypeLimitOrderCreated, order)

	soldAsset := msg.AmountToSell.AssetID
	bd := k.bitassets[soldAsset]
	if bd != nil && !bd.HasSettlement() && bd.Options.BackingAssetID == msg.MinToReceive.AssetID {
		if _, err := k.checkCallOrders(ctx, soldAsset, order); err != nil {
			return 0, err
		}
	}

	return order.ID, nil
}

// CancelLimitOrder removes the seller's own order and refunds the unsold
// remainder.
func (k *Keeper) CancelLimitOrder(ctx sdk.Context, msg *types.MsgCancelLimitOrder) error {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	order := k.limitOrders[msg.OrderID]
	if order == nil {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrOrderNotFound, "limit order %d", msg.OrderID)
	}
	if order.Seller != msg.Seller {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrUnauthorized, "limit order %d belongs to %s", msg.OrderID, order.Seller)
	}

	k.creditBalance(order.Seller, order.ForSale)
	k.removeLimitOrder(order)
	k.emitOrderEvent(ctx, types.EventTypeLimitOrderCancelled, order)
	return nil
}

// AdjustCallOrder opens, resizes, or closes the borrower's debt position.
// Borrowed debt units are minted to the borrower's balance, repaid units are
// burned; collateral moves between the borrower's balance and the position.
// Any surviving position must sit at or above the maintenance threshold, so a
// borrower can never margin-call themselves by adjustment.
func (k *Keeper) AdjustCallOrder(ctx sdk.Context, msg *types.MsgAdjustCallOrder) (types.OrderID, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	asset, bd, err := k.mustBitasset(msg.AssetID)
	if err != nil {
		return 0, err
	}
	if bd.HasSettlement() {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrGloballySettled, "%s", asset.Symbol)
	}
	if !bd.HasFeed() {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrNoPriceFeed, "%s", asset.Symbol)
	}

	backing := bd.Options.BackingAssetID
	call := k.GetCallOrderByBorrower(msg.Borrower, msg.AssetID)

	oldDebt, oldCollateral := sdkmath.ZeroInt(), sdkmath.ZeroInt()
	if call != nil {
		oldDebt, oldCollateral = call.Debt.Amount, call.Collateral.Amount
	}
	newDebt := oldDebt.AddRaw(msg.DeltaDebt)
	newCollateral := oldCollateral.AddRaw(msg.DeltaCollateral)
	if newDebt.IsNegative() || newCollateral.IsNegative() {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrInvalidAmount,
			"adjustment drives position of %s negative: debt %s, collateral %s", msg.Borrower, newDebt, newCollateral)
	}
	if newDebt.GT(sdkmath.NewInt(types.MaxShareSupply)) {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrArithmeticOverflow, "debt %s exceeds the maximum share supply", newDebt)
	}

	// Collect funds before mutating the position so a failed debit leaves the
	// ledger untouched.
	if msg.DeltaCollateral > 0 {
		if err := k.debitBalance(msg.Borrower, types.NewAssetAmount(backing, msg.DeltaCollateral)); err != nil {
			return 0, err
		}
	}
	if msg.DeltaDebt < 0 {
		repaid := types.AssetAmount{AssetID: msg.AssetID, Amount: sdkmath.NewInt(-msg.DeltaDebt)}
		if err := k.debitBalance(msg.Borrower, repaid); err != nil {
			if msg.DeltaCollateral > 0 {
				k.creditBalance(msg.Borrower, types.NewAssetAmount(backing, msg.DeltaCollateral))
			}
			return 0, err
		}
	}

	dyn := k.dynamicData[msg.AssetID]

	if newDebt.IsZero() {
		if call == nil {
			metrics.ReportFuncError(k.svcTags)
			return 0, errors.Wrapf(types.ErrOrderNotFound, "account %s has no debt position in %s", msg.Borrower, asset.Symbol)
		}
		dyn.CurrentSupply = dyn.CurrentSupply.Sub(oldDebt)
		k.creditBalance(msg.Borrower, types.AssetAmount{AssetID: backing, Amount: newCollateral})
		k.removeCallOrder(call)
		k.emitCallEvent(ctx, types.EventTypeCallOrderClosed, call)
		return call.ID, nil
	}

	position := types.CallOrder{
		Borrower:   msg.Borrower,
		Collateral: types.AssetAmount{AssetID: backing, Amount: newCollateral},
		Debt:       types.AssetAmount{AssetID: msg.AssetID, Amount: newDebt},
	}
	threshold, err := bd.CurrentFeed.MaintenanceCollateralization()
	if err != nil {
		return 0, err
	}
	if position.IsMarginCalled(threshold) {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrInsufficientCollateral,
			"%s per %s debt is below the maintenance threshold %s",
			position.Collateral, position.Debt, threshold.Display())
	}

	if msg.DeltaDebt > 0 {
		borrowed := types.NewAssetAmount(msg.AssetID, msg.DeltaDebt)
		k.creditBalance(msg.Borrower, borrowed)
		dyn.CurrentSupply = dyn.CurrentSupply.Add(borrowed.Amount)
	} else if msg.DeltaDebt < 0 {
		dyn.CurrentSupply = dyn.CurrentSupply.SubRaw(-msg.DeltaDebt)
	}
	if msg.DeltaCollateral < 0 {
		k.creditBalance(msg.Borrower, types.NewAssetAmount(backing, -msg.DeltaCollateral))
	}

	if call == nil {
		call = &types.CallOrder{ID: k.nextOrderSequence(), Borrower: msg.Borrower}
		k.callOrders[call.ID] = call
		k.callsByKey[callKey{borrower: msg.Borrower, asset: msg.AssetID}] = call.ID
	}
	call.Collateral = position.Collateral
	call.Debt = position.Debt
	k.emitCallEvent(ctx, types.EventTypeCallOrderUpdated, call)

	if _, err := k.CheckCallOrders(ctx, msg.AssetID); err != nil {
		return 0, err
	}
	return call.ID, nil
}

func (k *Keeper) removeCallOrder(call *types.CallOrder) {
	delete(k.callOrders, call.ID)
	delete(k.callsByKey, callKey{borrower: call.Borrower, asset: call.Debt.AssetID})
}

func (k *Keeper) emitOrderEvent(ctx sdk.Context, eventType string, order *types.LimitOrder) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(eventType,
		sdk.NewAttribute(types.AttributeKeyLimitOrderID, strconv.FormatUint(uint64(order.ID), 10)),
		sdk.NewAttribute(types.AttributeKeySeller, string(order.Seller)),
	))
}

func (k *Keeper) emitCallEvent(ctx sdk.Context, eventType string, call *types.CallOrder) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(eventType,
		sdk.NewAttribute(types.AttributeKeyCallOrderID, strconv.FormatUint(uint64(call.ID), 10)),
		sdk.NewAttribute(types.AttributeKeyBorrower, string(call.Borrower)),
		sdk.NewAttribute(types.AttributeKeyAssetID, strconv.FormatUint(uint64(call.Debt.AssetID), 10)),
	))
}
