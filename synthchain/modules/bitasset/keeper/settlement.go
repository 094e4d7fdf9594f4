package keeper

import (
	"sort"
	"strconv"

	"cosmossdk.io/errors"
	"github.com/InjectiveLabs/metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// CheckGlobalSettlement triggers global settlement when the least
// collateralized position cannot cover its full debt at the call-pays price.
// It must run after a matching pass so only positions that genuinely cannot
// be absorbed by the book force the settlement. Returns whether settlement
// occurred.
func (k *Keeper) CheckGlobalSettlement(ctx sdk.Context, assetID types.AssetID) (bool, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	bd := k.bitassets[assetID]
	if bd == nil || bd.HasSettlement() || !bd.HasFeed() {
		return false, nil
	}

	call := k.leastCollateralizedCall(assetID)
	if call == nil {
		return false, nil
	}
	threshold, err := bd.CurrentFeed.MaintenanceCollateralization()
	if err != nil {
		return false, err
	}
	if !call.IsMarginCalled(threshold) {
		return false, nil
	}

	mcfr := bd.Options.FeeRatio()
	matchPrice, err := bd.CurrentFeed.MaxShortSqueezePrice(mcfr)
	if err != nil {
		return false, err
	}
	payPrice, err := types.CallPaysPrice(matchPrice, mcfr, bd.CurrentFeed.MaximumShortSqueezeRatio)
	if err != nil {
		return false, err
	}
	required, err := call.Debt.MulPriceRoundUp(payPrice)
	if err != nil {
		return false, err
	}
	if required.Amount.LTE(call.Collateral.Amount) {
		return false, nil
	}

	if err := k.globallySettle(ctx, bd, call); err != nil {
		return false, err
	}
	return true, nil
}

// globallySettle closes every open position of the asset at the triggering
// position's own collateralization price, pooling the collected collateral
// into the settlement fund. The trigger position pays exactly its whole
// collateral; better collateralized positions pay proportionally less and
// keep the surplus.
func (k *Keeper) globallySettle(ctx sdk.Context, bd *types.BitassetData, trigger *types.CallOrder) error {
	settlementPrice, err := trigger.Collateralization().Invert()
	if err != nil {
		return err
	}

	calls := make([]*types.CallOrder, 0)
	for _, call := range k.callOrders {
		if call.Debt.AssetID == bd.AssetID {
			calls = append(calls, call)
		}
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].ID < calls[j].ID })

	fund := types.AssetAmount{AssetID: bd.Options.BackingAssetID, Amount: bd.SettlementFund}
	for _, call := range calls {
		pays, err := call.Debt.MulPriceRoundUp(settlementPrice)
		if err != nil {
			return err
		}
		// Rounding can push the debit past the trigger's own collateral;
		// cap so the fund never claims more than the position holds.
		if pays.Amount.GT(call.Collateral.Amount) {
			pays = call.Collateral
		}

		fund = fund.Add(pays)
		refund := call.Collateral.Sub(pays)
		k.creditBalance(call.Borrower, refund)
		k.removeCallOrder(call)
		k.emitCallEvent(ctx, types.EventTypeCallOrderClosed, call)
	}

	bd.SettlementPrice = settlementPrice
	bd.SettlementFund = fund.Amount

	ctx.EventManager().EmitEvent(types.NewGlobalSettlementEvent(bd.AssetID, settlementPrice, fund))
	k.logger.WithFields(map[string]interface{}{
		"asset_id":         bd.AssetID,
		"settlement_price": settlementPrice.Display(),
		"fund":             fund.Amount.String(),
	}).Warningln("asset globally settled")

	return nil
}

// ForceSettle redeems the account's debt units for collateral. After global
// settlement, redemption draws from the settlement fund at the frozen
// settlement price. Before settlement, the redemption fills against the least
// collateralized position at the current feed price, less the configured
// margin call fee; any unsettleable remainder of the request stays in the
// account's balance.
func (k *Keeper) ForceSettle(ctx sdk.Context, msg *types.MsgForceSettle) (types.AssetAmount, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	asset, bd, err := k.mustBitasset(msg.Amount.AssetID)
	if err != nil {
		return types.AssetAmount{}, err
	}
	dyn := k.dynamicData[bd.AssetID]

	if bd.HasSettlement() {
		if err := k.debitBalance(msg.Account, msg.Amount); err != nil {
			return types.AssetAmount{}, err
		}
		receives, err := msg.Amount.MulPriceRoundDown(bd.SettlementPrice)
		if err != nil {
			return types.AssetAmount{}, err
		}
		if receives.Amount.GT(bd.SettlementFund) {
			receives.Amount = bd.SettlementFund
		}
		bd.SettlementFund = bd.SettlementFund.Sub(receives.Amount)
		dyn.CurrentSupply = dyn.CurrentSupply.Sub(msg.Amount.Amount)
		k.creditBalance(msg.Account, receives)

		k.emitForceSettledEvent(ctx, msg.Account, msg.Amount, receives)
		return receives, nil
	}

	if !bd.HasFeed() {
		metrics.ReportFuncError(k.svcTags)
		return types.AssetAmount{}, errors.Wrapf(types.ErrNoPriceFeed, "%s", asset.Symbol)
	}
	call := k.leastCollateralizedCall(bd.AssetID)
	if call == nil {
		metrics.ReportFuncError(k.svcTags)
		return types.AssetAmount{}, errors.Wrapf(types.ErrOrderNotFound, "no debt positions to settle %s against", asset.Symbol)
	}

	settled := msg.Amount
	if call.Debt.Amount.LT(settled.Amount) {
		settled = call.Debt
	}
	if err := k.debitBalance(msg.Account, settled); err != nil {
		return types.AssetAmount{}, err
	}

	gross, err := settled.MulPriceRoundDown(bd.CurrentFeed.SettlementPrice)
	if err != nil {
		return types.AssetAmount{}, err
	}
	if gross.Amount.GT(call.Collateral.Amount) {
		metrics.ReportFuncError(k.svcTags)
		return types.AssetAmount{}, errors.Wrapf(types.ErrInsufficientCollateral,
			"position %d holds %s, settlement needs %s", call.ID, call.Collateral, gross)
	}

	fee, err := types.CalculateCollateralFee(settled, bd.Options.FeeRatio(), bd.CurrentFeed.SettlementPrice)
	if err != nil {
		return types.AssetAmount{}, err
	}
	if fee.Amount.GT(gross.Amount) {
		fee = gross
	}
	receives := gross.Sub(fee)

	call.Debt = call.Debt.Sub(settled)
	call.Collateral = call.Collateral.Sub(gross)
	if call.Debt.Amount.IsZero() {
		k.creditBalance(call.Borrower, call.Collateral)
		k.removeCallOrder(call)
		k.emitCallEvent(ctx, types.EventTypeCallOrderClosed, call)
	} else {
		k.emitCallEvent(ctx, types.EventTypeCallOrderUpdated, call)
	}

	dyn.CurrentSupply = dyn.CurrentSupply.Sub(settled.Amount)
	dyn.AccumulatedCollateralFees = dyn.AccumulatedCollateralFees.Add(fee.Amount)
	k.creditBalance(msg.Account, receives)

	k.emitForceSettledEvent(ctx, msg.Account, settled, receives)
	return receives, nil
}

func (k *Keeper) emitForceSettledEvent(ctx sdk.Context, account types.AccountID, settled, receives types.AssetAmount) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(types.EventTypeForceSettled,
		sdk.NewAttribute(types.AttributeKeyAssetID, strconv.FormatUint(uint64(settled.AssetID), 10)),
		sdk.NewAttribute(types.AttributeKeyAccount, string(account)),
		sdk.NewAttribute(types.AttributeKeyFilledDebt, settled.Amount.String()),
		sdk.NewAttribute(types.AttributeKeyOrderReceives, receives.Amount.String()),
	))
}
