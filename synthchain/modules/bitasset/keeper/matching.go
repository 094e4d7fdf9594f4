package keeper

import (
	"cosmossdk.io/errors"
	"github.com/InjectiveLabs/metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// CheckCallOrders matches margin-called debt positions of the asset against
// the resting book, least collateralized first. The resting side of each match
// is the maker and dictates the execution price: after a feed or option change
// the calls are takers filled at resting limit prices, while a freshly placed
// order is the taker filled at the calls' feed-derived match price.
//
// Returned fills are ordered as executed. The pass stops as soon as no
// margin-called position can cross the book.
func (k *Keeper) CheckCallOrders(ctx sdk.Context, assetID types.AssetID) ([]*types.Fill, error) {
	return k.checkCallOrders(ctx, assetID, nil)
}

func (k *Keeper) checkCallOrders(ctx sdk.Context, assetID types.AssetID, takerOrder *types.LimitOrder) ([]*types.Fill, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	bd := k.bitassets[assetID]
	if bd == nil || bd.HasSettlement() || !bd.HasFeed() {
		return nil, nil
	}

	mcfr := bd.Options.FeeRatio()
	callMatchPrice, err := bd.CurrentFeed.MaxShortSqueezePrice(mcfr)
	if err != nil {
		metrics.ReportFuncError(k.svcTags)
		return nil, errors.Wrapf(err, "deriving match price for asset-%d", assetID)
	}
	threshold, err := bd.CurrentFeed.MaintenanceCollateralization()
	if err != nil {
		metrics.ReportFuncError(k.svcTags)
		return nil, errors.Wrapf(err, "deriving maintenance threshold for asset-%d", assetID)
	}

	var fills []*types.Fill
	for {
		call := k.leastCollateralizedCall(assetID)
		if call == nil || !call.IsMarginCalled(threshold) {
			break
		}

		matched, err := k.matchCall(ctx, bd, call, callMatchPrice, takerOrder, &fills)
		if err != nil {
			return fills, err
		}
		if !matched {
			// Margin-called but nothing crosses: the position stays on the
			// book as a resting call until prices or orders move.
			break
		}
	}

	return fills, nil
}

// matchCall attempts one fill for the given margin-called position. It
// reports false when no counterparty crosses or the position cannot pay for a
// fill within its collateral.
func (k *Keeper) matchCall(
	ctx sdk.Context,
	bd *types.BitassetData,
	call *types.CallOrder,
	callMatchPrice types.Price,
	takerOrder *types.LimitOrder,
	fills *[]*types.Fill,
) (bool, error) {
	var (
		order       *types.LimitOrder
		matchPrice  types.Price
		callIsMaker bool
	)

	if takerOrder != nil {
		// The new order is the taker; it only matches while it still rests on
		// the book and its limit tolerates the calls' match price.
		if k.limitOrders[takerOrder.ID] == nil {
			return false, nil
		}
		if takerOrder.SellPrice().LT(callMatchPrice) {
			return false, nil
		}
		order, matchPrice, callIsMaker = takerOrder, callMatchPrice, true
	} else {
		best := k.bestSellOrder(ctx, bd.AssetID, bd.Options.BackingAssetID)
		if best == nil || best.SellPrice().LT(callMatchPrice) {
			return false, nil
		}
		order, matchPrice, callIsMaker = best, best.SellPrice(), false
	}

	fill, err := k.fillMarginCall(ctx, bd, call, order, matchPrice, callIsMaker)
	if err != nil {
		return false, err
	}
	if fill == nil {
		return false, nil
	}
	*fills = append(*fills, fill)
	return true, nil
}

// leastCollateralizedCall scans the asset's open positions for the one
// closest to default, ties broken by creation order so replay stays
// deterministic.
func (k *Keeper) leastCollateralizedCall(assetID types.AssetID) *types.CallOrder {
	var worst *types.CallOrder
	for _, call := range k.callOrders {
		if call.Debt.AssetID != assetID {
			continue
		}
		if worst == nil {
			worst = call
			continue
		}
		cmp := call.Collateralization().Cmp(worst.Collateralization())
		if cmp < 0 || (cmp == 0 && call.ID < worst.ID) {
			worst = call
		}
	}
	return worst
}
