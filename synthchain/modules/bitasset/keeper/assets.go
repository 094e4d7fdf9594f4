package keeper

import (
	"cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/InjectiveLabs/metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// CreateBitasset registers a new debt-backed asset. Setting a margin call fee
// ratio at creation is subject to the same activation gate as setting it on an
// existing asset.
func (k *Keeper) CreateBitasset(ctx sdk.Context, msg *types.MsgCreateBitasset) (types.AssetID, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	if _, exists := k.assetsBySymbol[msg.Symbol]; exists {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrAssetExists, "symbol %s", msg.Symbol)
	}
	if k.assets[msg.Options.BackingAssetID] == nil {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrAssetNotFound, "backing asset-%d", msg.Options.BackingAssetID)
	}
	if msg.Options.MarginCallFeeRatio != nil {
		if err := k.ensureMarginFeeActivated(ctx); err != nil {
			return 0, err
		}
	}

	id := k.nextAssetID
	k.nextAssetID++

	asset := &types.Asset{
		ID:               id,
		Symbol:           msg.Symbol,
		Issuer:           msg.Issuer,
		Precision:        msg.Precision,
		MarketFeePercent: msg.MarketFeePercent,
		IsBitasset:       true,
	}
	k.assets[id] = asset
	k.assetsBySymbol[msg.Symbol] = id
	k.bitassets[id] = &types.BitassetData{
		AssetID:        id,
		Options:        msg.Options,
		SettlementFund: sdkmath.ZeroInt(),
	}
	k.dynamicData[id] = &types.DynamicAssetData{
		AssetID:                   id,
		CurrentSupply:             sdkmath.ZeroInt(),
		AccumulatedFees:           sdkmath.ZeroInt(),
		AccumulatedCollateralFees: sdkmath.ZeroInt(),
	}

	k.logger.WithFields(map[string]interface{}{
		"symbol":   msg.Symbol,
		"asset_id": id,
	}).Infoln("created bitasset")

	return id, nil
}

// UpdateBitassetOptions replaces the issuer-mutable options of a bitasset and
// re-evaluates margin calls, since a changed fee ratio moves the match price.
func (k *Keeper) UpdateBitassetOptions(ctx sdk.Context, msg *types.MsgUpdateBitassetOptions) error {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	asset, bd, err := k.mustBitasset(msg.AssetID)
	if err != nil {
		return err
	}
	if asset.Issuer != msg.Issuer {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrUnauthorized, "account %s is not the issuer of %s", msg.Issuer, asset.Symbol)
	}
	if msg.SetsMarginCallFeeRatio() {
		if err := k.ensureMarginFeeActivated(ctx); err != nil {
			return err
		}
		// The fee ratio must leave a positive divisor in the match price
		// derivation for the active (or default) short squeeze ratio.
		mssr := types.DefaultMaximumShortSqueezeRatio
		if bd.HasFeed() {
			mssr = bd.CurrentFeed.MaximumShortSqueezeRatio
		}
		if *msg.NewOptions.MarginCallFeeRatio >= mssr {
			metrics.ReportFuncError(k.svcTags)
			return errors.Wrapf(types.ErrInvalidMarginFeeRatio,
				"fee ratio %d must be below the maximum short squeeze ratio %d", *msg.NewOptions.MarginCallFeeRatio, mssr)
		}
	}
	if msg.NewOptions.BackingAssetID != bd.Options.BackingAssetID {
		dyn := k.dynamicData[msg.AssetID]
		if !dyn.CurrentSupply.IsZero() {
			metrics.ReportFuncError(k.svcTags)
			return errors.Wrapf(types.ErrInvalidAsset,
				"cannot change the backing asset of %s with %s units outstanding", asset.Symbol, dyn.CurrentSupply)
		}
		if k.assets[msg.NewOptions.BackingAssetID] == nil {
			metrics.ReportFuncError(k.svcTags)
			return errors.Wrapf(types.ErrAssetNotFound, "backing asset-%d", msg.NewOptions.BackingAssetID)
		}
	}

	bd.Options = msg.NewOptions

	if _, err := k.CheckCallOrders(ctx, msg.AssetID); err != nil {
		return err
	}
	return nil
}

// PublishPriceFeed installs a new resolved feed for a bitasset and triggers
// margin call matching against the resting book. Feeds published after global
// settlement are accepted but inert.
func (k *Keeper) PublishPriceFeed(ctx sdk.Context, msg *types.MsgPublishPriceFeed) error {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	asset, bd, err := k.mustBitasset(msg.AssetID)
	if err != nil {
		return err
	}
	if !bd.Options.IsAuthorizedFeedProducer(msg.Publisher) {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrUnauthorized, "account %s is not a feed producer for %s", msg.Publisher, asset.Symbol)
	}
	if err := msg.Feed.Validate(msg.AssetID, bd.Options.BackingAssetID); err != nil {
		metrics.ReportFuncError(k.svcTags)
		return err
	}
	if mcfr := bd.Options.FeeRatio(); mcfr != 0 && mcfr >= msg.Feed.MaximumShortSqueezeRatio {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrInvalidPriceFeed,
			"maximum short squeeze ratio %d must exceed the configured fee ratio %d", msg.Feed.MaximumShortSqueezeRatio, mcfr)
	}

	bd.CurrentFeed = msg.Feed
	ctx.EventManager().EmitEvent(types.NewPriceFeedUpdatedEvent(msg.AssetID, msg.Feed))

	if bd.HasSettlement() {
		return nil
	}
	if _, err := k.CheckCallOrders(ctx, msg.AssetID); err != nil {
		return err
	}

	// A feed movement is the only trigger that can leave the least
	// collateralized position unable to cover its debt at the call price.
	if _, err := k.CheckGlobalSettlement(ctx, msg.AssetID); err != nil {
		return err
	}
	return nil
}

func (k *Keeper) mustBitasset(assetID types.AssetID) (*types.Asset, *types.BitassetData, error) {
	asset := k.assets[assetID]
	if asset == nil {
		metrics.ReportFuncError(k.svcTags)
		return nil, nil, errors.Wrapf(types.ErrAssetNotFound, "asset-%d", assetID)
	}
	bd := k.bitassets[assetID]
	if bd == nil {
		metrics.ReportFuncError(k.svcTags)
		return nil, nil, errors.Wrapf(types.ErrNotBitasset, "%s", asset.Symbol)
	}
	return asset, bd, nil
}

func (k *Keeper) ensureMarginFeeActivated(ctx sdk.Context) error {
	if ctx.BlockTime().Before(k.params.MarginFeeActivationTime) {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrMarginFeeNotActivated,
			"block time %s precedes activation time %s", ctx.BlockTime().UTC(), k.params.MarginFeeActivationTime.UTC())
	}
	return nil
}
