package keeper

import (
	"cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// RegisterAsset seeds a plain (non-bitasset) asset into the ledger, e.g. the
// core collateral asset. Used at genesis; plain assets have no debt machinery.
func (k *Keeper) RegisterAsset(ctx sdk.Context, issuer types.AccountID, symbol string, precision uint8) (types.AssetID, error) {
	if err := types.ValidateSymbol(symbol); err != nil {
		return 0, err
	}
	if _, exists := k.assetsBySymbol[symbol]; exists {
		return 0, errors.Wrapf(types.ErrAssetExists, "symbol %s", symbol)
	}

	id := k.nextAssetID
	k.nextAssetID++

	asset := &types.Asset{
		ID:        id,
		Symbol:    symbol,
		Issuer:    issuer,
		Precision: precision,
	}
	k.assets[id] = asset
	k.assetsBySymbol[symbol] = id
	k.dynamicData[id] = &types.DynamicAssetData{
		AssetID:                   id,
		CurrentSupply:             sdkmath.ZeroInt(),
		AccumulatedFees:           sdkmath.ZeroInt(),
		AccumulatedCollateralFees: sdkmath.ZeroInt(),
	}

	k.logger.WithField("symbol", symbol).Debugln("registered asset")
	return id, nil
}

// FundBalance mints amount directly into the account's balance. This is a
// genesis-only faucet for plain assets; bitasset supply can only enter
// circulation through borrowing.
func (k *Keeper) FundBalance(ctx sdk.Context, account types.AccountID, amount types.AssetAmount) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	asset := k.assets[amount.AssetID]
	if asset == nil {
		return errors.Wrapf(types.ErrAssetNotFound, "asset-%d", amount.AssetID)
	}
	if asset.IsBitasset {
		return errors.Wrapf(types.ErrInvalidAsset, "cannot fund bitasset %s outside of borrowing", asset.Symbol)
	}

	k.creditBalance(account, amount)

	dyn := k.dynamicData[amount.AssetID]
	dyn.CurrentSupply = dyn.CurrentSupply.Add(amount.Amount)
	return nil
}
