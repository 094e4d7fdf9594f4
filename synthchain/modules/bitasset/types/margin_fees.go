package types

import (
	"cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// CalculateCollateralFee prices the margin call fee, in collateral units, for
// filling the given amount of debt at the given match price. The price may be
// supplied in either orientation (debt per collateral or collateral per
// debt); the conversion normalizes it before dividing.
//
// The fee is round_up(filledDebt / matchPrice) * mcfr / CollateralRatioDenom.
// A zero mcfr yields an exact zero without requiring the collateral asset to
// exist. The function is pure; crediting the fee to the asset's accumulated
// collateral fee pool is the caller's responsibility.
func CalculateCollateralFee(filledDebt AssetAmount, mcfr uint16, matchPrice Price) (AssetAmount, error) {
	if mcfr == 0 {
		collateralID := AssetID(0)
		switch filledDebt.AssetID {
		case matchPrice.Base.AssetID:
			collateralID = matchPrice.Quote.AssetID
		case matchPrice.Quote.AssetID:
			collateralID = matchPrice.Base.AssetID
		}
		return AssetAmount{AssetID: collateralID, Amount: sdkmath.ZeroInt()}, nil
	}

	if int64(mcfr) >= CollateralRatioDenom {
		return AssetAmount{}, errors.Wrapf(ErrInvalidMarginFeeRatio, "fee ratio %d out of range", mcfr)
	}

	collateral, err := filledDebt.MulPriceRoundUp(matchPrice)
	if err != nil {
		return AssetAmount{}, err
	}

	fee := collateral.Amount.MulRaw(int64(mcfr)).QuoRaw(CollateralRatioDenom)
	return AssetAmount{AssetID: collateral.AssetID, Amount: fee}, nil
}
