package types

import (
	"cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// Asset is a tradeable token type. Identity is immutable once created;
// bitasset risk parameters live in the associated BitassetData and are
// mutable by the issuer subject to the feature-activation gate.
type Asset struct {
	ID               AssetID
	Symbol           string
	Issuer           AccountID
	Precision        uint8
	MarketFeePercent uint16
	IsBitasset       bool
}

func (a Asset) Validate() error {
	if err := ValidateSymbol(a.Symbol); err != nil {
		return err
	}
	if a.Issuer == "" {
		return errors.Wrap(ErrInvalidAsset, "issuer must be set")
	}
	if a.Precision > MaxAssetPrecision {
		return errors.Wrapf(ErrInvalidAsset, "precision %d exceeds maximum %d", a.Precision, MaxAssetPrecision)
	}
	if a.MarketFeePercent > MaxMarketFeePercent {
		return errors.Wrapf(ErrInvalidAsset, "market fee percent %d exceeds maximum %d", a.MarketFeePercent, MaxMarketFeePercent)
	}
	return nil
}

func ValidateSymbol(symbol string) error {
	if len(symbol) < 3 || len(symbol) > 16 {
		return errors.Wrapf(ErrInvalidAsset, "symbol %q must be between 3 and 16 characters", symbol)
	}
	for i, c := range symbol {
		isLetter := c >= 'A' && c <= 'Z'
		isDigit := c >= '0' && c <= '9'
		if i == 0 && !isLetter {
			return errors.Wrapf(ErrInvalidAsset, "symbol %q must start with an uppercase letter", symbol)
		}
		if !isLetter && !isDigit && c != '.' {
			return errors.Wrapf(ErrInvalidAsset, "symbol %q contains invalid character %q", symbol, c)
		}
	}
	return nil
}

// BitassetOptions are the issuer-mutable risk parameters of a debt-backed
// asset.
type BitassetOptions struct {
	// BackingAssetID is the collateral asset debt positions pledge.
	BackingAssetID AssetID

	// MarginCallFeeRatio is the fraction of a margin call's collateral payout
	// withheld as protocol fee, in parts per CollateralRatioDenom. A nil
	// value means unset and behaves as zero. Setting a non-nil value is gated
	// by Params.MarginFeeActivationTime.
	MarginCallFeeRatio *uint16

	// FeedProducers are the accounts authorized to publish price feeds.
	FeedProducers []AccountID
}

func (o BitassetOptions) Validate() error {
	if o.MarginCallFeeRatio != nil && int64(*o.MarginCallFeeRatio) >= CollateralRatioDenom {
		return errors.Wrapf(ErrInvalidMarginFeeRatio, "fee ratio %d must be below %d", *o.MarginCallFeeRatio, CollateralRatioDenom)
	}
	for _, producer := range o.FeedProducers {
		if producer == "" {
			return errors.Wrap(ErrInvalidAsset, "feed producer must not be empty")
		}
	}
	return nil
}

// FeeRatio resolves the margin call fee ratio, treating unset as zero.
func (o BitassetOptions) FeeRatio() uint16 {
	if o.MarginCallFeeRatio == nil {
		return 0
	}
	return *o.MarginCallFeeRatio
}

func (o BitassetOptions) IsAuthorizedFeedProducer(account AccountID) bool {
	for _, producer := range o.FeedProducers {
		if producer == account {
			return true
		}
	}
	return false
}

// PriceFeed is the resolved feed for a bitasset. SettlementPrice is oriented
// debt asset (base) per collateral asset (quote).
type PriceFeed struct {
	SettlementPrice            Price
	MaintenanceCollateralRatio uint16
	MaximumShortSqueezeRatio   uint16
}

func (f PriceFeed) IsNil() bool {
	return f.SettlementPrice.IsNil()
}

func (f PriceFeed) Validate(debtAssetID, backingAssetID AssetID) error {
	if err := f.SettlementPrice.Validate(); err != nil {
		return err
	}
	if f.SettlementPrice.Base.AssetID != debtAssetID || f.SettlementPrice.Quote.AssetID != backingAssetID {
		return errors.Wrapf(ErrInvalidPriceFeed,
			"settlement price %s must be quoted as asset-%d per asset-%d", f.SettlementPrice, debtAssetID, backingAssetID)
	}
	if f.MaintenanceCollateralRatio < MinCollateralRatio || f.MaintenanceCollateralRatio > MaxCollateralRatio {
		return errors.Wrapf(ErrInvalidPriceFeed, "maintenance collateral ratio %d out of range", f.MaintenanceCollateralRatio)
	}
	if f.MaximumShortSqueezeRatio < MinCollateralRatio || f.MaximumShortSqueezeRatio > MaxCollateralRatio {
		return errors.Wrapf(ErrInvalidPriceFeed, "maximum short squeeze ratio %d out of range", f.MaximumShortSqueezeRatio)
	}
	return nil
}

// MaintenanceCollateralization returns the collateral-per-debt threshold
// below which a position is margin-callable: ~settlement_price * MCR/DENOM.
func (f PriceFeed) MaintenanceCollateralization() (Price, error) {
	inverse, err := f.SettlementPrice.Invert()
	if err != nil {
		return Price{}, err
	}
	return inverse.MulRatio(int64(f.MaintenanceCollateralRatio), CollateralRatioDenom)
}

// MaxShortSqueezePrice returns the match price of a margin call: the feed
// price widened by the short squeeze allowance and narrowed back by the fee
// ratio, feed * DENOM/(MSSR - MCFR), in debt-per-collateral orientation.
func (f PriceFeed) MaxShortSqueezePrice(mcfr uint16) (Price, error) {
	if mcfr >= f.MaximumShortSqueezeRatio {
		return Price{}, errors.Wrapf(ErrInvalidMarginFeeRatio,
			"fee ratio %d must be below the maximum short squeeze ratio %d", mcfr, f.MaximumShortSqueezeRatio)
	}
	return f.SettlementPrice.MulRatio(CollateralRatioDenom, int64(f.MaximumShortSqueezeRatio-mcfr))
}

// CallPaysPrice derives the collateral-debit price of the call side from the
// match price: match_price * (MSSR - MCFR)/MSSR. Fewer debt units per
// collateral unit means the call pays more collateral per unit of debt than
// the matched order receives; the difference funds the margin call fee.
func CallPaysPrice(matchPrice Price, mcfr, mssr uint16) (Price, error) {
	if mcfr >= mssr {
		return Price{}, errors.Wrapf(ErrInvalidMarginFeeRatio,
			"fee ratio %d must be below the maximum short squeeze ratio %d", mcfr, mssr)
	}
	return matchPrice.MulRatio(int64(mssr-mcfr), int64(mssr))
}

// BitassetData is the 1:1 companion record of a debt-backed asset.
type BitassetData struct {
	AssetID     AssetID
	Options     BitassetOptions
	CurrentFeed PriceFeed

	// SettlementPrice and SettlementFund are populated once global
	// settlement has occurred. The price is debt per collateral; the fund is
	// in collateral units.
	SettlementPrice Price
	SettlementFund  sdkmath.Int
}

// HasSettlement reports whether the asset has been globally settled. Once
// settled no new call orders may open.
func (b BitassetData) HasSettlement() bool {
	return !b.SettlementPrice.IsNil()
}

func (b BitassetData) HasFeed() bool {
	return !b.CurrentFeed.IsNil()
}

// DynamicAssetData tracks the mutable supply and fee pools of an asset.
// AccumulatedCollateralFees is incremented exclusively by the margin call fee
// mechanism and is denominated in the backing asset.
type DynamicAssetData struct {
	AssetID                   AssetID
	CurrentSupply             sdkmath.Int
	AccumulatedFees           sdkmath.Int
	AccumulatedCollateralFees sdkmath.Int
}
