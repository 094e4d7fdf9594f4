package types

import (
	"time"

	"github.com/pkg/errors"
)

const (
	// CollateralRatioDenom is the denominator against which MCR, MSSR and the
	// margin call fee ratio are expressed (parts per thousand).
	CollateralRatioDenom int64 = 1000

	// DefaultMaintenanceCollateralRatio is 1.75x collateral per debt.
	DefaultMaintenanceCollateralRatio uint16 = 1750

	// DefaultMaximumShortSqueezeRatio is 1.5x, the worst price multiplier a
	// margin call may be filled at.
	DefaultMaximumShortSqueezeRatio uint16 = 1500

	// MinCollateralRatio is the lowest ratio either MCR or MSSR may take.
	MinCollateralRatio uint16 = 1001

	// MaxCollateralRatio bounds MCR and MSSR to 32x.
	MaxCollateralRatio uint16 = 32000

	// MaxAssetPrecision is the largest number of decimal places an asset may
	// be created with.
	MaxAssetPrecision uint8 = 12

	// MaxMarketFeePercent is 100% expressed in basis points.
	MaxMarketFeePercent uint16 = 10000

	// MaxShareSupply is the largest representable amount of any single asset.
	// Any arithmetic result exceeding it is treated as an overflow.
	MaxShareSupply int64 = 1_000_000_000_000_000
)

// DefaultMarginFeeActivationTime is the protocol-upgrade instant after which
// the margin call fee ratio may be configured on bitassets.
var DefaultMarginFeeActivationTime = time.Date(2021, time.April, 15, 0, 0, 0, 0, time.UTC)

// Params holds the module parameters resolved for a block evaluation.
type Params struct {
	// MarginFeeActivationTime gates every operation that sets a non-empty
	// margin call fee ratio, whether executed directly or through a proposal.
	MarginFeeActivationTime time.Time
}

func DefaultParams() Params {
	return Params{
		MarginFeeActivationTime: DefaultMarginFeeActivationTime,
	}
}

func (p Params) Validate() error {
	if p.MarginFeeActivationTime.IsZero() {
		return errors.New("margin fee activation time must be set")
	}
	return nil
}
