package types

import (
	"fmt"
	"math/big"

	"cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

// AssetAmount is a quantity of a concrete asset, expressed in the asset's
// smallest indivisible units.
type AssetAmount struct {
	AssetID AssetID
	Amount  sdkmath.Int
}

func NewAssetAmount(assetID AssetID, amount int64) AssetAmount {
	return AssetAmount{AssetID: assetID, Amount: sdkmath.NewInt(amount)}
}

func (a AssetAmount) String() string {
	if a.Amount.IsNil() {
		return fmt.Sprintf("nil[asset-%d]", a.AssetID)
	}
	return fmt.Sprintf("%s[asset-%d]", a.Amount, a.AssetID)
}

func (a AssetAmount) IsNil() bool {
	return a.Amount.IsNil()
}

func (a AssetAmount) Validate() error {
	if a.Amount.IsNil() {
		return errors.Wrap(ErrInvalidAmount, "amount is nil")
	}
	if a.Amount.IsNegative() {
		return errors.Wrapf(ErrInvalidAmount, "amount %s is negative", a.Amount)
	}
	if a.Amount.GT(sdkmath.NewInt(MaxShareSupply)) {
		return errors.Wrapf(ErrInvalidAmount, "amount %s exceeds the maximum share supply", a.Amount)
	}
	return nil
}

// Add returns a + b. Mixing assets is an engine invariant violation.
func (a AssetAmount) Add(b AssetAmount) AssetAmount {
	if a.AssetID != b.AssetID {
		panic(errors.Wrapf(ErrPriceAssetMismatch, "cannot add %s to %s", b, a))
	}
	return AssetAmount{AssetID: a.AssetID, Amount: a.Amount.Add(b.Amount)}
}

// Sub returns a - b. Mixing assets is an engine invariant violation.
func (a AssetAmount) Sub(b AssetAmount) AssetAmount {
	if a.AssetID != b.AssetID {
		panic(errors.Wrapf(ErrPriceAssetMismatch, "cannot subtract %s from %s", b, a))
	}
	return AssetAmount{AssetID: a.AssetID, Amount: a.Amount.Sub(b.Amount)}
}

// Price is an exact rational exchange rate between two assets, read as
// Base per Quote. All engine arithmetic stays on integers; no floating point
// representation of a Price exists anywhere in consensus state.
type Price struct {
	Base  AssetAmount
	Quote AssetAmount
}

func NewPrice(base, quote AssetAmount) Price {
	return Price{Base: base, Quote: quote}
}

func (p Price) String() string {
	return fmt.Sprintf("%s / %s", p.Base, p.Quote)
}

// Display renders the price as a decimal string for logs and event
// attributes. Never use the result in consensus-relevant computation.
func (p Price) Display() string {
	if p.IsNil() || p.Quote.Amount.IsZero() {
		return "0"
	}
	base := decimal.NewFromBigInt(p.Base.Amount.BigInt(), 0)
	quote := decimal.NewFromBigInt(p.Quote.Amount.BigInt(), 0)
	return base.DivRound(quote, 10).String()
}

// IsNil reports whether the price is the zero value, used for "no feed" and
// "no settlement" markers.
func (p Price) IsNil() bool {
	return p.Base.Amount.IsNil() || p.Quote.Amount.IsNil()
}

func (p Price) Validate() error {
	if p.IsNil() {
		return errors.Wrap(ErrInvalidPrice, "price is nil")
	}
	if p.Base.AssetID == p.Quote.AssetID {
		return errors.Wrapf(ErrInvalidPrice, "price must reference two distinct assets, got asset-%d twice", p.Base.AssetID)
	}
	if !p.Base.Amount.IsPositive() || !p.Quote.Amount.IsPositive() {
		return errors.Wrapf(ErrInvalidPrice, "price amounts must be positive: %s", p)
	}
	return nil
}

// Invert swaps base and quote. A price with a zero side cannot be inverted.
func (p Price) Invert() (Price, error) {
	if err := p.Validate(); err != nil {
		return Price{}, err
	}
	return Price{Base: p.Quote, Quote: p.Base}, nil
}

// MulRatio scales the price by the exact integer ratio num/den and reduces
// the result to lowest terms, so repeated scaling cannot drift into overflow.
func (p Price) MulRatio(num, den int64) (Price, error) {
	if err := p.Validate(); err != nil {
		return Price{}, err
	}
	if num <= 0 || den <= 0 {
		return Price{}, errors.Wrapf(ErrInvalidPrice, "ratio %d/%d must be positive", num, den)
	}

	base := new(big.Int).Mul(p.Base.Amount.BigInt(), big.NewInt(num))
	quote := new(big.Int).Mul(p.Quote.Amount.BigInt(), big.NewInt(den))

	gcd := new(big.Int).GCD(nil, nil, base, quote)
	base.Quo(base, gcd)
	quote.Quo(quote, gcd)

	maxSupply := big.NewInt(MaxShareSupply)
	if base.Cmp(maxSupply) > 0 || quote.Cmp(maxSupply) > 0 {
		return Price{}, errors.Wrapf(ErrArithmeticOverflow, "price %s scaled by %d/%d does not fit", p, num, den)
	}

	return Price{
		Base:  AssetAmount{AssetID: p.Base.AssetID, Amount: sdkmath.NewIntFromBigInt(base)},
		Quote: AssetAmount{AssetID: p.Quote.AssetID, Amount: sdkmath.NewIntFromBigInt(quote)},
	}, nil
}

// Cmp compares two prices over the same asset pair by exact
// cross-multiplication. Comparing prices of different pairs is an engine
// invariant violation.
func (p Price) Cmp(o Price) int {
	if p.Base.AssetID != o.Base.AssetID || p.Quote.AssetID != o.Quote.AssetID {
		panic(errors.Wrapf(ErrPriceAssetMismatch, "cannot compare %s with %s", p, o))
	}
	lhs := p.Base.Amount.Mul(o.Quote.Amount)
	rhs := o.Base.Amount.Mul(p.Quote.Amount)
	switch {
	case lhs.LT(rhs):
		return -1
	case lhs.GT(rhs):
		return 1
	default:
		return 0
	}
}

func (p Price) LT(o Price) bool  { return p.Cmp(o) < 0 }
func (p Price) LTE(o Price) bool { return p.Cmp(o) <= 0 }
func (p Price) GT(o Price) bool  { return p.Cmp(o) > 0 }
func (p Price) GTE(o Price) bool { return p.Cmp(o) >= 0 }
func (p Price) EQ(o Price) bool  { return p.Cmp(o) == 0 }

// MulPriceRoundDown converts the amount into the price's other asset,
// rounding down. Used wherever the ledger computes what a party receives as
// change or remainder.
func (a AssetAmount) MulPriceRoundDown(p Price) (AssetAmount, error) {
	return a.mulPrice(p, false)
}

// MulPriceRoundUp converts the amount into the price's other asset, rounding
// up. Used wherever the ledger computes what a party must pay.
func (a AssetAmount) MulPriceRoundUp(p Price) (AssetAmount, error) {
	return a.mulPrice(p, true)
}

func (a AssetAmount) mulPrice(p Price, roundUp bool) (AssetAmount, error) {
	if err := a.Validate(); err != nil {
		return AssetAmount{}, err
	}
	if err := p.Validate(); err != nil {
		return AssetAmount{}, err
	}

	var num, den sdkmath.Int
	var outAsset AssetID
	switch a.AssetID {
	case p.Base.AssetID:
		num, den, outAsset = p.Quote.Amount, p.Base.Amount, p.Quote.AssetID
	case p.Quote.AssetID:
		num, den, outAsset = p.Base.Amount, p.Quote.Amount, p.Base.AssetID
	default:
		return AssetAmount{}, errors.Wrapf(ErrPriceAssetMismatch, "amount %s cannot be priced by %s", a, p)
	}

	product := a.Amount.Mul(num)
	result := product.Quo(den)
	if roundUp && !product.Mod(den).IsZero() {
		result = result.AddRaw(1)
	}

	if result.GT(sdkmath.NewInt(MaxShareSupply)) {
		return AssetAmount{}, errors.Wrapf(ErrArithmeticOverflow, "%s at price %s exceeds the maximum share supply", a, p)
	}

	return AssetAmount{AssetID: outAsset, Amount: result}, nil
}
