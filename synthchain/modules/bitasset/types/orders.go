package types

import (
	"time"
)

// LimitOrder is a resting offer to exchange ForSale for at least ToReceive.
// Partial fills reduce both legs proportionally so the order's limit price is
// preserved for the remainder.
type LimitOrder struct {
	ID         OrderID
	Seller     AccountID
	ForSale    AssetAmount
	ToReceive  AssetAmount
	Expiration time.Time
}

// SellPrice is the order's limit price, ForSale (base) per ToReceive (quote).
func (o LimitOrder) SellPrice() Price {
	return NewPrice(o.ForSale, o.ToReceive)
}

// IsExpired reports whether the order has passed its expiration. A zero
// expiration never expires.
func (o LimitOrder) IsExpired(now time.Time) bool {
	return !o.Expiration.IsZero() && !now.Before(o.Expiration)
}

// CallOrder is an open debt position: Collateral pledged against borrowed
// Debt. It is mutated on every partial fill and destroyed when the debt
// reaches zero.
type CallOrder struct {
	ID         OrderID
	Borrower   AccountID
	Collateral AssetAmount
	Debt       AssetAmount
}

// Collateralization returns collateral per debt as an exact price, with
// collateral as base and debt as quote. The amounts are intentionally left
// unreduced.
func (c CallOrder) Collateralization() Price {
	return NewPrice(c.Collateral, c.Debt)
}

// IsMarginCalled reports whether the position sits below the maintenance
// collateralization threshold. This is a derived predicate, never stored.
func (c CallOrder) IsMarginCalled(maintenanceCollateralization Price) bool {
	return c.Collateralization().LT(maintenanceCollateralization)
}
