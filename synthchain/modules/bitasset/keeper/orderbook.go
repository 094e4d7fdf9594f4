package keeper

import (
	"sort"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/btree"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// limitOrderLess orders a book by price-time priority: the order demanding
// the least per unit sold sorts first, ties broken by creation order.
//
// SellPrice is ForSale per ToReceive, so a larger SellPrice means the seller
// gives away more per unit received and is the better counterparty.
func limitOrderLess(a, b *types.LimitOrder) bool {
	cmp := a.SellPrice().Cmp(b.SellPrice())
	if cmp != 0 {
		return cmp > 0
	}
	return a.ID < b.ID
}

func (k *Keeper) book(sell, receive types.AssetID) *btree.BTreeG[*types.LimitOrder] {
	key := bookKey{sell: sell, receive: receive}
	tree, ok := k.books[key]
	if !ok {
		tree = btree.NewG(defaultTreeDegree, limitOrderLess)
		k.books[key] = tree
	}
	return tree
}

func (k *Keeper) insertLimitOrder(order *types.LimitOrder) {
	k.limitOrders[order.ID] = order
	k.book(order.ForSale.AssetID, order.ToReceive.AssetID).ReplaceOrInsert(order)
}

// removeLimitOrder unlinks the order from the book and the arena. The caller
// settles any refund before calling.
func (k *Keeper) removeLimitOrder(order *types.LimitOrder) {
	k.book(order.ForSale.AssetID, order.ToReceive.AssetID).Delete(order)
	delete(k.limitOrders, order.ID)
}

// reduceLimitOrder shrinks a partially filled order in place. The order must
// be re-keyed through the book since its sort position can move.
func (k *Keeper) reduceLimitOrder(order *types.LimitOrder, newForSale, newToReceive types.AssetAmount) {
	tree := k.book(order.ForSale.AssetID, order.ToReceive.AssetID)
	tree.Delete(order)
	order.ForSale = newForSale
	order.ToReceive = newToReceive
	tree.ReplaceOrInsert(order)
}

// bestSellOrder returns the top unexpired order selling sell for receive, or
// nil when the book side is empty. Expired orders are skipped here and left
// for the end-of-block sweep to refund.
func (k *Keeper) bestSellOrder(ctx sdk.Context, sell, receive types.AssetID) *types.LimitOrder {
	var best *types.LimitOrder
	now := ctx.BlockTime()
	k.book(sell, receive).Ascend(func(order *types.LimitOrder) bool {
		if order.IsExpired(now) {
			return true
		}
		best = order
		return false
	})
	return best
}

// RemoveExpiredLimitOrders refunds and deletes every order whose expiration
// has passed. Orders are swept in ID order for deterministic event emission.
func (k *Keeper) RemoveExpiredLimitOrders(ctx sdk.Context) {
	now := ctx.BlockTime()

	expired := make([]types.OrderID, 0)
	for id, order := range k.limitOrders {
		if order.IsExpired(now) {
			expired = append(expired, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })

	for _, id := range expired {
		order := k.limitOrders[id]
		k.creditBalance(order.Seller, order.ForSale)
		k.removeLimitOrder(order)

		k.emitOrderEvent(ctx, types.EventTypeLimitOrderExpired, order)
		k.logger.WithField("order_id", id).Debugln("expired limit order")
	}
}
