package bitasset

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/keeper"
)

// EndBlocker sweeps expired limit orders at the end of every block, refunding
// the unsold remainders. Expired orders are already invisible to matching, so
// the sweep only reclaims their escrow.
func EndBlocker(ctx sdk.Context, k *keeper.Keeper) {
	k.RemoveExpiredLimitOrders(ctx)
}
