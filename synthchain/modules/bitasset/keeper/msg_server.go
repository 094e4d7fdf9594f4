package keeper

import (
	"cosmossdk.io/errors"
	"github.com/InjectiveLabs/metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// HandleOperation validates and applies a single operation against the
// ledger. It is the single entry point for both directly submitted operations
// and operations replayed out of an executed proposal. The returned ID is the
// identifier of whatever entity the operation created, zero when the
// operation creates nothing.
func (k *Keeper) HandleOperation(ctx sdk.Context, op types.Operation) (uint64, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	if err := op.ValidateBasic(); err != nil {
		metrics.ReportFuncError(k.svcTags)
		return 0, err
	}

	switch msg := op.(type) {
	case *types.MsgCreateBitasset:
		id, err := k.CreateBitasset(ctx, msg)
		return uint64(id), err
	case *types.MsgUpdateBitassetOptions:
		return 0, k.UpdateBitassetOptions(ctx, msg)
	case *types.MsgPublishPriceFeed:
		return 0, k.PublishPriceFeed(ctx, msg)
	case *types.MsgCreateLimitOrder:
		id, err := k.CreateLimitOrder(ctx, msg)
		return uint64(id), err
	case *types.MsgCancelLimitOrder:
		return 0, k.CancelLimitOrder(ctx, msg)
	case *types.MsgAdjustCallOrder:
		id, err := k.AdjustCallOrder(ctx, msg)
		return uint64(id), err
	case *types.MsgForceSettle:
		_, err := k.ForceSettle(ctx, msg)
		return 0, err
	case *types.MsgSubmitProposal:
		id, err := k.SubmitProposal(ctx, msg)
		return uint64(id), err
	default:
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrUnknownOperation, "%T", op)
	}
}
