package keeper

import (
	"cosmossdk.io/errors"
	"github.com/InjectiveLabs/metrics"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

// SubmitProposal stores operations for deferred execution. Gated operations
// are checked against the submission-time clock here and re-checked against
// the execution-time clock in ExecuteProposal, so wrapping an operation in a
// proposal can never smuggle it past the activation gate.
func (k *Keeper) SubmitProposal(ctx sdk.Context, msg *types.MsgSubmitProposal) (types.ProposalID, error) {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	if msg.Expiration.IsZero() || !ctx.BlockTime().Before(msg.Expiration) {
		metrics.ReportFuncError(k.svcTags)
		return 0, errors.Wrapf(types.ErrInvalidExpiration, "proposal expiration %s is not in the future", msg.Expiration.UTC())
	}
	if err := k.validateGatedOperations(ctx, msg.Operations); err != nil {
		return 0, err
	}

	id := k.nextProposalID
	k.nextProposalID++
	k.proposals[id] = &types.Proposal{
		ID:         id,
		Proposer:   msg.Proposer,
		Operations: msg.Operations,
		Expiration: msg.Expiration,
	}

	k.logger.WithField("proposal_id", id).Debugln("proposal submitted")
	return id, nil
}

// ExecuteProposal applies a stored proposal's operations in order. The first
// failing operation aborts execution; the surrounding transaction layer is
// responsible for discarding partial state on abort, as with any failed
// operation batch.
func (k *Keeper) ExecuteProposal(ctx sdk.Context, proposalID types.ProposalID) error {
	metrics.ReportFuncCall(k.svcTags)
	doneFn := metrics.ReportFuncTiming(k.svcTags)
	defer doneFn()

	proposal := k.proposals[proposalID]
	if proposal == nil {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrProposalNotFound, "proposal %d", proposalID)
	}
	if !ctx.BlockTime().Before(proposal.Expiration) {
		delete(k.proposals, proposalID)
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrInvalidProposal, "proposal %d expired at %s", proposalID, proposal.Expiration.UTC())
	}
	if err := k.validateGatedOperations(ctx, proposal.Operations); err != nil {
		return err
	}

	delete(k.proposals, proposalID)
	for _, op := range proposal.Operations {
		if _, err := k.HandleOperation(ctx, op); err != nil {
			return errors.Wrapf(err, "executing %s operation of proposal %d", op.Type(), proposalID)
		}
	}
	return nil
}

// GetProposal returns the stored proposal, or nil.
func (k *Keeper) GetProposal(proposalID types.ProposalID) *types.Proposal {
	return k.proposals[proposalID]
}

// validateGatedOperations applies the activation gate to every operation that
// would set a margin call fee ratio, against the current block time. Clearing
// the ratio is never gated.
func (k *Keeper) validateGatedOperations(ctx sdk.Context, ops []types.Operation) error {
	for _, op := range ops {
		switch msg := op.(type) {
		case *types.MsgCreateBitasset:
			if msg.Options.MarginCallFeeRatio != nil {
				if err := k.ensureMarginFeeActivated(ctx); err != nil {
					return errors.Wrapf(err, "%s operation", msg.Type())
				}
			}
		case *types.MsgUpdateBitassetOptions:
			if msg.SetsMarginCallFeeRatio() {
				if err := k.ensureMarginFeeActivated(ctx); err != nil {
					return errors.Wrapf(err, "%s operation", msg.Type())
				}
			}
		}
	}
	return nil
}
