package types

import (
	"time"

	"cosmossdk.io/errors"
)

// bitasset operation types
const (
	TypeMsgCreateBitasset        = "createBitasset"
	TypeMsgUpdateBitassetOptions = "updateBitassetOptions"
	TypeMsgPublishPriceFeed      = "publishPriceFeed"
	TypeMsgCreateLimitOrder      = "createLimitOrder"
	TypeMsgCancelLimitOrder      = "cancelLimitOrder"
	TypeMsgAdjustCallOrder       = "adjustCallOrder"
	TypeMsgForceSettle           = "forceSettle"
	TypeMsgSubmitProposal        = "submitProposal"
)

// Operation is the tagged union over the engine's input operations. Each
// operation pairs stateless validation (ValidateBasic) with a keeper apply
// function; the surrounding transaction layer delivers operations already
// authorized and in fixed per-block order.
type Operation interface {
	ValidateBasic() error
	Type() string
}

var (
	_ Operation = &MsgCreateBitasset{}
	_ Operation = &MsgUpdateBitassetOptions{}
	_ Operation = &MsgPublishPriceFeed{}
	_ Operation = &MsgCreateLimitOrder{}
	_ Operation = &MsgCancelLimitOrder{}
	_ Operation = &MsgAdjustCallOrder{}
	_ Operation = &MsgForceSettle{}
	_ Operation = &MsgSubmitProposal{}
)

// MsgCreateBitasset creates a new debt-backed asset.
type MsgCreateBitasset struct {
	Issuer           AccountID
	Symbol           string
	Precision        uint8
	MarketFeePercent uint16
	Options          BitassetOptions
}

func (msg MsgCreateBitasset) Type() string { return TypeMsgCreateBitasset }

func (msg MsgCreateBitasset) ValidateBasic() error {
	if msg.Issuer == "" {
		return errors.Wrap(ErrUnauthorized, "issuer must be set")
	}
	if err := ValidateSymbol(msg.Symbol); err != nil {
		return err
	}
	if msg.Precision > MaxAssetPrecision {
		return errors.Wrapf(ErrInvalidAsset, "precision %d exceeds maximum %d", msg.Precision, MaxAssetPrecision)
	}
	if msg.MarketFeePercent > MaxMarketFeePercent {
		return errors.Wrapf(ErrInvalidAsset, "market fee percent %d exceeds maximum %d", msg.MarketFeePercent, MaxMarketFeePercent)
	}
	return msg.Options.Validate()
}

// MsgUpdateBitassetOptions replaces the issuer-mutable options of a
// bitasset. Setting a non-nil MarginCallFeeRatio is subject to the
// feature-activation gate, checked statefully at evaluation time.
type MsgUpdateBitassetOptions struct {
	Issuer     AccountID
	AssetID    AssetID
	NewOptions BitassetOptions
}

func (msg MsgUpdateBitassetOptions) Type() string { return TypeMsgUpdateBitassetOptions }

func (msg MsgUpdateBitassetOptions) ValidateBasic() error {
	if msg.Issuer == "" {
		return errors.Wrap(ErrUnauthorized, "issuer must be set")
	}
	return msg.NewOptions.Validate()
}

// SetsMarginCallFeeRatio reports whether the update sets a non-empty margin
// call fee ratio. Clearing an already-unset ratio is always permitted.
func (msg MsgUpdateBitassetOptions) SetsMarginCallFeeRatio() bool {
	return msg.NewOptions.MarginCallFeeRatio != nil
}

// MsgPublishPriceFeed publishes a feed for a bitasset. The engine consumes
// the resolved feed; median aggregation across producers is the concern of
// the surrounding ledger.
type MsgPublishPriceFeed struct {
	Publisher AccountID
	AssetID   AssetID
	Feed      PriceFeed
}

func (msg MsgPublishPriceFeed) Type() string { return TypeMsgPublishPriceFeed }

func (msg MsgPublishPriceFeed) ValidateBasic() error {
	if msg.Publisher == "" {
		return errors.Wrap(ErrUnauthorized, "publisher must be set")
	}
	if err := msg.Feed.SettlementPrice.Validate(); err != nil {
		return err
	}
	if msg.Feed.MaintenanceCollateralRatio < MinCollateralRatio || msg.Feed.MaintenanceCollateralRatio > MaxCollateralRatio {
		return errors.Wrapf(ErrInvalidPriceFeed, "maintenance collateral ratio %d out of range", msg.Feed.MaintenanceCollateralRatio)
	}
	if msg.Feed.MaximumShortSqueezeRatio < MinCollateralRatio || msg.Feed.MaximumShortSqueezeRatio > MaxCollateralRatio {
		return errors.Wrapf(ErrInvalidPriceFeed, "maximum short squeeze ratio %d out of range", msg.Feed.MaximumShortSqueezeRatio)
	}
	return nil
}

// MsgCreateLimitOrder places a resting offer selling AmountToSell for at
// least MinToReceive.
type MsgCreateLimitOrder struct {
	Seller       AccountID
	AmountToSell AssetAmount
	MinToReceive AssetAmount
	Expiration   time.Time
}

func (msg MsgCreateLimitOrder) Type() string { return TypeMsgCreateLimitOrder }

func (msg MsgCreateLimitOrder) ValidateBasic() error {
	if msg.Seller == "" {
		return errors.Wrap(ErrUnauthorized, "seller must be set")
	}
	if err := msg.AmountToSell.Validate(); err != nil {
		return err
	}
	if err := msg.MinToReceive.Validate(); err != nil {
		return err
	}
	if !msg.AmountToSell.Amount.IsPositive() || !msg.MinToReceive.Amount.IsPositive() {
		return errors.Wrap(ErrInvalidAmount, "order amounts must be positive")
	}
	if msg.AmountToSell.AssetID == msg.MinToReceive.AssetID {
		return errors.Wrapf(ErrInvalidPrice, "order must exchange two distinct assets, got asset-%d twice", msg.AmountToSell.AssetID)
	}
	return nil
}

type MsgCancelLimitOrder struct {
	Seller  AccountID
	OrderID OrderID
}

func (msg MsgCancelLimitOrder) Type() string { return TypeMsgCancelLimitOrder }

func (msg MsgCancelLimitOrder) ValidateBasic() error {
	if msg.Seller == "" {
		return errors.Wrap(ErrUnauthorized, "seller must be set")
	}
	if msg.OrderID == 0 {
		return errors.Wrap(ErrOrderNotFound, "order id must be set")
	}
	return nil
}

// MsgAdjustCallOrder opens, adjusts, or closes a debt position against the
// named bitasset. Positive DeltaDebt borrows, negative repays; positive
// DeltaCollateral pledges, negative withdraws.
type MsgAdjustCallOrder struct {
	Borrower        AccountID
	AssetID         AssetID
	DeltaDebt       int64
	DeltaCollateral int64
}

func (msg MsgAdjustCallOrder) Type() string { return TypeMsgAdjustCallOrder }

func (msg MsgAdjustCallOrder) ValidateBasic() error {
	if msg.Borrower == "" {
		return errors.Wrap(ErrUnauthorized, "borrower must be set")
	}
	if msg.DeltaDebt == 0 && msg.DeltaCollateral == 0 {
		return errors.Wrap(ErrInvalidAmount, "adjustment must change debt or collateral")
	}
	return nil
}

// MsgForceSettle redeems Amount of a bitasset's debt units against the
// settlement fund once the asset is globally settled, or against the least
// collateralized debt position at the feed price otherwise.
type MsgForceSettle struct {
	Account AccountID
	Amount  AssetAmount
}

func (msg MsgForceSettle) Type() string { return TypeMsgForceSettle }

func (msg MsgForceSettle) ValidateBasic() error {
	if msg.Account == "" {
		return errors.Wrap(ErrUnauthorized, "account must be set")
	}
	if err := msg.Amount.Validate(); err != nil {
		return err
	}
	if !msg.Amount.Amount.IsPositive() {
		return errors.Wrap(ErrInvalidAmount, "settlement amount must be positive")
	}
	return nil
}

// MsgSubmitProposal wraps operations for deferred execution. Gated
// operations inside the proposal are re-checked against the evaluation-time
// clock both at submission and at execution.
type MsgSubmitProposal struct {
	Proposer   AccountID
	Operations []Operation
	Expiration time.Time
}

func (msg MsgSubmitProposal) Type() string { return TypeMsgSubmitProposal }

func (msg MsgSubmitProposal) ValidateBasic() error {
	if msg.Proposer == "" {
		return errors.Wrap(ErrUnauthorized, "proposer must be set")
	}
	if len(msg.Operations) == 0 {
		return errors.Wrap(ErrInvalidProposal, "proposal must contain at least one operation")
	}
	for _, op := range msg.Operations {
		if _, ok := op.(*MsgSubmitProposal); ok {
			return errors.Wrap(ErrInvalidProposal, "proposals cannot be nested")
		}
		if err := op.ValidateBasic(); err != nil {
			return errors.Wrapf(err, "invalid %s operation in proposal", op.Type())
		}
	}
	return nil
}

// Proposal is a stored, not yet executed MsgSubmitProposal.
type Proposal struct {
	ID         ProposalID
	Proposer   AccountID
	Operations []Operation
	Expiration time.Time
}
