package types

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	EventTypeMarginCallFill      = "margin_call_fill"
	EventTypePriceFeedUpdated    = "price_feed_updated"
	EventTypeLimitOrderCreated   = "limit_order_created"
	EventTypeLimitOrderCancelled = "limit_order_cancelled"
	EventTypeLimitOrderExpired   = "limit_order_expired"
	EventTypeCallOrderUpdated    = "call_order_updated"
	EventTypeCallOrderClosed     = "call_order_closed"
	EventTypeGlobalSettlement    = "global_settlement"
	EventTypeForceSettled        = "force_settled"

	AttributeKeyAssetID         = "asset_id"
	AttributeKeyAccount         = "account"
	AttributeKeySeller          = "seller"
	AttributeKeyBorrower        = "borrower"
	AttributeKeyLimitOrderID    = "limit_order_id"
	AttributeKeyCallOrderID     = "call_order_id"
	AttributeKeyFilledDebt      = "filled_debt"
	AttributeKeyOrderReceives   = "order_receives"
	AttributeKeyCallPays        = "call_pays"
	AttributeKeyMarginCallFee   = "margin_call_fee"
	AttributeKeyMatchPrice      = "match_price"
	AttributeKeyCallIsMaker     = "call_is_maker"
	AttributeKeyFeedPrice       = "feed_price"
	AttributeKeySettlementPrice = "settlement_price"
	AttributeKeySettlementFund  = "settlement_fund"
)

// Fill records one matched pair between a margin-called debt position and a
// resting limit order. It is the engine's produced surface for the external
// history and indexing collaborator.
type Fill struct {
	AssetID       AssetID
	CallOrderID   OrderID
	LimitOrderID  OrderID
	Borrower      AccountID
	Seller        AccountID
	FilledDebt    AssetAmount
	OrderReceives AssetAmount
	CallPays      AssetAmount
	MarginCallFee AssetAmount
	MatchPrice    Price

	// CallIsMaker is true when the debt position was already margin-called
	// and resting before the match was triggered by a newly placed order.
	CallIsMaker bool
}

func (f *Fill) ToEvent() sdk.Event {
	return sdk.NewEvent(EventTypeMarginCallFill,
		sdk.NewAttribute(AttributeKeyAssetID, strconv.FormatUint(uint64(f.AssetID), 10)),
		sdk.NewAttribute(AttributeKeyCallOrderID, strconv.FormatUint(uint64(f.CallOrderID), 10)),
		sdk.NewAttribute(AttributeKeyLimitOrderID, strconv.FormatUint(uint64(f.LimitOrderID), 10)),
		sdk.NewAttribute(AttributeKeyBorrower, string(f.Borrower)),
		sdk.NewAttribute(AttributeKeySeller, string(f.Seller)),
		sdk.NewAttribute(AttributeKeyFilledDebt, f.FilledDebt.Amount.String()),
		sdk.NewAttribute(AttributeKeyOrderReceives, f.OrderReceives.Amount.String()),
		sdk.NewAttribute(AttributeKeyCallPays, f.CallPays.Amount.String()),
		sdk.NewAttribute(AttributeKeyMarginCallFee, f.MarginCallFee.Amount.String()),
		sdk.NewAttribute(AttributeKeyMatchPrice, f.MatchPrice.Display()),
		sdk.NewAttribute(AttributeKeyCallIsMaker, strconv.FormatBool(f.CallIsMaker)),
	)
}

func NewPriceFeedUpdatedEvent(assetID AssetID, feed PriceFeed) sdk.Event {
	return sdk.NewEvent(EventTypePriceFeedUpdated,
		sdk.NewAttribute(AttributeKeyAssetID, strconv.FormatUint(uint64(assetID), 10)),
		sdk.NewAttribute(AttributeKeyFeedPrice, feed.SettlementPrice.Display()),
	)
}

func NewGlobalSettlementEvent(assetID AssetID, settlementPrice Price, fund AssetAmount) sdk.Event {
	return sdk.NewEvent(EventTypeGlobalSettlement,
		sdk.NewAttribute(AttributeKeyAssetID, strconv.FormatUint(uint64(assetID), 10)),
		sdk.NewAttribute(AttributeKeySettlementPrice, settlementPrice.Display()),
		sdk.NewAttribute(AttributeKeySettlementFund, fund.Amount.String()),
	)
}
