package keeper

import (
	"cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	"github.com/InjectiveLabs/metrics"
	log "github.com/InjectiveLabs/suplog"
	"github.com/google/btree"

	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

const defaultTreeDegree = 8

type bookKey struct {
	sell    types.AssetID
	receive types.AssetID
}

type callKey struct {
	borrower types.AccountID
	asset    types.AssetID
}

// Keeper owns the bitasset ledger arena. Every entity is kept as an owned
// record keyed by a stable identifier; cross-entity relations are resolved by
// identifier lookup, never by embedded pointers, so replay of the same
// operation sequence is deterministic. The keeper has no internal
// parallelism; the surrounding block-application process serializes all
// calls.
type Keeper struct {
	params types.Params

	assets         map[types.AssetID]*types.Asset
	assetsBySymbol map[string]types.AssetID
	bitassets      map[types.AssetID]*types.BitassetData
	dynamicData    map[types.AssetID]*types.DynamicAssetData

	limitOrders map[types.OrderID]*types.LimitOrder
	callOrders  map[types.OrderID]*types.CallOrder
	callsByKey  map[callKey]types.OrderID
	books       map[bookKey]*btree.BTreeG[*types.LimitOrder]

	balances  map[types.AccountID]map[types.AssetID]sdkmath.Int
	proposals map[types.ProposalID]*types.Proposal

	nextAssetID    types.AssetID
	nextOrderID    types.OrderID
	nextProposalID types.ProposalID

	logger  log.Logger
	svcTags metrics.Tags
}

func NewKeeper(params types.Params) *Keeper {
	return &Keeper{
		params:         params,
		assets:         make(map[types.AssetID]*types.Asset),
		assetsBySymbol: make(map[string]types.AssetID),
		bitassets:      make(map[types.AssetID]*types.BitassetData),
		dynamicData:    make(map[types.AssetID]*types.DynamicAssetData),
		limitOrders:    make(map[types.OrderID]*types.LimitOrder),
		callOrders:     make(map[types.OrderID]*types.CallOrder),
		callsByKey:     make(map[callKey]types.OrderID),
		books:          make(map[bookKey]*btree.BTreeG[*types.LimitOrder]),
		balances:       make(map[types.AccountID]map[types.AssetID]sdkmath.Int),
		proposals:      make(map[types.ProposalID]*types.Proposal),
		nextAssetID:    1,
		nextOrderID:    1,
		nextProposalID: 1,
		logger:         log.WithField("module", types.ModuleName),
		svcTags: metrics.Tags{
			"svc": "bitasset_k",
		},
	}
}

func (k *Keeper) GetAsset(assetID types.AssetID) *types.Asset {
	return k.assets[assetID]
}

func (k *Keeper) GetAssetBySymbol(symbol string) *types.Asset {
	id, ok := k.assetsBySymbol[symbol]
	if !ok {
		return nil
	}
	return k.assets[id]
}

func (k *Keeper) GetBitassetData(assetID types.AssetID) *types.BitassetData {
	return k.bitassets[assetID]
}

func (k *Keeper) GetDynamicAssetData(assetID types.AssetID) *types.DynamicAssetData {
	return k.dynamicData[assetID]
}

func (k *Keeper) GetLimitOrder(orderID types.OrderID) *types.LimitOrder {
	return k.limitOrders[orderID]
}

func (k *Keeper) GetCallOrder(orderID types.OrderID) *types.CallOrder {
	return k.callOrders[orderID]
}

// GetCallOrderByBorrower resolves a borrower's debt position in the given
// asset, if any. A borrower holds at most one position per asset.
func (k *Keeper) GetCallOrderByBorrower(borrower types.AccountID, assetID types.AssetID) *types.CallOrder {
	id, ok := k.callsByKey[callKey{borrower: borrower, asset: assetID}]
	if !ok {
		return nil
	}
	return k.callOrders[id]
}

// GetBalance returns the account's balance in the given asset.
func (k *Keeper) GetBalance(account types.AccountID, assetID types.AssetID) sdkmath.Int {
	accountBalances, ok := k.balances[account]
	if !ok {
		return sdkmath.ZeroInt()
	}
	balance, ok := accountBalances[assetID]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return balance
}

func (k *Keeper) creditBalance(account types.AccountID, amount types.AssetAmount) {
	if amount.Amount.IsZero() {
		return
	}
	accountBalances, ok := k.balances[account]
	if !ok {
		accountBalances = make(map[types.AssetID]sdkmath.Int)
		k.balances[account] = accountBalances
	}
	balance, ok := accountBalances[amount.AssetID]
	if !ok {
		balance = sdkmath.ZeroInt()
	}
	accountBalances[amount.AssetID] = balance.Add(amount.Amount)
}

func (k *Keeper) debitBalance(account types.AccountID, amount types.AssetAmount) error {
	balance := k.GetBalance(account, amount.AssetID)
	if balance.LT(amount.Amount) {
		metrics.ReportFuncError(k.svcTags)
		return errors.Wrapf(types.ErrInsufficientBalance,
			"account %s holds %s of asset-%d, needs %s", account, balance, amount.AssetID, amount.Amount)
	}
	k.balances[account][amount.AssetID] = balance.Sub(amount.Amount)
	return nil
}

func (k *Keeper) nextOrderSequence() types.OrderID {
	id := k.nextOrderID
	k.nextOrderID++
	return id
}
