package types

const (
	// ModuleName defines the module name
	ModuleName = "bitasset"

	// StoreKey is the string store representation
	StoreKey = ModuleName

	// RouterKey is the msg router key for the bitasset module
	RouterKey = ModuleName
)

// AssetID identifies an asset record in the ledger arena.
type AssetID uint64

// AccountID identifies an account. Account existence and authorization are
// the responsibility of the surrounding transaction layer.
type AccountID string

// OrderID identifies a limit order or a call order. IDs are assigned from a
// single monotonically increasing sequence, so a smaller ID always means the
// order was created earlier.
type OrderID uint64

// ProposalID identifies a deferred-authorization proposal.
type ProposalID uint64
