package types

// DONTCOVER

import (
	"cosmossdk.io/errors"
)

// bitasset module sentinel errors
var (
	ErrInvalidPrice           = errors.Register(ModuleName, 2, "invalid price")
	ErrPriceAssetMismatch     = errors.Register(ModuleName, 3, "price refers to a different asset pair")
	ErrArithmeticOverflow     = errors.Register(ModuleName, 4, "arithmetic overflow")
	ErrAssetNotFound          = errors.Register(ModuleName, 5, "asset does not exist")
	ErrAssetExists            = errors.Register(ModuleName, 6, "asset already exists")
	ErrNotBitasset            = errors.Register(ModuleName, 7, "asset is not backed by collateral")
	ErrNoPriceFeed            = errors.Register(ModuleName, 8, "no price feed published for asset")
	ErrInvalidPriceFeed       = errors.Register(ModuleName, 9, "invalid price feed")
	ErrInvalidMarginFeeRatio  = errors.Register(ModuleName, 10, "margin call fee ratio must be less than the maximum short squeeze ratio")
	ErrMarginFeeNotActivated  = errors.Register(ModuleName, 11, "margin call fee ratio cannot be set before the activation time")
	ErrOrderNotFound          = errors.Register(ModuleName, 12, "order does not exist")
	ErrUnauthorized           = errors.Register(ModuleName, 13, "unauthorized account")
	ErrInsufficientBalance    = errors.Register(ModuleName, 14, "insufficient balance")
	ErrInsufficientCollateral = errors.Register(ModuleName, 15, "insufficient collateral for debt position")
	ErrGloballySettled        = errors.Register(ModuleName, 16, "asset is globally settled")
	ErrNotGloballySettled     = errors.Register(ModuleName, 17, "asset is not globally settled")
	ErrInvalidAmount          = errors.Register(ModuleName, 18, "invalid amount")
	ErrInvalidExpiration      = errors.Register(ModuleName, 19, "invalid expiration")
	ErrUnknownOperation       = errors.Register(ModuleName, 20, "unrecognized operation type")
	ErrProposalNotFound       = errors.Register(ModuleName, 21, "proposal does not exist")
	ErrInvalidProposal        = errors.Register(ModuleName, 22, "invalid proposal")
	ErrNegativeMarginCallFee  = errors.Register(ModuleName, 23, "margin call fee is negative")
	ErrInvalidAsset           = errors.Register(ModuleName, 24, "invalid asset definition")
)
