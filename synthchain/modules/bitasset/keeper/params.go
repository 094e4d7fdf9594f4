package keeper

import (
	"github.com/synthledger/synthcore/synthchain/modules/bitasset/types"
)

func (k *Keeper) GetParams() types.Params {
	return k.params
}

func (k *Keeper) SetParams(params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	k.params = params
	return nil
}
