package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
)

// InitGenesis initializes the CVM state from a provided genesis state.
func (k Keeper) InitGenesis(ctx sdk.Context, state types.GenesisState) {
	if err := state.Validate(); err != nil {
		panic(err)
	}
	k.SetParams(ctx, state.Params)

	for _, network := range state.Networks {
		if err := k.RegisterNetwork(ctx, network.ID, network.Info); err != nil {
			panic(err)
		}
	}
	for _, asset := range state.Assets {
		if err := k.RegisterAsset(ctx, asset); err != nil {
			panic(err)
		}
	}
	for _, interpreter := range state.Interpreters {
		address, err := sdk.AccAddressFromBech32(interpreter.Address)
		if err != nil {
			panic(err)
		}
		k.setInterpreter(ctx, interpreter.Origin, address)
	}
	for _, record := range state.Spawns {
		k.SetSpawn(ctx, record)
	}
}

// ExportGenesis exports the CVM state.
func (k Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	state := &types.GenesisState{Params: k.GetParams(ctx)}
	k.IterateNetworks(ctx, func(network types.Network) bool {
		state.Networks = append(state.Networks, network)
		return false
	})
	k.IterateAssets(ctx, func(asset types.AssetInfo) bool {
		state.Assets = append(state.Assets, asset)
		return false
	})
	k.IterateInterpreters(ctx, func(interpreter types.Interpreter) bool {
		state.Interpreters = append(state.Interpreters, interpreter)
		return false
	})
	k.IterateSpawns(ctx, func(record types.SpawnRecord) bool {
		state.Spawns = append(state.Spawns, record)
		return false
	})
	return state
}
