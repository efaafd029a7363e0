package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Interpreter is an instantiated interpreter and the origin owning it.
type Interpreter struct {
	Origin  InterpreterOrigin `json:"origin" yaml:"origin"`
	Address string            `json:"address" yaml:"address"`
}

// GenesisState defines the CVM genesis state
type GenesisState struct {
	Params       Params        `json:"params" yaml:"params"`
	Networks     []Network     `json:"networks" yaml:"networks"`
	Assets       []AssetInfo   `json:"assets" yaml:"assets"`
	Interpreters []Interpreter `json:"interpreters" yaml:"interpreters"`
	Spawns       []SpawnRecord `json:"spawns" yaml:"spawns"`
}

// DefaultGenesisState returns empty registries with the default parameters.
func DefaultGenesisState() *GenesisState {
	return &GenesisState{Params: DefaultParams()}
}

// Validate checks the registries are well formed and one to one.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}

	networks := make(map[NetworkID]bool)
	channels := make(map[string]bool)
	for _, network := range gs.Networks {
		if err := network.Info.Validate(); err != nil {
			return err
		}
		if networks[network.ID] || channels[network.Info.ChannelID] || network.ID == gs.Params.Network {
			return sdkerrors.Wrapf(ErrNetworkExists, "network %d on %s", network.ID, network.Info.ChannelID)
		}
		networks[network.ID] = true
		channels[network.Info.ChannelID] = true
	}

	ids := make(map[AssetID]bool)
	denoms := make(map[string]bool)
	for _, asset := range gs.Assets {
		if err := asset.Validate(); err != nil {
			return err
		}
		if ids[asset.ID] || denoms[asset.Denom] {
			return sdkerrors.Wrap(ErrAssetExists, asset.String())
		}
		ids[asset.ID] = true
		denoms[asset.Denom] = true
	}

	for _, interpreter := range gs.Interpreters {
		if _, err := sdk.AccAddressFromBech32(interpreter.Address); err != nil {
			return err
		}
	}
	return nil
}
