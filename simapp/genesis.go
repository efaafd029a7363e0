package simapp

import (
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	cvmtypes "github.com/ComposableFi/centauri/modules/apps/cvm/types"
	ratelimittypes "github.com/ComposableFi/centauri/modules/apps/rate-limiting/types"
	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
)

// Balance is an amount of native tokens minted at genesis.
type Balance struct {
	Address string    `json:"address" yaml:"address"`
	Coins   sdk.Coins `json:"coins" yaml:"coins"`
}

// GenesisState is the initial state of every module of the app.
type GenesisState struct {
	Client    clienttypes.Params          `json:"client" yaml:"client"`
	Balances  []Balance                   `json:"balances" yaml:"balances"`
	Transfer  transfertypes.GenesisState  `json:"transfer" yaml:"transfer"`
	RateLimit ratelimittypes.GenesisState `json:"rate_limit" yaml:"rate_limit"`
	CVM       cvmtypes.GenesisState       `json:"cvm" yaml:"cvm"`
}

// NewDefaultGenesisState generates the default state for the application.
func NewDefaultGenesisState() GenesisState {
	return GenesisState{
		Client:    clienttypes.DefaultParams(),
		Transfer:  *transfertypes.DefaultGenesisState(),
		RateLimit: *ratelimittypes.DefaultGenesisState(),
		CVM:       *cvmtypes.DefaultGenesisState(),
	}
}

// Validate performs basic genesis state validation of every module.
func (gs GenesisState) Validate() error {
	if err := gs.Client.Validate(); err != nil {
		return sdkerrors.Wrap(err, "client params")
	}
	for _, balance := range gs.Balances {
		if _, err := sdk.AccAddressFromBech32(balance.Address); err != nil {
			return sdkerrors.Wrapf(sdkerrors.ErrInvalidAddress, "genesis balance %s: %v", balance.Address, err)
		}
		if err := balance.Coins.Validate(); err != nil {
			return sdkerrors.Wrapf(err, "genesis balance %s", balance.Address)
		}
	}
	if err := gs.Transfer.Validate(); err != nil {
		return sdkerrors.Wrap(err, "transfer genesis")
	}
	if err := gs.RateLimit.Validate(); err != nil {
		return sdkerrors.Wrap(err, "rate limiting genesis")
	}
	return sdkerrors.Wrap(gs.CVM.Validate(), "cvm genesis")
}

// MustMarshalJSON encodes the genesis state as indented JSON.
func (gs GenesisState) MustMarshalJSON() []byte {
	bz, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		panic(err)
	}
	return bz
}
