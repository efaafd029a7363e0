package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
)

// FungiblesKeeper defines the expected token ledger
type FungiblesKeeper interface {
	Balance(ctx sdk.Context, denom string, account sdk.AccAddress) sdk.Int
	Transfer(ctx sdk.Context, denom string, from, to sdk.AccAddress, amount sdk.Int) error
}

// TransferKeeper sends the packets of Spawn instructions.
type TransferKeeper interface {
	SendTransfer(
		ctx sdk.Context,
		sourcePort, sourceChannel string,
		denom string, amount sdk.Int,
		sender sdk.AccAddress, receiver string,
		timeoutHeight clienttypes.Height, timeoutTimestamp uint64,
		memo string,
	) (uint64, error)
}

// ContractKeeper executes the contracts targeted by Call instructions.
type ContractKeeper interface {
	Execute(ctx sdk.Context, contract, sender sdk.AccAddress, msg []byte, funds sdk.Coins) ([]byte, error)
}
