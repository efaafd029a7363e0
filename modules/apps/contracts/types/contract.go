package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Env describes a single contract execution.
type Env struct {
	// Contract is the address of the executing contract.
	Contract sdk.AccAddress
	// Sender is the account that called the contract.
	Sender sdk.AccAddress
	// Funds were moved from Sender to Contract before the call.
	Funds sdk.Coins
}

// Contract is a native contract hosted by the chain. The message and the
// result are opaque JSON documents.
type Contract interface {
	Execute(ctx sdk.Context, env Env, msg []byte) ([]byte, error)
}

// ContractFunc adapts a function to the Contract interface.
type ContractFunc func(ctx sdk.Context, env Env, msg []byte) ([]byte, error)

// Execute calls f.
func (f ContractFunc) Execute(ctx sdk.Context, env Env, msg []byte) ([]byte, error) {
	return f(ctx, env, msg)
}

// FungiblesKeeper defines the expected token ledger
type FungiblesKeeper interface {
	Transfer(ctx sdk.Context, denom string, from, to sdk.AccAddress, amount sdk.Int) error
}
