package keeper

import (
	"encoding/json"
	"fmt"
	"sort"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/apps/contracts/types"
)

// Keeper dispatches executions to the native contracts registered at app
// construction. Contracts are code, not state: the set is fixed once the app
// is wired.
type Keeper struct {
	fungiblesKeeper types.FungiblesKeeper
	contracts       map[string]types.Contract
	sealed          bool
}

// NewKeeper creates a new contract host Keeper instance
func NewKeeper(fungiblesKeeper types.FungiblesKeeper) *Keeper {
	return &Keeper{
		fungiblesKeeper: fungiblesKeeper,
		contracts:       make(map[string]types.Contract),
	}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// RegisterContract makes contract executable at address. It panics if the
// keeper is sealed or the address is taken.
func (k *Keeper) RegisterContract(address sdk.AccAddress, contract types.Contract) {
	if k.sealed {
		panic("cannot register contracts on a sealed contract host")
	}
	if _, ok := k.contracts[address.String()]; ok {
		panic(sdkerrors.Wrap(types.ErrDuplicateContract, address.String()))
	}
	k.contracts[address.String()] = contract
}

// Seal prevents further contract registrations.
func (k *Keeper) Seal() {
	k.sealed = true
}

// HasContract reports whether a contract is registered at address.
func (k Keeper) HasContract(address sdk.AccAddress) bool {
	_, ok := k.contracts[address.String()]
	return ok
}

// Contracts returns the registered contract addresses in order.
func (k Keeper) Contracts() []string {
	addresses := make([]string, 0, len(k.contracts))
	for address := range k.contracts {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)
	return addresses
}

// Execute moves funds from sender to contract and executes msg on the
// contract. Contract failures are wrapped in ErrCallFailed. Callers are
// expected to run Execute in a cache context when the transfer of funds must
// be undone on failure.
func (k Keeper) Execute(ctx sdk.Context, contract, sender sdk.AccAddress, msg []byte, funds sdk.Coins) ([]byte, error) {
	target, ok := k.contracts[contract.String()]
	if !ok {
		return nil, sdkerrors.Wrap(types.ErrContractNotFound, contract.String())
	}
	if !json.Valid(msg) {
		return nil, sdkerrors.Wrap(types.ErrInvalidContractMsg, "message must be JSON")
	}
	if err := funds.Validate(); err != nil {
		return nil, sdkerrors.Wrap(types.ErrInvalidFunds, err.Error())
	}

	for _, coin := range funds {
		if err := k.fungiblesKeeper.Transfer(ctx, coin.Denom, sender, contract, coin.Amount); err != nil {
			return nil, err
		}
	}

	result, err := target.Execute(ctx, types.Env{Contract: contract, Sender: sender, Funds: funds}, msg)
	if err != nil {
		return nil, sdkerrors.Wrap(types.ErrCallFailed, err.Error())
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeExecute,
			sdk.NewAttribute(types.AttributeKeyContract, contract.String()),
			sdk.NewAttribute(types.AttributeKeySender, sender.String()),
			sdk.NewAttribute(types.AttributeKeyFunds, funds.String()),
		),
	)

	k.Logger(ctx).Debug("contract executed", "contract", contract.String(), "sender", sender.String())
	return result, nil
}
