package keeper

import (
	"fmt"

	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/apps/fungibles/types"
)

// Keeper is a store-backed ledger of fungible balances keyed by denom.
type Keeper struct {
	storeKey sdk.StoreKey
}

// NewKeeper creates a new fungibles Keeper instance
func NewKeeper(key sdk.StoreKey) Keeper {
	return Keeper{storeKey: key}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// Balance returns the amount of denom held by account. Unknown accounts hold zero.
func (k Keeper) Balance(ctx sdk.Context, denom string, account sdk.AccAddress) sdk.Int {
	bz := ctx.KVStore(k.storeKey).Get(types.BalanceKey(denom, account))
	return unmarshalAmount(bz)
}

// TotalSupply returns the amount of denom in circulation.
func (k Keeper) TotalSupply(ctx sdk.Context, denom string) sdk.Int {
	bz := ctx.KVStore(k.storeKey).Get(types.SupplyKey(denom))
	return unmarshalAmount(bz)
}

// Transfer moves amount of denom from one account to another.
func (k Keeper) Transfer(ctx sdk.Context, denom string, from, to sdk.AccAddress, amount sdk.Int) error {
	if err := validate(denom, amount); err != nil {
		return err
	}
	if to.Empty() {
		return sdkerrors.Wrap(types.ErrInvalidAccount, "recipient cannot be empty")
	}
	if err := k.subBalance(ctx, denom, from, amount); err != nil {
		return err
	}
	k.addBalance(ctx, denom, to, amount)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeTransfer,
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeySender, from.String()),
			sdk.NewAttribute(types.AttributeKeyRecipient, to.String()),
		),
	)
	return nil
}

// MintInto creates amount of denom in the account.
func (k Keeper) MintInto(ctx sdk.Context, denom string, to sdk.AccAddress, amount sdk.Int) error {
	if err := validate(denom, amount); err != nil {
		return err
	}
	if to.Empty() {
		return sdkerrors.Wrap(types.ErrInvalidAccount, "recipient cannot be empty")
	}
	k.addBalance(ctx, denom, to, amount)
	k.setSupply(ctx, denom, k.TotalSupply(ctx, denom).Add(amount))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeMint,
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyAccount, to.String()),
		),
	)
	return nil
}

// BurnFrom destroys amount of denom held by the account.
func (k Keeper) BurnFrom(ctx sdk.Context, denom string, from sdk.AccAddress, amount sdk.Int) error {
	if err := validate(denom, amount); err != nil {
		return err
	}
	if err := k.subBalance(ctx, denom, from, amount); err != nil {
		return err
	}
	k.setSupply(ctx, denom, k.TotalSupply(ctx, denom).Sub(amount))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeBurn,
			sdk.NewAttribute(types.AttributeKeyDenom, denom),
			sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
			sdk.NewAttribute(types.AttributeKeyAccount, from.String()),
		),
	)
	return nil
}

// IterateDenomBalances iterates over the non-zero balances of denom.
// Iteration stops when cb returns true.
func (k Keeper) IterateDenomBalances(ctx sdk.Context, denom string, cb func(account sdk.AccAddress, amount sdk.Int) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.DenomBalancesPrefix(denom))
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		account := sdk.AccAddress(append([]byte{}, iterator.Key()...))
		if cb(account, unmarshalAmount(iterator.Value())) {
			break
		}
	}
}

func (k Keeper) addBalance(ctx sdk.Context, denom string, account sdk.AccAddress, amount sdk.Int) {
	k.setBalance(ctx, denom, account, k.Balance(ctx, denom, account).Add(amount))
}

func (k Keeper) subBalance(ctx sdk.Context, denom string, account sdk.AccAddress, amount sdk.Int) error {
	balance := k.Balance(ctx, denom, account)
	if balance.LT(amount) {
		return sdkerrors.Wrapf(types.ErrInsufficientFunds, "%s%s is smaller than %s%s", balance, denom, amount, denom)
	}
	k.setBalance(ctx, denom, account, balance.Sub(amount))
	return nil
}

func (k Keeper) setBalance(ctx sdk.Context, denom string, account sdk.AccAddress, amount sdk.Int) {
	store := ctx.KVStore(k.storeKey)
	key := types.BalanceKey(denom, account)
	if amount.IsZero() {
		store.Delete(key)
		return
	}
	store.Set(key, mustMarshalAmount(amount))
}

func (k Keeper) setSupply(ctx sdk.Context, denom string, amount sdk.Int) {
	store := ctx.KVStore(k.storeKey)
	if amount.IsZero() {
		store.Delete(types.SupplyKey(denom))
		return
	}
	store.Set(types.SupplyKey(denom), mustMarshalAmount(amount))
}

func validate(denom string, amount sdk.Int) error {
	if err := types.ValidateDenom(denom); err != nil {
		return err
	}
	return types.ValidateAmount(amount)
}

func mustMarshalAmount(amount sdk.Int) []byte {
	bz, err := amount.Marshal()
	if err != nil {
		panic(err)
	}
	return bz
}

func unmarshalAmount(bz []byte) sdk.Int {
	if len(bz) == 0 {
		return sdk.ZeroInt()
	}
	var amount sdk.Int
	if err := amount.Unmarshal(bz); err != nil {
		panic(err)
	}
	return amount
}
