package keeper

import (
	"encoding/json"
	"fmt"

	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
)

// Keeper is the CVM gateway: it owns the network and asset registries, the
// interpreter instances and the records of spawned packets.
type Keeper struct {
	storeKey sdk.StoreKey

	fungiblesKeeper types.FungiblesKeeper
	transferKeeper  types.TransferKeeper
	contractKeeper  types.ContractKeeper
}

// NewKeeper creates a new CVM Keeper instance
func NewKeeper(
	key sdk.StoreKey,
	fungiblesKeeper types.FungiblesKeeper,
	transferKeeper types.TransferKeeper,
	contractKeeper types.ContractKeeper,
) *Keeper {
	return &Keeper{
		storeKey:        key,
		fungiblesKeeper: fungiblesKeeper,
		transferKeeper:  transferKeeper,
		contractKeeper:  contractKeeper,
	}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// GetParams returns the gateway parameters.
func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	var params types.Params
	k.mustGet(ctx, types.ParamsKey, &params)
	return params
}

// SetParams sets the gateway parameters.
func (k Keeper) SetParams(ctx sdk.Context, params types.Params) {
	k.mustSet(ctx, types.ParamsKey, params)
}

// SetPaused pauses or resumes program execution.
func (k Keeper) SetPaused(ctx sdk.Context, paused bool) {
	params := k.GetParams(ctx)
	params.Paused = paused
	k.SetParams(ctx, params)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeGatewayPaused,
			sdk.NewAttribute(types.AttributeKeyPaused, fmt.Sprintf("%t", paused)),
		),
	)
}

// IsAdmin reports whether account is the configured admin.
func (k Keeper) IsAdmin(ctx sdk.Context, account sdk.AccAddress) bool {
	admin := k.GetParams(ctx).Admin
	return admin != "" && admin == account.String()
}

// RegisterNetwork adds a network reachable over info.ChannelID. Neither the
// network nor the channel may already be registered.
func (k Keeper) RegisterNetwork(ctx sdk.Context, network types.NetworkID, info types.NetworkInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if network == 0 || network == k.GetParams(ctx).Network {
		return sdkerrors.Wrapf(types.ErrInvalidParams, "cannot register network %d", network)
	}
	store := ctx.KVStore(k.storeKey)
	if store.Has(types.NetworkKey(network)) {
		return sdkerrors.Wrapf(types.ErrNetworkExists, "network %d", network)
	}
	if store.Has(types.ChannelNetworkKey(info.ChannelID)) {
		return sdkerrors.Wrapf(types.ErrNetworkExists, "channel %s", info.ChannelID)
	}

	k.mustSet(ctx, types.NetworkKey(network), info)
	store.Set(types.ChannelNetworkKey(info.ChannelID), sdk.Uint64ToBigEndian(uint64(network)))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeNetworkRegistered,
			sdk.NewAttribute(types.AttributeKeyNetwork, fmt.Sprintf("%d", network)),
			sdk.NewAttribute(types.AttributeKeyChannel, info.ChannelID),
		),
	)
	return nil
}

// GetNetwork returns the registered network.
func (k Keeper) GetNetwork(ctx sdk.Context, network types.NetworkID) (types.NetworkInfo, bool) {
	var info types.NetworkInfo
	return info, k.get(ctx, types.NetworkKey(network), &info)
}

// GetChannelNetwork returns the network reached over channelID.
func (k Keeper) GetChannelNetwork(ctx sdk.Context, channelID string) (types.NetworkID, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.ChannelNetworkKey(channelID))
	if bz == nil {
		return 0, false
	}
	return types.NetworkID(sdk.BigEndianToUint64(bz)), true
}

// IterateNetworks iterates over the registered networks.
func (k Keeper) IterateNetworks(ctx sdk.Context, cb func(network types.Network) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.NetworkPrefix)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		network := types.Network{ID: types.NetworkID(sdk.BigEndianToUint64(iterator.Key()))}
		if err := json.Unmarshal(iterator.Value(), &network.Info); err != nil {
			panic(err)
		}
		if cb(network) {
			break
		}
	}
}

// RegisterAsset maps an asset identifier to a local denom. Both sides of the
// mapping must be unused.
func (k Keeper) RegisterAsset(ctx sdk.Context, asset types.AssetInfo) error {
	if err := asset.Validate(); err != nil {
		return err
	}
	store := ctx.KVStore(k.storeKey)
	if store.Has(types.AssetKey(asset.ID)) || store.Has(types.DenomAssetKey(asset.Denom)) {
		return sdkerrors.Wrap(types.ErrAssetExists, asset.String())
	}

	k.mustSet(ctx, types.AssetKey(asset.ID), asset)
	store.Set(types.DenomAssetKey(asset.Denom), sdk.Uint64ToBigEndian(uint64(asset.ID)))

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeAssetRegistered,
			sdk.NewAttribute(types.AttributeKeyAsset, fmt.Sprintf("%d", asset.ID)),
			sdk.NewAttribute(types.AttributeKeyDenom, asset.Denom),
		),
	)
	return nil
}

// GetAsset returns the registered asset.
func (k Keeper) GetAsset(ctx sdk.Context, id types.AssetID) (types.AssetInfo, bool) {
	var asset types.AssetInfo
	return asset, k.get(ctx, types.AssetKey(id), &asset)
}

// GetDenomAsset returns the identifier of the asset of denom.
func (k Keeper) GetDenomAsset(ctx sdk.Context, denom string) (types.AssetID, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.DenomAssetKey(denom))
	if bz == nil {
		return 0, false
	}
	return types.AssetID(sdk.BigEndianToUint64(bz)), true
}

// IterateAssets iterates over the registered assets.
func (k Keeper) IterateAssets(ctx sdk.Context, cb func(asset types.AssetInfo) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.AssetPrefix)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var asset types.AssetInfo
		if err := json.Unmarshal(iterator.Value(), &asset); err != nil {
			panic(err)
		}
		if cb(asset) {
			break
		}
	}
}

// denom resolves an asset identifier to its local denom.
func (k Keeper) denom(ctx sdk.Context, id types.AssetID) (string, error) {
	asset, found := k.GetAsset(ctx, id)
	if !found {
		return "", sdkerrors.Wrapf(types.ErrUnknownAsset, "asset %d", id)
	}
	return asset.Denom, nil
}

// GetInterpreter returns the interpreter instantiated for origin.
func (k Keeper) GetInterpreter(ctx sdk.Context, origin types.InterpreterOrigin) (sdk.AccAddress, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.InterpreterKey(origin))
	if bz == nil {
		return nil, false
	}
	return sdk.AccAddress(bz), true
}

// GetInterpreterOrigin returns the origin owning the interpreter account.
func (k Keeper) GetInterpreterOrigin(ctx sdk.Context, interpreter sdk.AccAddress) (types.InterpreterOrigin, bool) {
	var origin types.InterpreterOrigin
	return origin, k.get(ctx, types.InterpreterOwnerKey(interpreter), &origin)
}

// IterateInterpreters iterates over the instantiated interpreters.
func (k Keeper) IterateInterpreters(ctx sdk.Context, cb func(interpreter types.Interpreter) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.InterpreterOwnerPrefix)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		interpreter := types.Interpreter{Address: sdk.AccAddress(iterator.Key()).String()}
		if err := json.Unmarshal(iterator.Value(), &interpreter.Origin); err != nil {
			panic(err)
		}
		if cb(interpreter) {
			break
		}
	}
}

// InterpreterAddress derives the local interpreter account of origin.
func (k Keeper) InterpreterAddress(ctx sdk.Context, origin types.InterpreterOrigin) sdk.AccAddress {
	return types.DeriveInterpreterAddress(k.GetParams(ctx).InterpreterCodeID, origin)
}

// instantiateOrReuse returns the interpreter of origin, instantiating it the
// first time. The derived account must not belong to another origin.
func (k Keeper) instantiateOrReuse(ctx sdk.Context, origin types.InterpreterOrigin) (sdk.AccAddress, error) {
	if interpreter, found := k.GetInterpreter(ctx, origin); found {
		return interpreter, nil
	}

	interpreter := k.InterpreterAddress(ctx, origin)
	if owner, found := k.GetInterpreterOrigin(ctx, interpreter); found {
		return nil, sdkerrors.Wrapf(types.ErrInterpreterMismatch, "%s is owned by %s, not %s", interpreter, owner, origin)
	}
	k.setInterpreter(ctx, origin, interpreter)

	k.Logger(ctx).Info("interpreter instantiated", "interpreter", interpreter.String(), "origin", origin.String())
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeInterpreterInstantiated,
			sdk.NewAttribute(types.AttributeKeyInterpreter, interpreter.String()),
			sdk.NewAttribute(types.AttributeKeyOrigin, origin.String()),
		),
	)
	return interpreter, nil
}

func (k Keeper) setInterpreter(ctx sdk.Context, origin types.InterpreterOrigin, interpreter sdk.AccAddress) {
	ctx.KVStore(k.storeKey).Set(types.InterpreterKey(origin), interpreter)
	k.mustSet(ctx, types.InterpreterOwnerKey(interpreter), origin)
}

// GetSpawn returns the record of a packet emitted by a Spawn instruction.
func (k Keeper) GetSpawn(ctx sdk.Context, channelID string, sequence uint64) (types.SpawnRecord, bool) {
	var record types.SpawnRecord
	return record, k.get(ctx, types.SpawnKey(channelID, sequence), &record)
}

// SetSpawn stores the record of a spawn packet.
func (k Keeper) SetSpawn(ctx sdk.Context, record types.SpawnRecord) {
	k.mustSet(ctx, types.SpawnKey(record.ChannelID, record.Sequence), record)
}

// IterateSpawns iterates over the spawn records.
func (k Keeper) IterateSpawns(ctx sdk.Context, cb func(record types.SpawnRecord) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.SpawnPrefix)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var record types.SpawnRecord
		if err := json.Unmarshal(iterator.Value(), &record); err != nil {
			panic(err)
		}
		if cb(record) {
			break
		}
	}
}

func (k Keeper) get(ctx sdk.Context, key []byte, v interface{}) bool {
	bz := ctx.KVStore(k.storeKey).Get(key)
	if bz == nil {
		return false
	}
	if err := json.Unmarshal(bz, v); err != nil {
		panic(err)
	}
	return true
}

func (k Keeper) mustGet(ctx sdk.Context, key []byte, v interface{}) {
	if !k.get(ctx, key, v) {
		panic(fmt.Sprintf("%s store is missing key %X", types.ModuleName, key))
	}
}

func (k Keeper) mustSet(ctx sdk.Context, key []byte, v interface{}) {
	bz, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(key, bz)
}
