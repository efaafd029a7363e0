package keeper

import (
	"encoding/json"
	"fmt"

	"github.com/cosmos/cosmos-sdk/store/prefix"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/tendermint/tendermint/crypto"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/apps/hooks/types"
	porttypes "github.com/ComposableFi/centauri/modules/core/05-port/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// Keeper holds the forwarded packets awaiting completion and the callbacks
// registered by outgoing transfers.
type Keeper struct {
	storeKey sdk.StoreKey

	transferKeeper types.TransferKeeper
	contractKeeper types.ContractKeeper
	ics4Wrapper    porttypes.ICS4Wrapper
}

// NewKeeper creates a new memo hooks Keeper instance. ics4Wrapper receives the
// acknowledgements written once a forward completes.
func NewKeeper(
	key sdk.StoreKey,
	transferKeeper types.TransferKeeper,
	contractKeeper types.ContractKeeper,
	ics4Wrapper porttypes.ICS4Wrapper,
) *Keeper {
	return &Keeper{
		storeKey:       key,
		transferKeeper: transferKeeper,
		contractKeeper: contractKeeper,
		ics4Wrapper:    ics4Wrapper,
	}
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s-%s", host.ModuleName, types.ModuleName))
}

// GetICS4Wrapper returns the ICS4Wrapper.
func (k Keeper) GetICS4Wrapper() porttypes.ICS4Wrapper {
	return k.ics4Wrapper
}

// ModuleAddress is the sender of lifecycle callbacks.
func ModuleAddress() sdk.AccAddress {
	return sdk.AccAddress(crypto.AddressHash([]byte(types.ModuleName)))
}

// SetInFlightPacket stores the forward record of the outgoing packet.
func (k Keeper) SetInFlightPacket(ctx sdk.Context, channelID, portID string, sequence uint64, packet types.InFlightPacket) {
	bz, err := json.Marshal(packet)
	if err != nil {
		panic(err)
	}
	ctx.KVStore(k.storeKey).Set(types.InFlightPacketKey(channelID, portID, sequence), bz)
}

// GetInFlightPacket returns the forward record of the outgoing packet, if any.
func (k Keeper) GetInFlightPacket(ctx sdk.Context, channelID, portID string, sequence uint64) (types.InFlightPacket, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.InFlightPacketKey(channelID, portID, sequence))
	if bz == nil {
		return types.InFlightPacket{}, false
	}
	var packet types.InFlightPacket
	if err := json.Unmarshal(bz, &packet); err != nil {
		panic(err)
	}
	return packet, true
}

// RemoveInFlightPacket deletes the forward record of the outgoing packet.
func (k Keeper) RemoveInFlightPacket(ctx sdk.Context, channelID, portID string, sequence uint64) {
	ctx.KVStore(k.storeKey).Delete(types.InFlightPacketKey(channelID, portID, sequence))
}

// IterateInFlightPackets iterates over all forwards awaiting completion.
func (k Keeper) IterateInFlightPackets(ctx sdk.Context, cb func(packet types.InFlightPacket) (stop bool)) {
	store := prefix.NewStore(ctx.KVStore(k.storeKey), types.InFlightPacketPrefix)
	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var packet types.InFlightPacket
		if err := json.Unmarshal(iterator.Value(), &packet); err != nil {
			panic(err)
		}
		if cb(packet) {
			break
		}
	}
}

// SetCallback registers contract to be notified once the outgoing packet completes.
func (k Keeper) SetCallback(ctx sdk.Context, channelID string, sequence uint64, contract sdk.AccAddress) {
	ctx.KVStore(k.storeKey).Set(types.CallbackKey(channelID, sequence), contract)
}

// GetCallback returns the contract registered for the outgoing packet, if any.
func (k Keeper) GetCallback(ctx sdk.Context, channelID string, sequence uint64) (sdk.AccAddress, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.CallbackKey(channelID, sequence))
	if bz == nil {
		return nil, false
	}
	return sdk.AccAddress(bz), true
}

// RemoveCallback deletes the callback of the outgoing packet.
func (k Keeper) RemoveCallback(ctx sdk.Context, channelID string, sequence uint64) {
	ctx.KVStore(k.storeKey).Delete(types.CallbackKey(channelID, sequence))
}
