package keeper

import (
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ComposableFi/centauri/modules/capability/types"
)

type (
	// Keeper defines the capability module's keeper. It is responsible for provisioning,
	// tracking, and authenticating capabilities at runtime.
	//
	// Lookups live in a memory store so that they are reverted together with
	// the transaction that created them; the capability objects themselves live
	// in capMap, keyed by index.
	Keeper struct {
		memKey        sdk.StoreKey
		capMap        map[uint64]*types.Capability
		scopedModules map[string]struct{}
		sealed        bool
	}

	// ScopedKeeper defines a scoped sub-keeper which is tied to a single specific
	// module provisioned by the capability keeper. Scoped keepers must be created
	// at application initialization and passed to modules, which can then use them
	// to claim capabilities they receive and retrieve capabilities which they own
	// by name.
	ScopedKeeper struct {
		memKey sdk.StoreKey
		capMap map[uint64]*types.Capability
		module string
	}
)

// NewKeeper constructs a new CapabilityKeeper instance and initializes maps
// for capability map and scopedModules map.
func NewKeeper(memKey sdk.StoreKey) *Keeper {
	return &Keeper{
		memKey:        memKey,
		capMap:        make(map[uint64]*types.Capability),
		scopedModules: make(map[string]struct{}),
		sealed:        false,
	}
}

// ScopeToModule attempts to create and return a ScopedKeeper for a given module
// by name. It will panic if the keeper is already sealed or if the module name
// already has a ScopedKeeper.
func (k *Keeper) ScopeToModule(moduleName string) ScopedKeeper {
	if k.sealed {
		panic("cannot scope to module via a sealed capability keeper")
	}
	if strings.TrimSpace(moduleName) == "" {
		panic("cannot scope to an empty module name")
	}

	if _, ok := k.scopedModules[moduleName]; ok {
		panic(fmt.Sprintf("cannot create multiple scoped keepers for the same module name: %s", moduleName))
	}

	k.scopedModules[moduleName] = struct{}{}

	return ScopedKeeper{
		memKey: k.memKey,
		capMap: k.capMap,
		module: moduleName,
	}
}

// Seal seals the keeper to prevent further modules from creating a scoped keeper.
// Seal may be called during app initialization for applications that do not wish to create scoped keepers dynamically.
func (k *Keeper) Seal() {
	if k.sealed {
		panic("cannot initialize and seal an already sealed capability keeper")
	}

	k.sealed = true
}

// IsSealed returns if the keeper is sealed.
func (k *Keeper) IsSealed() bool {
	return k.sealed
}

// NewCapability attempts to create a new capability with a given name. If the
// capability already exists in the in-memory store, an error will be returned.
// Otherwise, a new capability is created with the current global unique index.
// The newly created capability has the scoped module name and capability name
// tuple set as the initial owner.
func (sk ScopedKeeper) NewCapability(ctx sdk.Context, name string) (*types.Capability, error) {
	if err := types.ValidateName(name); err != nil {
		return nil, err
	}
	store := ctx.KVStore(sk.memKey)

	if _, ok := sk.GetCapability(ctx, name); ok {
		return nil, sdkerrors.Wrapf(types.ErrCapabilityTaken, "module: %s, name: %s", sk.module, name)
	}

	// create new capability with the current global index
	index := sk.getLatestIndex(ctx)
	capability := types.NewCapability(index)

	// increment global index
	store.Set(types.KeyIndex, types.IndexToKey(index+1))

	sk.setOwnership(ctx, capability, name)

	// Set the mapping from index from index to in-memory capability in the go map
	sk.capMap[index] = capability

	logger(ctx).Info("created new capability", "module", sk.module, "name", name)

	return capability, nil
}

// AuthenticateCapability attempts to authenticate a given capability and name
// from a caller. It allows for a caller to check that a capability does in fact
// correspond to a particular name. The scoped keeper will lookup the capability
// from the internal in-memory store and check against the provided name. It returns
// true upon success and false upon failure.
//
// Note, the capability's forward mapping is indexed by a string which should
// contain its unique memory reference.
func (sk ScopedKeeper) AuthenticateCapability(ctx sdk.Context, cap *types.Capability, name string) bool {
	if cap == nil || types.ValidateName(name) != nil {
		return false
	}
	return sk.GetCapabilityName(ctx, cap) == name
}

// ClaimCapability attempts to claim a given Capability. The provided name and
// the scoped module's name tuple are treated as the owner. It will attempt
// to add the owner to the persistent set of capability owners for the capability
// index. If the owner already exists, it will return an error. Otherwise, it will
// also set a forward and reverse index for the capability and capability name.
func (sk ScopedKeeper) ClaimCapability(ctx sdk.Context, cap *types.Capability, name string) error {
	if cap == nil {
		return sdkerrors.Wrap(types.ErrNilCapability, "cannot claim nil capability")
	}
	if err := types.ValidateName(name); err != nil {
		return err
	}
	if _, ok := sk.capMap[cap.GetIndex()]; !ok {
		return sdkerrors.Wrapf(types.ErrCapabilityNotFound, "capability %d was not issued by this keeper", cap.GetIndex())
	}
	if sk.GetCapabilityName(ctx, cap) != "" {
		return sdkerrors.Wrapf(types.ErrOwnerClaimed, "module: %s, name: %s", sk.module, name)
	}

	sk.setOwnership(ctx, cap, name)

	logger(ctx).Info("claimed capability", "module", sk.module, "name", name, "capability", cap.GetIndex())

	return nil
}

// ReleaseCapability allows a scoped module to release a capability which it had
// previously claimed or created.
func (sk ScopedKeeper) ReleaseCapability(ctx sdk.Context, cap *types.Capability) error {
	if cap == nil {
		return sdkerrors.Wrap(types.ErrNilCapability, "cannot release nil capability")
	}
	name := sk.GetCapabilityName(ctx, cap)
	if len(name) == 0 {
		return sdkerrors.Wrap(types.ErrCapabilityNotOwned, sk.module)
	}

	store := ctx.KVStore(sk.memKey)
	store.Delete(types.FwdCapabilityKey(sk.module, cap))
	store.Delete(types.RevCapabilityKey(sk.module, name))
	return nil
}

// GetCapability allows a module to fetch a capability which it previously claimed
// by name. The module is not allowed to retrieve capabilities which it does not
// own.
func (sk ScopedKeeper) GetCapability(ctx sdk.Context, name string) (*types.Capability, bool) {
	if types.ValidateName(name) != nil {
		return nil, false
	}
	store := ctx.KVStore(sk.memKey)

	indexBytes := store.Get(types.RevCapabilityKey(sk.module, name))
	if len(indexBytes) == 0 {
		return nil, false
	}

	capability, ok := sk.capMap[types.IndexFromKey(indexBytes)]
	return capability, ok
}

// GetCapabilityName allows a module to retrieve the name under which it stored a given
// capability given the capability
func (sk ScopedKeeper) GetCapabilityName(ctx sdk.Context, cap *types.Capability) string {
	if cap == nil {
		return ""
	}
	return string(ctx.KVStore(sk.memKey).Get(types.FwdCapabilityKey(sk.module, cap)))
}

// setOwnership writes the forward and reverse lookups of the capability for the
// scoped module.
func (sk ScopedKeeper) setOwnership(ctx sdk.Context, cap *types.Capability, name string) {
	store := ctx.KVStore(sk.memKey)

	// Set the forward mapping between the module and capability tuple and the
	// capability name in the memKVStore
	store.Set(types.FwdCapabilityKey(sk.module, cap), []byte(name))

	// Set the reverse mapping between the module and capability name and the
	// index in the in-memory store. Since marshalling and unmarshalling into a store
	// will change memory address of capability, we simply store index as value here
	// and retrieve the in-memory pointer to the capability from our map
	store.Set(types.RevCapabilityKey(sk.module, name), types.IndexToKey(cap.GetIndex()))
}

func (sk ScopedKeeper) getLatestIndex(ctx sdk.Context) uint64 {
	bz := ctx.KVStore(sk.memKey).Get(types.KeyIndex)
	if len(bz) == 0 {
		return 1
	}
	return types.IndexFromKey(bz)
}

func logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}
