package types

import (
	"fmt"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/ComposableFi/centauri/modules/core/exported"
)

// LightClientModule decodes the stored types of one light client implementation.
type LightClientModule interface {
	ClientType() string
	UnmarshalClientState(bz []byte) (exported.ClientState, error)
	UnmarshalConsensusState(bz []byte) (exported.ConsensusState, error)
}

// The Router is a map from client type to the LightClientModule
// which decodes the light client's stored states.
type Router struct {
	routes map[string]LightClientModule
	sealed bool
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]LightClientModule),
	}
}

// Seal prevents the Router from any subsequent route handlers to be registered.
// Seal will panic if called more than once.
func (rtr *Router) Seal() {
	if rtr.sealed {
		panic("router already sealed")
	}
	rtr.sealed = true
}

// Sealed returns a boolean signifying if the Router is sealed or not.
func (rtr Router) Sealed() bool {
	return rtr.sealed
}

// AddRoute adds LightClientModule for a given client type. It returns the Router
// so AddRoute calls can be linked. It will panic if the Router is sealed.
func (rtr *Router) AddRoute(module LightClientModule) *Router {
	if rtr.sealed {
		panic(fmt.Sprintf("router sealed; cannot register %s route callbacks", module.ClientType()))
	}
	if rtr.HasRoute(module.ClientType()) {
		panic(fmt.Errorf("route %s has already been registered", module.ClientType()))
	}

	rtr.routes[module.ClientType()] = module
	return rtr
}

// HasRoute returns true if the Router has a module registered or false otherwise.
func (rtr *Router) HasRoute(clientType string) bool {
	_, ok := rtr.routes[clientType]
	return ok
}

// GetRoute returns a LightClientModule for a given client type.
func (rtr *Router) GetRoute(clientType string) (LightClientModule, bool) {
	module, ok := rtr.routes[clientType]
	return module, ok
}

// UnmarshalClientState decodes an enveloped client state with the module registered
// for its client type.
func (rtr *Router) UnmarshalClientState(bz []byte) (exported.ClientState, error) {
	envelope, err := UnpackAny(bz)
	if err != nil {
		return nil, err
	}
	module, ok := rtr.GetRoute(envelope.ClientType)
	if !ok {
		return nil, sdkerrors.Wrap(ErrRouteNotFound, envelope.ClientType)
	}
	return module.UnmarshalClientState(bz)
}

// UnmarshalConsensusState decodes an enveloped consensus state with the module registered
// for its client type.
func (rtr *Router) UnmarshalConsensusState(bz []byte) (exported.ConsensusState, error) {
	envelope, err := UnpackAny(bz)
	if err != nil {
		return nil, err
	}
	module, ok := rtr.GetRoute(envelope.ClientType)
	if !ok {
		return nil, sdkerrors.Wrap(ErrRouteNotFound, envelope.ClientType)
	}
	return module.UnmarshalConsensusState(bz)
}
