package types

import (
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// message types for the IBC client
const (
	TypeMsgCreateClient       string = "create_client"
	TypeMsgUpdateClient       string = "update_client"
	TypeMsgSubmitMisbehaviour string = "submit_misbehaviour"
)

var (
	_ exported.Msg = (*MsgCreateClient)(nil)
	_ exported.Msg = (*MsgUpdateClient)(nil)
	_ exported.Msg = (*MsgSubmitMisbehaviour)(nil)
)

// MsgCreateClient defines a message to create an IBC client
type MsgCreateClient struct {
	ClientState    exported.ClientState
	ConsensusState exported.ConsensusState
	Signer         string
}

// NewMsgCreateClient creates a new MsgCreateClient instance
func NewMsgCreateClient(clientState exported.ClientState, consensusState exported.ConsensusState, signer string) *MsgCreateClient {
	return &MsgCreateClient{
		ClientState:    clientState,
		ConsensusState: consensusState,
		Signer:         signer,
	}
}

// Type implements exported.Msg
func (msg MsgCreateClient) Type() string { return TypeMsgCreateClient }

// GetSigner implements exported.Msg
func (msg MsgCreateClient) GetSigner() string { return msg.Signer }

// ValidateBasic implements exported.Msg
func (msg MsgCreateClient) ValidateBasic() error {
	if msg.ClientState == nil {
		return sdkerrors.Wrap(ErrInvalidClient, "client state cannot be nil")
	}
	if err := msg.ClientState.Validate(); err != nil {
		return err
	}
	if msg.ConsensusState == nil {
		return sdkerrors.Wrap(ErrInvalidConsensus, "consensus state cannot be nil")
	}
	if msg.ClientState.ClientType() != msg.ConsensusState.ClientType() {
		return sdkerrors.Wrap(ErrInvalidClientType, "client type for client state and consensus state do not match")
	}
	return msg.ConsensusState.ValidateBasic()
}

// MsgUpdateClient defines a message to update an IBC client
type MsgUpdateClient struct {
	ClientID      string
	ClientMessage exported.ClientMessage
	Signer        string
}

// NewMsgUpdateClient creates a new MsgUpdateClient instance
func NewMsgUpdateClient(id string, clientMsg exported.ClientMessage, signer string) *MsgUpdateClient {
	return &MsgUpdateClient{
		ClientID:      id,
		ClientMessage: clientMsg,
		Signer:        signer,
	}
}

// Type implements exported.Msg
func (msg MsgUpdateClient) Type() string { return TypeMsgUpdateClient }

// GetSigner implements exported.Msg
func (msg MsgUpdateClient) GetSigner() string { return msg.Signer }

// ValidateBasic implements exported.Msg
func (msg MsgUpdateClient) ValidateBasic() error {
	if msg.ClientMessage == nil {
		return sdkerrors.Wrap(ErrInvalidHeader, "client message cannot be nil")
	}
	if err := msg.ClientMessage.ValidateBasic(); err != nil {
		return err
	}
	return host.ClientIdentifierValidator(msg.ClientID)
}

// MsgSubmitMisbehaviour defines a message to submit evidence that a client's
// counterparty finalized two conflicting blocks.
type MsgSubmitMisbehaviour struct {
	ClientID     string
	Misbehaviour exported.ClientMessage
	Signer       string
}

// NewMsgSubmitMisbehaviour creates a new MsgSubmitMisbehaviour instance.
func NewMsgSubmitMisbehaviour(clientID string, misbehaviour exported.ClientMessage, signer string) *MsgSubmitMisbehaviour {
	return &MsgSubmitMisbehaviour{
		ClientID:     clientID,
		Misbehaviour: misbehaviour,
		Signer:       signer,
	}
}

// Type implements exported.Msg
func (msg MsgSubmitMisbehaviour) Type() string { return TypeMsgSubmitMisbehaviour }

// GetSigner implements exported.Msg
func (msg MsgSubmitMisbehaviour) GetSigner() string { return msg.Signer }

// ValidateBasic implements exported.Msg
func (msg MsgSubmitMisbehaviour) ValidateBasic() error {
	if msg.Misbehaviour == nil {
		return sdkerrors.Wrap(ErrInvalidMisbehaviour, "misbehaviour cannot be nil")
	}
	if err := msg.Misbehaviour.ValidateBasic(); err != nil {
		return sdkerrors.Wrap(ErrInvalidMisbehaviour, err.Error())
	}
	return host.ClientIdentifierValidator(msg.ClientID)
}
