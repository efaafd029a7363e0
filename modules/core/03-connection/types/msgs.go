package types

import (
	"strings"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
	"github.com/ComposableFi/centauri/modules/core/exported"
)

// connection message types
const (
	TypeMsgConnectionOpenInit    = "connection_open_init"
	TypeMsgConnectionOpenTry     = "connection_open_try"
	TypeMsgConnectionOpenAck     = "connection_open_ack"
	TypeMsgConnectionOpenConfirm = "connection_open_confirm"
)

var (
	_ exported.Msg = (*MsgConnectionOpenInit)(nil)
	_ exported.Msg = (*MsgConnectionOpenTry)(nil)
	_ exported.Msg = (*MsgConnectionOpenAck)(nil)
	_ exported.Msg = (*MsgConnectionOpenConfirm)(nil)
)

// MsgConnectionOpenInit defines the msg sent by an account on Chain A to
// initialize a connection with Chain B.
type MsgConnectionOpenInit struct {
	ClientID     string
	Counterparty Counterparty
	// Version is optional, every compatible version is proposed when it is nil.
	Version     *Version
	DelayPeriod uint64
	Signer      string
}

// NewMsgConnectionOpenInit creates a new MsgConnectionOpenInit instance. It sets the
// counterparty connection identifier to be empty.
func NewMsgConnectionOpenInit(
	clientID, counterpartyClientID string,
	counterpartyPrefix commitmenttypes.MerklePrefix,
	version *Version, delayPeriod uint64, signer string,
) *MsgConnectionOpenInit {
	// counterparty must have the same delay period
	counterparty := NewCounterparty(counterpartyClientID, "", counterpartyPrefix)
	return &MsgConnectionOpenInit{
		ClientID:     clientID,
		Counterparty: counterparty,
		Version:      version,
		DelayPeriod:  delayPeriod,
		Signer:       signer,
	}
}

// Type implements exported.Msg
func (msg MsgConnectionOpenInit) Type() string { return TypeMsgConnectionOpenInit }

// GetSigner implements exported.Msg
func (msg MsgConnectionOpenInit) GetSigner() string { return msg.Signer }

// ValidateBasic implements exported.Msg.
func (msg MsgConnectionOpenInit) ValidateBasic() error {
	if err := host.ClientIdentifierValidator(msg.ClientID); err != nil {
		return sdkerrors.Wrap(err, "invalid client ID")
	}
	if msg.Counterparty.ConnectionID != "" {
		return sdkerrors.Wrap(ErrInvalidCounterparty, "counterparty connection identifier must be empty")
	}

	// NOTE: Version can be nil on MsgConnectionOpenInit
	if msg.Version != nil {
		if err := ValidateVersion(*msg.Version); err != nil {
			return sdkerrors.Wrap(err, "basic validation of the provided version failed")
		}
	}
	if err := validateSigner(msg.Signer); err != nil {
		return err
	}
	return msg.Counterparty.ValidateBasic()
}

// MsgConnectionOpenTry defines a msg sent by a Relayer to try to open a
// connection on Chain B.
type MsgConnectionOpenTry struct {
	ClientID             string
	Counterparty         Counterparty
	DelayPeriod          uint64
	CounterpartyVersions []Version
	// proof of the initialization the connection on Chain A: `UNITIALIZED ->
	// INIT`
	ProofInit   []byte
	ProofHeight clienttypes.Height
	Signer      string
}

// NewMsgConnectionOpenTry creates a new MsgConnectionOpenTry instance
func NewMsgConnectionOpenTry(
	clientID, counterpartyConnectionID, counterpartyClientID string,
	counterpartyPrefix commitmenttypes.MerklePrefix,
	counterpartyVersions []Version, delayPeriod uint64,
	proofInit []byte, proofHeight clienttypes.Height, signer string,
) *MsgConnectionOpenTry {
	counterparty := NewCounterparty(counterpartyClientID, counterpartyConnectionID, counterpartyPrefix)
	return &MsgConnectionOpenTry{
		ClientID:             clientID,
		Counterparty:         counterparty,
		CounterpartyVersions: counterpartyVersions,
		DelayPeriod:          delayPeriod,
		ProofInit:            proofInit,
		ProofHeight:          proofHeight,
		Signer:               signer,
	}
}

// Type implements exported.Msg
func (msg MsgConnectionOpenTry) Type() string { return TypeMsgConnectionOpenTry }

// GetSigner implements exported.Msg
func (msg MsgConnectionOpenTry) GetSigner() string { return msg.Signer }

// ValidateBasic implements exported.Msg
func (msg MsgConnectionOpenTry) ValidateBasic() error {
	if err := host.ClientIdentifierValidator(msg.ClientID); err != nil {
		return sdkerrors.Wrap(err, "invalid client ID")
	}
	if msg.Counterparty.ConnectionID == "" {
		return sdkerrors.Wrap(ErrInvalidCounterparty, "counterparty connection identifier cannot be empty")
	}
	if len(msg.CounterpartyVersions) == 0 {
		return sdkerrors.Wrap(ErrInvalidVersion, "empty counterparty versions")
	}
	for i, version := range msg.CounterpartyVersions {
		if err := ValidateVersion(version); err != nil {
			return sdkerrors.Wrapf(err, "basic validation failed on version with index %d", i)
		}
	}
	if len(msg.ProofInit) == 0 {
		return sdkerrors.Wrap(commitmenttypes.ErrInvalidProof, "cannot submit an empty proof init")
	}
	if msg.ProofHeight.IsZero() {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeight, "proof height must be non-zero")
	}
	if err := validateSigner(msg.Signer); err != nil {
		return err
	}
	return msg.Counterparty.ValidateBasic()
}

// MsgConnectionOpenAck defines a msg sent by a Relayer to Chain A to
// acknowledge the change of connection state to TRYOPEN on Chain B.
type MsgConnectionOpenAck struct {
	ConnectionID             string
	CounterpartyConnectionID string
	Version                  Version
	// proof of the initialization the connection on Chain B: `UNITIALIZED ->
	// TRYOPEN`
	ProofTry    []byte
	ProofHeight clienttypes.Height
	Signer      string
}

// NewMsgConnectionOpenAck creates a new MsgConnectionOpenAck instance
func NewMsgConnectionOpenAck(
	connectionID, counterpartyConnectionID string,
	proofTry []byte, proofHeight clienttypes.Height,
	version Version, signer string,
) *MsgConnectionOpenAck {
	return &MsgConnectionOpenAck{
		ConnectionID:             connectionID,
		CounterpartyConnectionID: counterpartyConnectionID,
		ProofTry:                 proofTry,
		ProofHeight:              proofHeight,
		Version:                  version,
		Signer:                   signer,
	}
}

// Type implements exported.Msg
func (msg MsgConnectionOpenAck) Type() string { return TypeMsgConnectionOpenAck }

// GetSigner implements exported.Msg
func (msg MsgConnectionOpenAck) GetSigner() string { return msg.Signer }

// ValidateBasic implements exported.Msg
func (msg MsgConnectionOpenAck) ValidateBasic() error {
	if !IsValidConnectionID(msg.ConnectionID) {
		return ErrInvalidConnectionIdentifier
	}
	if err := host.ConnectionIdentifierValidator(msg.CounterpartyConnectionID); err != nil {
		return sdkerrors.Wrap(err, "invalid counterparty connection ID")
	}
	if err := ValidateVersion(msg.Version); err != nil {
		return err
	}
	if len(msg.ProofTry) == 0 {
		return sdkerrors.Wrap(commitmenttypes.ErrInvalidProof, "cannot submit an empty proof try")
	}
	if msg.ProofHeight.IsZero() {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeight, "proof height must be non-zero")
	}
	return validateSigner(msg.Signer)
}

// MsgConnectionOpenConfirm defines a msg sent by a Relayer to Chain B to
// acknowledge the change of connection state to OPEN on Chain A.
type MsgConnectionOpenConfirm struct {
	ConnectionID string
	// proof for the change of the connection state on Chain A: `INIT -> OPEN`
	ProofAck    []byte
	ProofHeight clienttypes.Height
	Signer      string
}

// NewMsgConnectionOpenConfirm creates a new MsgConnectionOpenConfirm instance
func NewMsgConnectionOpenConfirm(
	connectionID string, proofAck []byte, proofHeight clienttypes.Height, signer string,
) *MsgConnectionOpenConfirm {
	return &MsgConnectionOpenConfirm{
		ConnectionID: connectionID,
		ProofAck:     proofAck,
		ProofHeight:  proofHeight,
		Signer:       signer,
	}
}

// Type implements exported.Msg
func (msg MsgConnectionOpenConfirm) Type() string { return TypeMsgConnectionOpenConfirm }

// GetSigner implements exported.Msg
func (msg MsgConnectionOpenConfirm) GetSigner() string { return msg.Signer }

// ValidateBasic implements exported.Msg
func (msg MsgConnectionOpenConfirm) ValidateBasic() error {
	if !IsValidConnectionID(msg.ConnectionID) {
		return ErrInvalidConnectionIdentifier
	}
	if len(msg.ProofAck) == 0 {
		return sdkerrors.Wrap(commitmenttypes.ErrInvalidProof, "cannot submit an empty proof ack")
	}
	if msg.ProofHeight.IsZero() {
		return sdkerrors.Wrap(clienttypes.ErrInvalidHeight, "proof height must be non-zero")
	}
	return validateSigner(msg.Signer)
}

func validateSigner(signer string) error {
	if strings.TrimSpace(signer) == "" {
		return sdkerrors.Wrap(sdkerrors.ErrInvalidAddress, "signer address cannot be empty")
	}
	return nil
}
