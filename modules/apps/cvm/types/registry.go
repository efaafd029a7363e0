package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	fungiblestypes "github.com/ComposableFi/centauri/modules/apps/fungibles/types"
	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// NetworkInfo describes how to reach a remote network.
type NetworkInfo struct {
	// ChannelID is the local ICS-20 channel to the network.
	ChannelID string `json:"channel_id" yaml:"channel_id"`
	// GatewayAddress is the gateway contract on the network, bech32 encoded
	// with Prefix.
	GatewayAddress string `json:"gateway_address" yaml:"gateway_address"`
	// InterpreterCodeID overrides the local interpreter code id when deriving
	// interpreter addresses on the network.
	InterpreterCodeID *uint64 `json:"interpreter_code_id,omitempty" yaml:"interpreter_code_id"`
	// Prefix is the bech32 account prefix of the network.
	Prefix string `json:"prefix" yaml:"prefix"`
}

// Validate performs basic validation of the network description.
func (n NetworkInfo) Validate() error {
	if err := host.ChannelIdentifierValidator(n.ChannelID); err != nil {
		return sdkerrors.Wrap(err, "invalid network channel")
	}
	if n.Prefix == "" {
		return sdkerrors.Wrap(ErrInvalidParams, "network prefix cannot be empty")
	}
	if _, err := sdk.GetFromBech32(n.GatewayAddress, n.Prefix); err != nil {
		return sdkerrors.Wrapf(ErrInvalidParams, "invalid gateway address %s: %v", n.GatewayAddress, err)
	}
	return nil
}

// CodeID returns the interpreter code id used on the network.
func (n NetworkInfo) CodeID(local uint64) uint64 {
	if n.InterpreterCodeID != nil {
		return *n.InterpreterCodeID
	}
	return local
}

// Network is a registered network with its identifier.
type Network struct {
	ID   NetworkID   `json:"id" yaml:"id"`
	Info NetworkInfo `json:"info" yaml:"info"`
}

// ForeignAsset locates an asset on the network it is native to.
type ForeignAsset struct {
	Network NetworkID `json:"network" yaml:"network"`
	Denom   string    `json:"denom" yaml:"denom"`
}

// AssetRatio is the exchange ratio of an asset against the native fee asset.
type AssetRatio struct {
	Numerator   uint64 `json:"numerator" yaml:"numerator"`
	Denominator uint64 `json:"denominator" yaml:"denominator"`
}

// AssetInfo maps an asset identifier to its local denom.
type AssetInfo struct {
	ID                 AssetID       `json:"id" yaml:"id"`
	Denom              string        `json:"denom" yaml:"denom"`
	ForeignLocation    *ForeignAsset `json:"foreign_location,omitempty" yaml:"foreign_location"`
	Decimals           uint8         `json:"decimals" yaml:"decimals"`
	Ratio              *AssetRatio   `json:"ratio,omitempty" yaml:"ratio"`
	ExistentialDeposit sdk.Int       `json:"existential_deposit" yaml:"existential_deposit"`
}

// Validate performs basic validation of the asset description.
func (a AssetInfo) Validate() error {
	if err := fungiblestypes.ValidateDenom(a.Denom); err != nil {
		return err
	}
	if a.Ratio != nil && a.Ratio.Denominator == 0 {
		return sdkerrors.Wrap(ErrInvalidParams, "asset ratio denominator cannot be zero")
	}
	if !a.ExistentialDeposit.IsNil() && a.ExistentialDeposit.IsNegative() {
		return sdkerrors.Wrap(ErrInvalidParams, "existential deposit cannot be negative")
	}
	return nil
}

func (a AssetInfo) String() string {
	return fmt.Sprintf("%d:%s", a.ID, a.Denom)
}
