package types

import (
	"crypto/sha256"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// DeriveIntermediateSender returns the account a hook acts from on behalf of
// originalSender, who sent the packet over channel:
// bech32(prefix, sha256(SenderPrefix ‖ channel ‖ "/" ‖ originalSender)).
func DeriveIntermediateSender(channel, originalSender, bech32Prefix string) (string, error) {
	hash := sha256.Sum256([]byte(SenderPrefix + channel + "/" + originalSender))
	return bech32.ConvertAndEncode(bech32Prefix, hash[:])
}

// IntermediateSender derives the intermediate sender with the chain's
// account prefix.
func IntermediateSender(channel, originalSender string) (sdk.AccAddress, error) {
	address, err := DeriveIntermediateSender(channel, originalSender, sdk.GetConfig().GetBech32AccountAddrPrefix())
	if err != nil {
		return nil, err
	}
	return sdk.AccAddressFromBech32(address)
}

// ValidateIntermediateSender recomputes the intermediate sender of a hook
// triggered by originalSender over channel and requires caller to be it.
func ValidateIntermediateSender(channel, originalSender, caller string) error {
	expected, err := DeriveIntermediateSender(channel, originalSender, sdk.GetConfig().GetBech32AccountAddrPrefix())
	if err != nil {
		return err
	}
	if expected != caller {
		return sdkerrors.Wrapf(ErrHookSenderMismatch, "expected %s, got %s", expected, caller)
	}
	return nil
}
