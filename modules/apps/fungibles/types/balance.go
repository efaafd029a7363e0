package types

import (
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// Balance is the amount of one denom held by an account.
type Balance struct {
	Denom  string
	Amount sdk.Int
}

// ValidateDenom accepts any non-blank denom without whitespace. Denoms received
// over IBC carry their port/channel trace and are stored unhashed.
func ValidateDenom(denom string) error {
	if strings.TrimSpace(denom) == "" {
		return sdkerrors.Wrap(ErrInvalidDenom, "denom cannot be blank")
	}
	if strings.ContainsAny(denom, " \t\n") {
		return sdkerrors.Wrapf(ErrInvalidDenom, "denom %q contains whitespace", denom)
	}
	return nil
}

// ValidateAmount requires a strictly positive amount.
func ValidateAmount(amount sdk.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkerrors.Wrapf(ErrZeroAmount, "got %s", amount)
	}
	return nil
}
