package types

import (
	"crypto/sha256"
	"fmt"

	gsrpctypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// UserOrigin is an account on a given network.
type UserOrigin struct {
	Network NetworkID `json:"network"`
	User    []byte    `json:"user"`
}

// InterpreterOrigin identifies an interpreter: the user that runs programs
// in it and the salt the user picked.
type InterpreterOrigin struct {
	UserOrigin UserOrigin `json:"user_origin"`
	Salt       []byte     `json:"salt"`
}

// Encode returns the SCALE encoding of the origin.
func (o InterpreterOrigin) Encode() []byte {
	bz, err := gsrpctypes.EncodeToBytes(o)
	if err != nil {
		panic(err)
	}
	return bz
}

// Hash returns the sha256 of the SCALE encoded origin.
func (o InterpreterOrigin) Hash() []byte {
	hash := sha256.Sum256(o.Encode())
	return hash[:]
}

func (o InterpreterOrigin) String() string {
	return fmt.Sprintf("%d/%X/%X", o.UserOrigin.Network, o.UserOrigin.User, o.Salt)
}

// DeriveInterpreterAddress returns the account of the interpreter of origin
// instantiated from codeID. Every network derives the same bytes; only the
// bech32 prefix differs.
func DeriveInterpreterAddress(codeID uint64, origin InterpreterOrigin) sdk.AccAddress {
	buf := append(sdk.Uint64ToBigEndian(codeID), origin.Encode()...)
	hash := sha256.Sum256(buf)
	return sdk.AccAddress(hash[:20])
}
