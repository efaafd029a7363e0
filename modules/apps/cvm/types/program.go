package types

import (
	"math/big"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// NetworkID identifies a chain reachable by spawned programs.
type NetworkID uint32

// AssetID identifies an asset across all networks.
type AssetID uint64

// U128 is an unsigned 128-bit integer split into two 64-bit halves.
type U128 struct {
	High uint64
	Low  uint64
}

// NewU128 returns the U128 of a 64-bit value.
func NewU128(v uint64) U128 {
	return U128{Low: v}
}

// U128FromBig converts a non-negative big.Int of at most 128 bits.
func U128FromBig(v *big.Int) (U128, error) {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return U128{}, sdkerrors.Wrapf(ErrInvalidAmount, "%s does not fit in 128 bits", v)
	}
	low := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0)))
	high := new(big.Int).Rsh(v, 64)
	return U128{High: high.Uint64(), Low: low.Uint64()}, nil
}

// BigInt returns the value as a big.Int.
func (u U128) BigInt() *big.Int {
	v := new(big.Int).SetUint64(u.High)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(u.Low))
}

// IsZero reports whether the value is zero.
func (u U128) IsZero() bool {
	return u.High == 0 && u.Low == 0
}

// RatioDenominator is the denominator of ratio amounts: a ratio of
// RatioDenominator is the whole balance.
var RatioDenominator = new(big.Int).Lsh(big.NewInt(1), 64)

// AmountKind tells how an Amount is resolved.
type AmountKind uint8

const (
	// AmountFixed is an absolute amount.
	AmountFixed AmountKind = iota
	// AmountRatio is a share, over 2^64, of the interpreter balance.
	AmountRatio
)

// Amount is either a fixed amount or a ratio of the balance held when the
// instruction runs.
type Amount struct {
	Kind  AmountKind
	Value U128
}

// Fixed returns an absolute amount.
func Fixed(v U128) Amount {
	return Amount{Kind: AmountFixed, Value: v}
}

// Ratio returns a share of the balance, over 2^64.
func Ratio(v U128) Amount {
	return Amount{Kind: AmountRatio, Value: v}
}

// Everything is the whole balance.
func Everything() Amount {
	return Ratio(U128{High: 1})
}

// Validate checks a ratio lies in (0, 2^64].
func (a Amount) Validate() error {
	switch a.Kind {
	case AmountFixed:
		return nil
	case AmountRatio:
		if a.Value.IsZero() || a.Value.BigInt().Cmp(RatioDenominator) > 0 {
			return sdkerrors.Wrapf(ErrInvalidAmount, "ratio %s is not in (0, 2^64]", a.Value.BigInt())
		}
		return nil
	default:
		return sdkerrors.Wrapf(ErrInvalidAmount, "unknown amount kind %d", a.Kind)
	}
}

// Apply resolves the amount against balance. Ratios round down.
func (a Amount) Apply(balance sdk.Int) sdk.Int {
	if a.Kind == AmountFixed {
		return sdk.NewIntFromBigInt(a.Value.BigInt())
	}
	share := new(big.Int).Mul(balance.BigInt(), a.Value.BigInt())
	return sdk.NewIntFromBigInt(share.Quo(share, RatioDenominator))
}

// Asset is an amount of a given asset.
type Asset struct {
	ID     AssetID
	Amount Amount
}

// Funds is an ordered list of assets.
type Funds []Asset

// Validate checks each amount.
func (f Funds) Validate() error {
	for _, asset := range f {
		if err := asset.Amount.Validate(); err != nil {
			return sdkerrors.Wrapf(err, "asset %d", asset.ID)
		}
	}
	return nil
}

// Program is a sequence of instructions run by an interpreter.
type Program struct {
	Instructions []Instruction
	Salt         []byte
}

// Validate checks every instruction of the program.
func (p Program) Validate() error {
	for i, instruction := range p.Instructions {
		if err := instruction.Validate(); err != nil {
			return sdkerrors.Wrapf(err, "instruction %d", i)
		}
	}
	return nil
}

// Instruction holds exactly one of Transfer, Call or Spawn.
type Instruction struct {
	Transfer *Transfer
	Call     *Call
	Spawn    *Spawn
}

// Validate checks exactly one variant is set and valid.
func (i Instruction) Validate() error {
	set := 0
	var err error
	if i.Transfer != nil {
		set++
		err = i.Transfer.Validate()
	}
	if i.Call != nil {
		set++
		err = i.Call.Validate()
	}
	if i.Spawn != nil {
		set++
		err = i.Spawn.Validate()
	}
	if set != 1 {
		return sdkerrors.Wrapf(ErrInvalidProgram, "instruction must have exactly one variant, got %d", set)
	}
	return err
}

// Transfer moves funds from the interpreter to an account.
type Transfer struct {
	To    []byte
	Funds Funds
}

// Validate checks the destination and the funds.
func (t Transfer) Validate() error {
	if len(t.To) == 0 {
		return sdkerrors.Wrap(ErrInvalidProgram, "transfer destination cannot be empty")
	}
	return t.Funds.Validate()
}

// Call executes a contract. Bindings are inserted into the payload at their
// byte positions right before the call.
type Call struct {
	Payload  []byte
	Bindings []Binding
}

// Validate checks the bindings are sorted, distinct and within the payload.
func (c Call) Validate() error {
	for i, binding := range c.Bindings {
		if int(binding.Position) > len(c.Payload) {
			return sdkerrors.Wrapf(ErrInvalidBinding, "position %d is past the payload end %d", binding.Position, len(c.Payload))
		}
		if i > 0 && binding.Position <= c.Bindings[i-1].Position {
			return sdkerrors.Wrapf(ErrInvalidBinding, "positions must be strictly increasing, %d follows %d", binding.Position, c.Bindings[i-1].Position)
		}
		if err := binding.Value.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Spawn continues with Program on another network, funded with Funds.
type Spawn struct {
	Network NetworkID
	Salt    []byte
	Funds   Funds
	Program Program
}

// Validate checks the spawned program is non empty and the funds are valid.
func (s Spawn) Validate() error {
	if len(s.Program.Instructions) == 0 {
		return sdkerrors.Wrap(ErrInvalidProgram, "spawned program cannot be empty")
	}
	if len(s.Funds) == 0 {
		return sdkerrors.Wrap(ErrInvalidProgram, "spawn must carry funds")
	}
	if err := s.Funds.Validate(); err != nil {
		return err
	}
	return s.Program.Validate()
}

// Binding inserts a late bound value into a call payload.
type Binding struct {
	Position uint32
	Value    BindingValue
}

// BindingKind tells which value a binding resolves to.
type BindingKind uint8

const (
	// BindingSelf is the interpreter address.
	BindingSelf BindingKind = iota + 1
	// BindingRelayer is the tip address.
	BindingRelayer
	// BindingResult is the result of the previous call.
	BindingResult
	// BindingAssetAmount is the resolved amount of an asset.
	BindingAssetAmount
	// BindingAssetID is the local denom of an asset.
	BindingAssetID
)

// BindingValue is a value known only when the call runs.
type BindingValue struct {
	Kind    BindingKind
	AssetID AssetID
	Amount  Amount
}

// Validate checks the kind and the amount of asset amount bindings.
func (v BindingValue) Validate() error {
	switch v.Kind {
	case BindingSelf, BindingRelayer, BindingResult, BindingAssetID:
		return nil
	case BindingAssetAmount:
		return v.Amount.Validate()
	default:
		return sdkerrors.Wrapf(ErrInvalidBinding, "unknown binding kind %d", v.Kind)
	}
}
