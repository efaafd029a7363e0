package types

import (
	"fmt"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Programs travel between gateways as protobuf messages:
//
//	Program       { repeated Instruction instructions = 1; bytes salt = 2; }
//	Instruction   { oneof { Transfer transfer = 1; Call call = 2; Spawn spawn = 3; } }
//	Transfer      { bytes to = 1; repeated FundsEntry funds = 2; }
//	FundsEntry    { uint64 key = 1; Amount value = 2; }
//	Amount        { oneof { U128 fixed = 1; U128 ratio = 2; } }
//	U128          { uint64 high = 1; uint64 low = 2; }
//	Call          { bytes payload = 1; repeated Binding bindings = 2; }
//	Binding       { uint32 position = 1; BindingValue value = 2; }
//	BindingValue  { oneof { Empty self = 1; Empty relayer = 2; Empty result = 3;
//	                        AssetAmount asset_amount = 4; uint64 asset_id = 5; } }
//	AssetAmount   { uint64 asset_id = 1; Amount amount = 2; }
//	Spawn         { uint32 network = 1; bytes salt = 2; repeated FundsEntry funds = 3; Program program = 4; }
//
// Unknown fields are skipped.

// EncodeProgram returns the wire form of program.
func EncodeProgram(program Program) []byte {
	var b []byte
	for _, instruction := range program.Instructions {
		b = appendMessage(b, 1, encodeInstruction(instruction))
	}
	if len(program.Salt) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, program.Salt)
	}
	return b
}

// DecodeProgram parses and validates the wire form of a program.
func DecodeProgram(bz []byte) (Program, error) {
	program, err := decodeProgram(bz)
	if err != nil {
		return Program{}, sdkerrors.Wrap(ErrInvalidProgram, err.Error())
	}
	if err := program.Validate(); err != nil {
		return Program{}, err
	}
	return program, nil
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func encodeInstruction(instruction Instruction) []byte {
	switch {
	case instruction.Transfer != nil:
		var t []byte
		t = protowire.AppendTag(t, 1, protowire.BytesType)
		t = protowire.AppendBytes(t, instruction.Transfer.To)
		t = appendFunds(t, 2, instruction.Transfer.Funds)
		return appendMessage(nil, 1, t)
	case instruction.Call != nil:
		var c []byte
		c = protowire.AppendTag(c, 1, protowire.BytesType)
		c = protowire.AppendBytes(c, instruction.Call.Payload)
		for _, binding := range instruction.Call.Bindings {
			var bb []byte
			bb = appendUint(bb, 1, uint64(binding.Position))
			bb = appendMessage(bb, 2, encodeBindingValue(binding.Value))
			c = appendMessage(c, 2, bb)
		}
		return appendMessage(nil, 2, c)
	case instruction.Spawn != nil:
		var s []byte
		s = appendUint(s, 1, uint64(instruction.Spawn.Network))
		s = protowire.AppendTag(s, 2, protowire.BytesType)
		s = protowire.AppendBytes(s, instruction.Spawn.Salt)
		s = appendFunds(s, 3, instruction.Spawn.Funds)
		s = appendMessage(s, 4, EncodeProgram(instruction.Spawn.Program))
		return appendMessage(nil, 3, s)
	default:
		return nil
	}
}

func appendFunds(b []byte, num protowire.Number, funds Funds) []byte {
	for _, asset := range funds {
		var entry []byte
		entry = appendUint(entry, 1, uint64(asset.ID))
		entry = appendMessage(entry, 2, encodeAmount(asset.Amount))
		b = appendMessage(b, num, entry)
	}
	return b
}

func encodeAmount(amount Amount) []byte {
	var u []byte
	u = appendUint(u, 1, amount.Value.High)
	u = appendUint(u, 2, amount.Value.Low)
	if amount.Kind == AmountRatio {
		return appendMessage(nil, 2, u)
	}
	return appendMessage(nil, 1, u)
}

func encodeBindingValue(value BindingValue) []byte {
	switch value.Kind {
	case BindingSelf:
		return appendMessage(nil, 1, nil)
	case BindingRelayer:
		return appendMessage(nil, 2, nil)
	case BindingResult:
		return appendMessage(nil, 3, nil)
	case BindingAssetAmount:
		var a []byte
		a = appendUint(a, 1, uint64(value.AssetID))
		a = appendMessage(a, 2, encodeAmount(value.Amount))
		return appendMessage(nil, 4, a)
	case BindingAssetID:
		return appendUint(nil, 5, uint64(value.AssetID))
	default:
		return nil
	}
}

// fieldFunc handles one varint or length delimited field of a message.
type fieldFunc func(num protowire.Number, typ protowire.Type, varint uint64, bytes []byte) error

// consumeMessage walks the fields of a message.
func consumeMessage(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var (
			varint uint64
			bytes  []byte
		)
		switch typ {
		case protowire.VarintType:
			varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.VarintType && typ != protowire.BytesType {
			continue
		}
		if err := fn(num, typ, varint, bytes); err != nil {
			return err
		}
	}
	return nil
}

func expect(num protowire.Number, typ, want protowire.Type) error {
	if typ != want {
		return fmt.Errorf("field %d has wire type %d, expected %d", num, typ, want)
	}
	return nil
}

func decodeProgram(b []byte) (Program, error) {
	var program Program
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, _ uint64, bytes []byte) error {
		switch num {
		case 1:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			instruction, err := decodeInstruction(bytes)
			if err != nil {
				return err
			}
			program.Instructions = append(program.Instructions, instruction)
		case 2:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			program.Salt = append([]byte{}, bytes...)
		}
		return nil
	})
	return program, err
}

func decodeInstruction(b []byte) (Instruction, error) {
	var instruction Instruction
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, _ uint64, bytes []byte) error {
		if num < 1 || num > 3 {
			return nil
		}
		if err := expect(num, typ, protowire.BytesType); err != nil {
			return err
		}
		// the last variant on the wire wins, as for any protobuf oneof
		instruction = Instruction{}
		switch num {
		case 1:
			transfer, err := decodeTransfer(bytes)
			if err != nil {
				return err
			}
			instruction.Transfer = &transfer
		case 2:
			call, err := decodeCall(bytes)
			if err != nil {
				return err
			}
			instruction.Call = &call
		case 3:
			spawn, err := decodeSpawn(bytes)
			if err != nil {
				return err
			}
			instruction.Spawn = &spawn
		}
		return nil
	})
	if err == nil && instruction.Transfer == nil && instruction.Call == nil && instruction.Spawn == nil {
		err = fmt.Errorf("empty instruction")
	}
	return instruction, err
}

func decodeTransfer(b []byte) (Transfer, error) {
	var transfer Transfer
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, _ uint64, bytes []byte) error {
		switch num {
		case 1:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			transfer.To = append([]byte{}, bytes...)
		case 2:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			asset, err := decodeFundsEntry(bytes)
			if err != nil {
				return err
			}
			transfer.Funds = append(transfer.Funds, asset)
		}
		return nil
	})
	return transfer, err
}

func decodeCall(b []byte) (Call, error) {
	var call Call
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, _ uint64, bytes []byte) error {
		switch num {
		case 1:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			call.Payload = append([]byte{}, bytes...)
		case 2:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			binding, err := decodeBinding(bytes)
			if err != nil {
				return err
			}
			call.Bindings = append(call.Bindings, binding)
		}
		return nil
	})
	return call, err
}

func decodeBinding(b []byte) (Binding, error) {
	var binding Binding
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, varint uint64, bytes []byte) error {
		switch num {
		case 1:
			if err := expect(num, typ, protowire.VarintType); err != nil {
				return err
			}
			binding.Position = uint32(varint)
		case 2:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			value, err := decodeBindingValue(bytes)
			if err != nil {
				return err
			}
			binding.Value = value
		}
		return nil
	})
	return binding, err
}

func decodeBindingValue(b []byte) (BindingValue, error) {
	var value BindingValue
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, varint uint64, bytes []byte) error {
		switch num {
		case 1, 2, 3:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			value = BindingValue{Kind: BindingKind(num)}
		case 4:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			value = BindingValue{Kind: BindingAssetAmount}
			return consumeMessage(bytes, func(num protowire.Number, typ protowire.Type, varint uint64, bytes []byte) error {
				switch num {
				case 1:
					if err := expect(num, typ, protowire.VarintType); err != nil {
						return err
					}
					value.AssetID = AssetID(varint)
				case 2:
					if err := expect(num, typ, protowire.BytesType); err != nil {
						return err
					}
					amount, err := decodeAmount(bytes)
					if err != nil {
						return err
					}
					value.Amount = amount
				}
				return nil
			})
		case 5:
			if err := expect(num, typ, protowire.VarintType); err != nil {
				return err
			}
			value = BindingValue{Kind: BindingAssetID, AssetID: AssetID(varint)}
		}
		return nil
	})
	if err == nil && value.Kind == 0 {
		err = fmt.Errorf("empty binding value")
	}
	return value, err
}

func decodeSpawn(b []byte) (Spawn, error) {
	var spawn Spawn
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, varint uint64, bytes []byte) error {
		switch num {
		case 1:
			if err := expect(num, typ, protowire.VarintType); err != nil {
				return err
			}
			spawn.Network = NetworkID(varint)
		case 2:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			spawn.Salt = append([]byte{}, bytes...)
		case 3:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			asset, err := decodeFundsEntry(bytes)
			if err != nil {
				return err
			}
			spawn.Funds = append(spawn.Funds, asset)
		case 4:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			program, err := decodeProgram(bytes)
			if err != nil {
				return err
			}
			spawn.Program = program
		}
		return nil
	})
	return spawn, err
}

func decodeFundsEntry(b []byte) (Asset, error) {
	var asset Asset
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, varint uint64, bytes []byte) error {
		switch num {
		case 1:
			if err := expect(num, typ, protowire.VarintType); err != nil {
				return err
			}
			asset.ID = AssetID(varint)
		case 2:
			if err := expect(num, typ, protowire.BytesType); err != nil {
				return err
			}
			amount, err := decodeAmount(bytes)
			if err != nil {
				return err
			}
			asset.Amount = amount
		}
		return nil
	})
	return asset, err
}

func decodeAmount(b []byte) (Amount, error) {
	var amount Amount
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, _ uint64, bytes []byte) error {
		if num != 1 && num != 2 {
			return nil
		}
		if err := expect(num, typ, protowire.BytesType); err != nil {
			return err
		}
		value, err := decodeU128(bytes)
		if err != nil {
			return err
		}
		amount = Fixed(value)
		if num == 2 {
			amount = Ratio(value)
		}
		return nil
	})
	return amount, err
}

func decodeU128(b []byte) (U128, error) {
	var value U128
	err := consumeMessage(b, func(num protowire.Number, typ protowire.Type, varint uint64, _ []byte) error {
		switch num {
		case 1:
			if err := expect(num, typ, protowire.VarintType); err != nil {
				return err
			}
			value.High = varint
		case 2:
			if err := expect(num, typ, protowire.VarintType); err != nil {
				return err
			}
			value.Low = varint
		}
		return nil
	})
	return value, err
}
