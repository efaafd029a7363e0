package types_test

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"pgregory.net/rapid"

	"github.com/ComposableFi/centauri/modules/apps/cvm/types"
)

func amountGen() *rapid.Generator {
	return rapid.Custom(func(t *rapid.T) types.Amount {
		if rapid.Bool().Draw(t, "ratio").(bool) {
			if rapid.Bool().Draw(t, "everything").(bool) {
				return types.Everything()
			}
			return types.Ratio(types.NewU128(rapid.Uint64Min(1).Draw(t, "share").(uint64)))
		}
		return types.Fixed(types.U128{
			High: rapid.Uint64().Draw(t, "high").(uint64),
			Low:  rapid.Uint64().Draw(t, "low").(uint64),
		})
	})
}

func fundsGen() *rapid.Generator {
	return rapid.Custom(func(t *rapid.T) types.Funds {
		n := rapid.IntRange(1, 3).Draw(t, "funds").(int)
		funds := make(types.Funds, n)
		for i := range funds {
			funds[i] = types.Asset{
				ID:     types.AssetID(rapid.Uint64().Draw(t, "asset").(uint64)),
				Amount: amountGen().Draw(t, "amount").(types.Amount),
			}
		}
		return funds
	})
}

func bytesGen(min, max int) *rapid.Generator {
	return rapid.SliceOfN(rapid.Byte(), min, max)
}

func callGen() *rapid.Generator {
	return rapid.Custom(func(t *rapid.T) *types.Call {
		payload := bytesGen(1, 32).Draw(t, "payload").([]byte)
		positions := rapid.SliceOfNDistinct(rapid.IntRange(0, len(payload)), 0, 4, nil).Draw(t, "positions").([]int)
		sort.Ints(positions)

		call := &types.Call{Payload: payload}
		for _, position := range positions {
			value := types.BindingValue{Kind: types.BindingKind(rapid.IntRange(1, 5).Draw(t, "kind").(int))}
			switch value.Kind {
			case types.BindingAssetAmount:
				value.AssetID = types.AssetID(rapid.Uint64().Draw(t, "asset").(uint64))
				value.Amount = amountGen().Draw(t, "amount").(types.Amount)
			case types.BindingAssetID:
				value.AssetID = types.AssetID(rapid.Uint64().Draw(t, "asset").(uint64))
			}
			call.Bindings = append(call.Bindings, types.Binding{Position: uint32(position), Value: value})
		}
		return call
	})
}

func programGen(depth int) *rapid.Generator {
	return rapid.Custom(func(t *rapid.T) types.Program {
		program := types.Program{Salt: bytesGen(1, 8).Draw(t, "salt").([]byte)}
		n := rapid.IntRange(1, 4).Draw(t, "instructions").(int)
		for i := 0; i < n; i++ {
			kinds := 2
			if depth > 0 {
				kinds = 3
			}
			var instruction types.Instruction
			switch rapid.IntRange(1, kinds).Draw(t, "instruction").(int) {
			case 1:
				instruction.Transfer = &types.Transfer{
					To:    bytesGen(20, 20).Draw(t, "to").([]byte),
					Funds: fundsGen().Draw(t, "funds").(types.Funds),
				}
			case 2:
				instruction.Call = callGen().Draw(t, "call").(*types.Call)
			case 3:
				instruction.Spawn = &types.Spawn{
					Network: types.NetworkID(rapid.Uint32Min(1).Draw(t, "network").(uint32)),
					Salt:    bytesGen(1, 8).Draw(t, "spawn salt").([]byte),
					Funds:   fundsGen().Draw(t, "spawn funds").(types.Funds),
					Program: programGen(depth-1).Draw(t, "child").(types.Program),
				}
			}
			program.Instructions = append(program.Instructions, instruction)
		}
		return program
	})
}

func TestProgramWireRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		program := programGen(2).Draw(t, "program").(types.Program)
		require.NoError(t, program.Validate())

		bz := types.EncodeProgram(program)
		decoded, err := types.DecodeProgram(bz)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(decoded.Instructions) != len(program.Instructions) {
			t.Fatalf("expected %d instructions, got %d", len(program.Instructions), len(decoded.Instructions))
		}
		if !bytes.Equal(types.EncodeProgram(decoded), bz) {
			t.Fatalf("re-encoding differs")
		}
	})
}

func TestDecodeProgramExample(t *testing.T) {
	program := types.Program{
		Salt: []byte("salt"),
		Instructions: []types.Instruction{
			{Transfer: &types.Transfer{
				To:    []byte("bob"),
				Funds: types.Funds{{ID: 1, Amount: types.Fixed(types.NewU128(10))}},
			}},
			{Call: &types.Call{
				Payload: []byte(`{"to":""}`),
				Bindings: []types.Binding{
					{Position: 7, Value: types.BindingValue{Kind: types.BindingSelf}},
				},
			}},
			{Spawn: &types.Spawn{
				Network: 2,
				Salt:    []byte("child"),
				Funds:   types.Funds{{ID: 1, Amount: types.Everything()}},
				Program: types.Program{Instructions: []types.Instruction{
					{Call: &types.Call{Payload: []byte(`{}`)}},
				}},
			}},
		},
	}

	decoded, err := types.DecodeProgram(types.EncodeProgram(program))
	require.NoError(t, err)
	require.Equal(t, program.Salt, decoded.Salt)
	require.Equal(t, program.Instructions[0].Transfer, decoded.Instructions[0].Transfer)
	require.Equal(t, program.Instructions[1].Call, decoded.Instructions[1].Call)
	require.Equal(t, types.NetworkID(2), decoded.Instructions[2].Spawn.Network)
	require.Equal(t, types.Everything(), decoded.Instructions[2].Spawn.Funds[0].Amount)
	require.Equal(t, []byte(`{}`), decoded.Instructions[2].Spawn.Program.Instructions[0].Call.Payload)
}

func TestDecodeProgramValidation(t *testing.T) {
	call := func(payload string, positions ...uint32) types.Program {
		c := &types.Call{Payload: []byte(payload)}
		for _, position := range positions {
			c.Bindings = append(c.Bindings, types.Binding{Position: position, Value: types.BindingValue{Kind: types.BindingRelayer}})
		}
		return types.Program{Instructions: []types.Instruction{{Call: c}}}
	}
	transfer := func(amount types.Amount) types.Program {
		return types.Program{Instructions: []types.Instruction{{Transfer: &types.Transfer{
			To:    []byte("bob"),
			Funds: types.Funds{{ID: 1, Amount: amount}},
		}}}}
	}

	testCases := []struct {
		name    string
		program types.Program
		expErr  error
	}{
		{"increasing positions", call("abcdef", 0, 3, 6), nil},
		{"repeated position", call("abcdef", 2, 2), types.ErrInvalidBinding},
		{"decreasing positions", call("abcdef", 4, 1), types.ErrInvalidBinding},
		{"position past payload", call("abc", 4), types.ErrInvalidBinding},
		{"whole balance ratio", transfer(types.Everything()), nil},
		{"zero ratio", transfer(types.Ratio(types.U128{})), types.ErrInvalidAmount},
		{"ratio above one", transfer(types.Ratio(types.U128{High: 1, Low: 1})), types.ErrInvalidAmount},
		{"zero fixed amount decodes", transfer(types.Fixed(types.U128{})), nil},
		{
			"empty spawned program",
			types.Program{Instructions: []types.Instruction{{Spawn: &types.Spawn{
				Network: 2,
				Funds:   types.Funds{{ID: 1, Amount: types.Everything()}},
			}}}},
			types.ErrInvalidProgram,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := types.DecodeProgram(types.EncodeProgram(tc.program))
			if tc.expErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.expErr)
			}
		})
	}
}

func TestDecodeProgramMalformed(t *testing.T) {
	// instruction field carrying a varint
	bz := protowire.AppendTag(nil, 1, protowire.VarintType)
	bz = protowire.AppendVarint(bz, 7)
	_, err := types.DecodeProgram(bz)
	require.ErrorIs(t, err, types.ErrInvalidProgram)

	// truncated length delimited field
	_, err = types.DecodeProgram([]byte{0x0a, 0x05, 0x01})
	require.ErrorIs(t, err, types.ErrInvalidProgram)

	// empty instruction
	_, err = types.DecodeProgram([]byte{0x0a, 0x00})
	require.ErrorIs(t, err, types.ErrInvalidProgram)

	// unknown fields are skipped
	bz = protowire.AppendTag(nil, 9, protowire.Fixed32Type)
	bz = protowire.AppendFixed32(bz, 1)
	program, err := types.DecodeProgram(bz)
	require.NoError(t, err)
	require.Empty(t, program.Instructions)
}
