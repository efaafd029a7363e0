package types

import (
	"encoding/json"

	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

// ExecuteMsg is the JSON message accepted by the gateway contract. Exactly
// one field is set.
type ExecuteMsg struct {
	ExecuteProgram           *ExecuteProgramMsg           `json:"execute_program,omitempty"`
	ExecuteProgramPrivileged *ExecuteProgramPrivilegedMsg `json:"execute_program_privileged,omitempty"`
	RegisterNetwork          *Network                     `json:"register_network,omitempty"`
	RegisterAsset            *AssetInfo                   `json:"register_asset,omitempty"`
	Pause                    *struct{}                    `json:"pause,omitempty"`
	Unpause                  *struct{}                    `json:"unpause,omitempty"`
}

// ExecuteProgramMsg runs a program in the interpreter of the sender. The
// funds sent along are moved into the interpreter first.
type ExecuteProgramMsg struct {
	// Program is the wire encoded program.
	Program []byte `json:"program"`
	// Tip is the account bound to Relayer bindings.
	Tip string `json:"tip,omitempty"`
}

// ExecuteProgramPrivilegedMsg continues a program spawned on another
// network. It is only accepted from the intermediate sender of the source
// interpreter.
type ExecuteProgramPrivilegedMsg struct {
	// CallOrigin is the user that ran the spawning program.
	CallOrigin UserOrigin `json:"call_origin"`
	// InterpreterSalt is the salt of the spawning interpreter.
	InterpreterSalt []byte `json:"interpreter_salt"`
	// Salt is the salt of the interpreter running Program.
	Salt []byte `json:"salt"`
	// Program is the wire encoded program.
	Program []byte `json:"program"`
	Tip     string `json:"tip,omitempty"`
}

// SourceOrigin is the origin of the spawning interpreter.
func (m ExecuteProgramPrivilegedMsg) SourceOrigin() InterpreterOrigin {
	return InterpreterOrigin{UserOrigin: m.CallOrigin, Salt: m.InterpreterSalt}
}

// Origin is the origin of the interpreter running the spawned program.
func (m ExecuteProgramPrivilegedMsg) Origin() InterpreterOrigin {
	return InterpreterOrigin{UserOrigin: m.CallOrigin, Salt: m.Salt}
}

// ParseExecuteMsg decodes a gateway message.
func ParseExecuteMsg(bz []byte) (ExecuteMsg, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(bz, &msg); err != nil {
		return ExecuteMsg{}, sdkerrors.Wrap(ErrInvalidMsg, err.Error())
	}
	set := 0
	for _, present := range []bool{
		msg.ExecuteProgram != nil, msg.ExecuteProgramPrivileged != nil,
		msg.RegisterNetwork != nil, msg.RegisterAsset != nil,
		msg.Pause != nil, msg.Unpause != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return ExecuteMsg{}, sdkerrors.Wrapf(ErrInvalidMsg, "expected exactly one message, got %d", set)
	}
	return msg, nil
}

// MustMarshal encodes the message and panics on error.
func (m ExecuteMsg) MustMarshal() []byte {
	bz, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return bz
}

// SpawnMemo is the ICS-20 memo asking the remote gateway to continue a
// program through the wasm hook.
type SpawnMemo struct {
	Wasm SpawnWasm `json:"wasm"`
}

// SpawnWasm names the remote gateway and the privileged message.
type SpawnWasm struct {
	Contract string     `json:"contract"`
	Msg      ExecuteMsg `json:"msg"`
}

// NewSpawnMemo returns the memo of the last packet of a spawn.
func NewSpawnMemo(gateway string, msg ExecuteProgramPrivilegedMsg) string {
	bz, err := json.Marshal(SpawnMemo{Wasm: SpawnWasm{
		Contract: gateway,
		Msg:      ExecuteMsg{ExecuteProgramPrivileged: &msg},
	}})
	if err != nil {
		panic(err)
	}
	return string(bz)
}

// CallPayload is the JSON document a Call instruction dispatches once its
// bindings are resolved.
type CallPayload struct {
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    []CallFunds     `json:"funds,omitempty"`
}

// CallFunds is an amount of a local denom sent with a call.
type CallFunds struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// ExecuteResult is returned by the gateway for program executions.
type ExecuteResult struct {
	Interpreter string `json:"interpreter"`
}
