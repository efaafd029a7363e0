package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	host "github.com/ComposableFi/centauri/modules/core/24-host"
)

// memo keys understood by the hooks
const (
	ForwardMemoKey  = "forward"
	WasmMemoKey     = "wasm"
	CallbackMemoKey = "ibc_callback"
)

const (
	// DefaultForwardTimeout is the relative timeout of a forwarded packet.
	DefaultForwardTimeout = 10 * time.Minute
	// DefaultForwardRetries is the number of resends after a forwarded packet timed out.
	DefaultForwardRetries uint8 = 1
)

// Memo is the hook related content of an ICS-20 memo.
type Memo struct {
	Forward *ForwardMetadata `json:"forward,omitempty"`
	Wasm    *WasmMetadata    `json:"wasm,omitempty"`
}

// ForwardMetadata describes the next hop of a forwarded transfer.
type ForwardMetadata struct {
	Receiver string      `json:"receiver"`
	Port     string      `json:"port"`
	Channel  string      `json:"channel"`
	Timeout  Duration    `json:"timeout,omitempty"`
	Retries  *uint8      `json:"retries,omitempty"`
	Next     *JSONObject `json:"next,omitempty"`
}

// WasmMetadata describes a contract call paid for with the received funds.
type WasmMetadata struct {
	Contract string          `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
}

// Duration accepts either a Go duration string or a number of nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(bz []byte) error {
	var raw interface{}
	if err := json.Unmarshal(bz, &raw); err != nil {
		return err
	}
	switch value := raw.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(bz))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// JSONObject is the memo forwarded to the next hop. It may be given either as
// a nested object or as a JSON encoded string.
type JSONObject struct {
	raw string
}

// NewJSONObject wraps an already encoded memo.
func NewJSONObject(memo string) *JSONObject {
	return &JSONObject{raw: memo}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *JSONObject) UnmarshalJSON(bz []byte) error {
	var nested string
	if err := json.Unmarshal(bz, &nested); err == nil {
		o.raw = nested
		return nil
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(bz, &object); err != nil {
		return fmt.Errorf("next must be an object or a string: %w", err)
	}
	o.raw = string(bz)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o JSONObject) MarshalJSON() ([]byte, error) {
	if o.raw == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(o.raw)) && strings.HasPrefix(strings.TrimSpace(o.raw), "{") {
		return []byte(o.raw), nil
	}
	return json.Marshal(o.raw)
}

// String returns the memo of the next hop.
func (o *JSONObject) String() string {
	if o == nil {
		return ""
	}
	return o.raw
}

// ParseMemo extracts the hook content of memo. Memos that are not a JSON
// object, or carry none of the hook keys, return ok == false and are left to
// the application. A memo naming a hook with invalid content is an error.
func ParseMemo(memo string) (m Memo, ok bool, err error) {
	if strings.TrimSpace(memo) == "" {
		return Memo{}, false, nil
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(memo), &object); err != nil {
		return Memo{}, false, nil
	}
	_, hasForward := object[ForwardMemoKey]
	_, hasWasm := object[WasmMemoKey]
	if !hasForward && !hasWasm {
		return Memo{}, false, nil
	}

	if err := json.Unmarshal([]byte(memo), &m); err != nil {
		return Memo{}, true, sdkerrors.Wrap(ErrInvalidMemo, err.Error())
	}
	if hasForward && hasWasm {
		return Memo{}, true, sdkerrors.Wrap(ErrInvalidMemo, "forward and wasm hooks are exclusive")
	}
	if hasForward {
		if m.Forward == nil {
			return Memo{}, true, sdkerrors.Wrap(ErrInvalidForwardMetadata, "forward cannot be null")
		}
		if err := m.Forward.Validate(); err != nil {
			return Memo{}, true, err
		}
	}
	if hasWasm {
		if m.Wasm == nil {
			return Memo{}, true, sdkerrors.Wrap(ErrInvalidMemo, "wasm cannot be null")
		}
		if err := m.Wasm.Validate(); err != nil {
			return Memo{}, true, err
		}
	}
	return m, true, nil
}

// ParseCallback returns the contract an outgoing packet memo asks to be
// notified, if any. Other memo content is meant for the receiving chain.
func ParseCallback(memo string) (string, bool) {
	var object struct {
		IBCCallback string `json:"ibc_callback"`
	}
	if err := json.Unmarshal([]byte(memo), &object); err != nil || object.IBCCallback == "" {
		return "", false
	}
	return object.IBCCallback, true
}

// Validate checks the next hop is well formed.
func (f ForwardMetadata) Validate() error {
	if strings.TrimSpace(f.Receiver) == "" {
		return sdkerrors.Wrap(ErrInvalidForwardMetadata, "receiver cannot be blank")
	}
	if err := host.PortIdentifierValidator(f.Port); err != nil {
		return sdkerrors.Wrapf(ErrInvalidForwardMetadata, "port: %v", err)
	}
	if err := host.ChannelIdentifierValidator(f.Channel); err != nil {
		return sdkerrors.Wrapf(ErrInvalidForwardMetadata, "channel: %v", err)
	}
	if f.Timeout < 0 {
		return sdkerrors.Wrap(ErrInvalidForwardMetadata, "timeout cannot be negative")
	}
	return nil
}

// GetTimeout returns the relative timeout of the next hop.
func (f ForwardMetadata) GetTimeout() time.Duration {
	if f.Timeout == 0 {
		return DefaultForwardTimeout
	}
	return time.Duration(f.Timeout)
}

// GetRetries returns the number of resends allowed after a timeout.
func (f ForwardMetadata) GetRetries() uint8 {
	if f.Retries == nil {
		return DefaultForwardRetries
	}
	return *f.Retries
}

// Validate checks the contract address and that the message is a JSON object.
func (w WasmMetadata) Validate() error {
	if _, err := sdk.AccAddressFromBech32(w.Contract); err != nil {
		return sdkerrors.Wrapf(ErrInvalidMemo, "invalid wasm contract: %v", err)
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(w.Msg, &object); err != nil {
		return sdkerrors.Wrap(ErrInvalidMemo, "wasm msg must be a JSON object")
	}
	return nil
}
