package types

// memo hooks events
const (
	EventTypeWasmHook        = "ibc_wasm_hook"
	EventTypeForward         = "ibc_forward"
	EventTypeForwardComplete = "ibc_forward_complete"
	EventTypeCallback        = "ibc_callback"

	AttributeKeyContract           = "contract"
	AttributeKeyIntermediateSender = "intermediate_sender"
	AttributeKeyReceiver           = "receiver"
	AttributeKeyChannel            = "channel"
	AttributeKeySequence           = "sequence"
	AttributeKeyRetries            = "retries_remaining"
	AttributeKeySuccess            = "success"
	AttributeKeyError              = "error"
)
