package types

// contract host events
const (
	EventTypeExecute = "execute_contract"

	AttributeKeyContract = "contract"
	AttributeKeySender   = "sender"
	AttributeKeyFunds    = "funds"
)
