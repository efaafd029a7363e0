package types

// fungibles ledger events
const (
	EventTypeTransfer = "fungible_transfer"
	EventTypeMint     = "fungible_mint"
	EventTypeBurn     = "fungible_burn"

	AttributeKeyDenom     = "denom"
	AttributeKeyAmount    = "amount"
	AttributeKeySender    = "sender"
	AttributeKeyRecipient = "recipient"
	AttributeKeyAccount   = "account"

	AttributeValueCategory = ModuleName
)
