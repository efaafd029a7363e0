package types

// rate limiting events
const (
	EventTypeRateLimitExceeded = "rate_limit_exceeded"

	AttributeKeyDenom     = "denom"
	AttributeKeyAmount    = "amount"
	AttributeKeyDirection = "direction"
	AttributeKeyChannel   = "channel"
)
