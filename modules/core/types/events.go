package types

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ErrorAttributeKeySuffix marks attributes of events emitted by an application
// callback whose state changes were discarded.
const ErrorAttributeKeySuffix = "-error"

// ConvertToErrorEvents rewrites every attribute key of events with the error
// suffix. The event types are kept unchanged.
func ConvertToErrorEvents(events sdk.Events) sdk.Events {
	if events == nil {
		return nil
	}

	errorEvents := make(sdk.Events, len(events))
	for i, event := range events {
		attributes := make([]sdk.Attribute, len(event.Attributes))
		for j, attribute := range event.Attributes {
			attributes[j] = sdk.NewAttribute(string(attribute.Key)+ErrorAttributeKeySuffix, string(attribute.Value))
		}
		errorEvents[i] = sdk.NewEvent(event.Type, attributes...)
	}

	return errorEvents
}
