package enums

import "fmt"

// EmailEventAction enumerates post-send engagement events.
type EmailEventAction string

const (
	EmailEventSent         EmailEventAction = "sent"
	EmailEventOpened       EmailEventAction = "opened"
	EmailEventClicked      EmailEventAction = "clicked"
	EmailEventUnsubscribed EmailEventAction = "unsubscribed"
)

var validEmailEventActions = []EmailEventAction{
	EmailEventSent,
	EmailEventOpened,
	EmailEventClicked,
	EmailEventUnsubscribed,
}

func (a EmailEventAction) IsValid() bool {
	for _, candidate := range validEmailEventActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseEmailEventAction converts raw strings into EmailEventAction.
func ParseEmailEventAction(value string) (EmailEventAction, error) {
	for _, candidate := range validEmailEventActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email event action %q", value)
}
