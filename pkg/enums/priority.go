package enums

import "fmt"

// Priority controls the retry ceiling assigned at enqueue time.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

var validPriorities = []Priority{PriorityHigh, PriorityNormal, PriorityLow}

func (p Priority) IsValid() bool {
	for _, candidate := range validPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriority converts raw strings into Priority. An empty string maps to
// PriorityNormal.
func ParsePriority(value string) (Priority, error) {
	if value == "" {
		return PriorityNormal, nil
	}
	for _, candidate := range validPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q", value)
}
