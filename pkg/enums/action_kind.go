package enums

import "fmt"

// ActionKind describes the mutation a queued pending action carries.
type ActionKind string

const (
	ActionKindStart  ActionKind = "start"
	ActionKindFinish ActionKind = "finish"
	ActionKindUpdate ActionKind = "update"
)

var validActionKinds = []ActionKind{
	ActionKindStart,
	ActionKindFinish,
	ActionKindUpdate,
}

// IsValid reports whether the value matches the canonical action kind enum.
func (a ActionKind) IsValid() bool {
	for _, candidate := range validActionKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActionKind converts the raw string to ActionKind.
func ParseActionKind(value string) (ActionKind, error) {
	for _, candidate := range validActionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid action kind %q", value)
}
