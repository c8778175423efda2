package domain

import (
	"bytes"
	"fmt"
)

// Confirmation records whether the user already has an ingredient.
type Confirmation int

const (
	// ConfirmUnknown means the user has not been asked yet.
	ConfirmUnknown Confirmation = iota
	// ConfirmHave means the ingredient is on hand.
	ConfirmHave
	// ConfirmNeedToBuy means the ingredient goes on the list.
	ConfirmNeedToBuy
)

// String returns a human-readable confirmation state.
func (c Confirmation) String() string {
	switch c {
	case ConfirmHave:
		return "have"
	case ConfirmNeedToBuy:
		return "need"
	default:
		return "unknown"
	}
}

// Resolved reports whether the user has answered for this ingredient.
func (c Confirmation) Resolved() bool {
	return c == ConfirmHave || c == ConfirmNeedToBuy
}

// MarshalJSON encodes the state as null, true or false.
func (c Confirmation) MarshalJSON() ([]byte, error) {
	switch c {
	case ConfirmHave:
		return []byte("true"), nil
	case ConfirmNeedToBuy:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, true or false.
func (c *Confirmation) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null":
		*c = ConfirmUnknown
	case "true":
		*c = ConfirmHave
	case "false":
		*c = ConfirmNeedToBuy
	default:
		return fmt.Errorf("confirmed_have: unexpected value %s", data)
	}
	return nil
}
