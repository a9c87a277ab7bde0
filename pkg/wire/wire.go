// Package wire holds the JSON conventions shared by the HTTP handlers and
// the API client: the write-response envelope and the 0/1 boolean encoding.
package wire

import (
	"bytes"
	"fmt"
)

// Envelope is the response body for every write operation.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK is the canonical success response.
func OK() Envelope {
	return Envelope{Success: true}
}

// Fail builds a failure response with the given error text.
func Fail(err string) Envelope {
	return Envelope{Success: false, Error: err}
}

// IntBool is a boolean transmitted as 0 or 1. It also accepts JSON true and
// false on input so both encodings round-trip.
type IntBool bool

func (b IntBool) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (b *IntBool) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("1")), bytes.Equal(data, []byte("true")):
		*b = true
	case bytes.Equal(data, []byte("0")), bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("null")):
		*b = false
	default:
		return fmt.Errorf("invalid boolean value %q", data)
	}
	return nil
}

// Bool returns the plain boolean value.
func (b IntBool) Bool() bool {
	return bool(b)
}
