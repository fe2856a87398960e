// Package server defines the WebSocket frame envelope and payload helpers
// that are reused across client and hub logic.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Inbound event names.
const (
	eventJoin          = "join"
	eventMessage       = "message"
	eventTyping        = "typing"
	eventSwitchRoom    = "switchRoom"
	eventSetProfilePic = "setProfilePic"
)

// Frame is the envelope for every WebSocket message in both directions:
// {"event": "<name>", "data": <payload>}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is the data of a join frame. Pic is the legacy spelling of
// Avatar and is used only when Avatar is empty.
type JoinPayload struct {
	Name   string `json:"name"`
	Room   string `json:"room"`
	Avatar string `json:"avatar,omitempty"`
	Pic    string `json:"pic,omitempty"`
}

func (p JoinPayload) avatar() string {
	if p.Avatar != "" {
		return p.Avatar
	}
	return p.Pic
}

var errEmptyPayload = errors.New("empty payload")

// decodeValue decodes data into target. Scalar events may arrive either as
// the bare value or wrapped in an object under field, e.g. "hi" or
// {"text": "hi"}.
func decodeValue(data json.RawMessage, field string, target any) error {
	if len(data) == 0 || string(data) == "null" {
		return errEmptyPayload
	}
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	value, ok := wrapped[field]
	if !ok {
		return fmt.Errorf("decode %s: missing field", field)
	}
	if err := json.Unmarshal(value, target); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
