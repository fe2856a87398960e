package chat

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Outbound event names.
const (
	EventHistory  = "history"
	EventMessage  = "message"
	EventSystem   = "system"
	EventTyping   = "typing"
	EventRoomList = "roomList"
)

// Event is a named outbound payload delivered to a Sink.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// SystemType distinguishes presence notices.
type SystemType string

// Presence notice kinds.
const (
	SystemJoined SystemType = "joined"
	SystemLeft   SystemType = "left"
)

// SystemNotice announces a participant joining or leaving a room together
// with the room's occupancy right after the transition.
type SystemNotice struct {
	Type   SystemType `json:"type"`
	Text   string     `json:"text"`
	Online int        `json:"online"`
	Time   int64      `json:"time"`
}

// TypingNotice is relayed to the other members of a room.
type TypingNotice struct {
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

// RoomOccupancy is the number of members bound to a room.
type RoomOccupancy struct {
	Room   string `json:"room"`
	Online int    `json:"online"`
}

// Directory lists the occupancy of every known room in registry order.
// It encodes as a JSON object keyed by room name, preserving that order.
type Directory []RoomOccupancy

// Counts returns the directory as a map.
func (d Directory) Counts() map[string]int {
	counts := make(map[string]int, len(d))
	for _, entry := range d {
		counts[entry.Room] = entry.Online
	}
	return counts
}

// MarshalJSON implements json.Marshaler.
func (d Directory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Room)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(entry.Online))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
