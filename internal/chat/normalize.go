package chat

import (
	"strings"
	"unicode/utf8"
)

// Defaults and limits applied to client supplied values.
const (
	DefaultRoom        = "general"
	DefaultName        = "Guest"
	MaxRoomLength      = 32
	MaxNameLength      = 24
	MaxTextLength      = 500
	DefaultHistorySize = 100
)

// NormalizeRoom trims and lowercases a room name, truncates it to
// MaxRoomLength runes and substitutes DefaultRoom when nothing is left.
func NormalizeRoom(room string) string {
	room = strings.TrimSpace(truncateRunes(strings.ToLower(strings.TrimSpace(room)), MaxRoomLength))
	if room == "" {
		return DefaultRoom
	}
	return room
}

// NormalizeName trims a display name, truncates it to MaxNameLength runes
// and substitutes DefaultName when nothing is left.
func NormalizeName(name string) string {
	name = strings.TrimSpace(truncateRunes(strings.TrimSpace(name), MaxNameLength))
	if name == "" {
		return DefaultName
	}
	return name
}

// NormalizeText trims message text and truncates it to MaxTextLength runes.
// The second return value is false when the text is empty and must be dropped.
func NormalizeText(text string) (string, bool) {
	text = strings.TrimSpace(truncateRunes(strings.TrimSpace(text), MaxTextLength))
	return text, text != ""
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
