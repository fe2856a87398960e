package chat

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultMaxAvatarSize bounds the avatar reference stored per session.
const DefaultMaxAvatarSize = 256 << 10

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger used for session transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithClock overrides the time source used for message and notice stamps.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// WithHistorySize sets how many messages each room retains.
func WithHistorySize(size int) Option {
	return func(h *Hub) { h.historySize = size }
}

// WithReclaimEmptyRooms removes rooms from the registry once they are empty.
func WithReclaimEmptyRooms(reclaim bool) Option {
	return func(h *Hub) { h.reclaimEmpty = reclaim }
}

// WithMaxAvatarSize sets the largest accepted avatar reference in bytes.
func WithMaxAvatarSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.maxAvatarSize = size
		}
	}
}

// Hub tracks every connected session and the room registry they share.
type Hub struct {
	registry      *Registry
	logger        *slog.Logger
	now           func() time.Time
	historySize   int
	reclaimEmpty  bool
	maxAvatarSize int

	mu       sync.RWMutex
	sessions map[string]*Session

	// dirMu serializes directory broadcasts so clients never observe an
	// older directory after a newer one.
	dirMu sync.Mutex
}

// NewHub creates a Hub with an empty registry.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		logger:        slog.Default(),
		now:           time.Now,
		historySize:   DefaultHistorySize,
		maxAvatarSize: DefaultMaxAvatarSize,
		sessions:      make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registry = NewRegistry(h.historySize, h.reclaimEmpty)
	return h
}

// Registry exposes the room registry for read-only projections.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Connect binds a new session to sink. The session starts without a room and
// nothing is broadcast.
func (h *Hub) Connect(sink Sink) *Session {
	s := &Session{id: sink.ID(), sink: sink, hub: h}

	h.mu.Lock()
	h.sessions[s.id] = s
	count := len(h.sessions)
	h.mu.Unlock()

	h.logger.Debug("session connected", "session", s.id, "sessions", count)
	return s
}

// Session returns the connected session with the given id.
func (h *Hub) Session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// DisconnectAll disconnects every session, as on shutdown.
func (h *Hub) DisconnectAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.Disconnect()
	}
}

func (h *Hub) removeSession(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	count := len(h.sessions)
	h.mu.Unlock()

	h.logger.Debug("session disconnected", "session", id, "sessions", count)
}

// broadcastDirectory sends the current room directory to every connected
// session regardless of room.
func (h *Hub) broadcastDirectory() {
	h.dirMu.Lock()
	defer h.dirMu.Unlock()

	ev := Event{Name: EventRoomList, Data: h.registry.Snapshot()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.sink.Send(ev)
	}
}

func (h *Hub) timestamp() int64 {
	return h.now().UnixMilli()
}

// normalizeAvatar trims an avatar reference. Oversized references are
// rejected.
func (h *Hub) normalizeAvatar(avatar string) (string, bool) {
	avatar = strings.TrimSpace(avatar)
	if len(avatar) > h.maxAvatarSize {
		return "", false
	}
	return avatar, true
}
