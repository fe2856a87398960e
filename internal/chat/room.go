package chat

import "sync"

// Sink is the outbound side of a client connection. Send must not block; it
// reports false when the event could not be queued.
type Sink interface {
	ID() string
	Send(Event) bool
}

// member is the room's record of a bound session.
type member struct {
	sink   Sink
	name   string
	avatar string
}

// Room holds the member set and bounded history of one named room.
type Room struct {
	name string

	mu        sync.Mutex
	members   map[string]*member
	history   *history
	reclaimed bool
}

func newRoom(name string, historySize int) *Room {
	return &Room{
		name:    name,
		members: make(map[string]*member),
		history: newHistory(historySize),
	}
}

// Name returns the normalized room name.
func (r *Room) Name() string {
	return r.name
}

// Online returns the current member count.
func (r *Room) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// History returns a copy of the stored messages, oldest first.
func (r *Room) History() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.messages()
}

// HasMember reports whether the session with the given id is bound here.
func (r *Room) HasMember(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[id]
	return ok
}

func (r *Room) addLocked(m *member) {
	r.members[m.sink.ID()] = m
}

func (r *Room) removeLocked(id string) (*member, bool) {
	m, ok := r.members[id]
	if ok {
		delete(r.members, id)
	}
	return m, ok
}

// broadcastLocked delivers ev to every member except the one whose id equals
// except. An empty except reaches everyone.
func (r *Room) broadcastLocked(ev Event, except string) int {
	delivered := 0
	for id, m := range r.members {
		if except != "" && id == except {
			continue
		}
		if m.sink.Send(ev) {
			delivered++
		}
	}
	return delivered
}

func lockPair(a, b *Room) {
	if a.name < b.name {
		a.mu.Lock()
		b.mu.Lock()
		return
	}
	b.mu.Lock()
	a.mu.Lock()
}

func unlockPair(a, b *Room) {
	a.mu.Unlock()
	b.mu.Unlock()
}
