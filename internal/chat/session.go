package chat

import (
	"fmt"
	"sync"
)

// Session is the per-connection participant binding. Its methods are the
// inbound client actions; each one is serialized against the others so a
// switch can never interleave with a disconnect of the same session.
type Session struct {
	id   string
	sink Sink
	hub  *Hub

	mu     sync.Mutex
	name   string
	avatar string
	room   *Room
	closed bool
}

// ID returns the connection handle the session is bound to.
func (s *Session) ID() string {
	return s.id
}

// Name returns the current display name, empty before the first join.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Avatar returns the current avatar reference.
func (s *Session) Avatar() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avatar
}

// Room returns the name of the joined room, or "" when not joined.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return ""
	}
	return s.room.name
}

// Joined reports whether the session is bound to a room.
func (s *Session) Joined() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room != nil
}

// Join binds the session to room under name. The joining connection receives
// the room history, the room's members receive a joined notice and every
// client receives the updated directory. Joining the current room again only
// refreshes the stored profile and re-sends history; joining another room
// while already joined is a switch.
func (s *Session) Join(name, room, avatar string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	target := NormalizeRoom(room)
	s.name = NormalizeName(name)
	if normalized, ok := s.hub.normalizeAvatar(avatar); ok {
		s.avatar = normalized
	} else {
		s.hub.logger.Warn("avatar exceeds size limit; keeping current", "session", s.id)
	}

	switch {
	case s.room == nil:
		joined := s.hub.registry.acquire(target)
		online := s.enterLocked(joined)
		joined.mu.Unlock()
		s.hub.logger.Info("participant joined", "session", s.id, "name", s.name, "room", target, "online", online)
	case s.room.name == target:
		s.room.mu.Lock()
		if m, ok := s.room.members[s.id]; ok {
			m.name = s.name
			m.avatar = s.avatar
		}
		s.sink.Send(Event{Name: EventHistory, Data: s.room.history.messages()})
		s.room.mu.Unlock()
	default:
		s.moveLocked(target)
	}

	s.hub.broadcastDirectory()
}

// SwitchRoom moves a joined session to room. It is a no-op when the
// normalized name equals the current room or the session has not joined.
func (s *Session) SwitchRoom(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.room == nil {
		return
	}

	target := NormalizeRoom(room)
	if target == s.room.name {
		return
	}
	s.moveLocked(target)
	s.hub.broadcastDirectory()
}

// SetProfile replaces the session's avatar. When joined, the membership
// record is updated too so later notices reflect it. Oversized avatars are
// dropped.
func (s *Session) SetProfile(avatar string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	normalized, ok := s.hub.normalizeAvatar(avatar)
	if !ok {
		s.hub.logger.Warn("avatar exceeds size limit; ignoring", "session", s.id)
		return
	}
	s.avatar = normalized

	if s.room != nil {
		s.room.mu.Lock()
		if m, ok := s.room.members[s.id]; ok {
			m.avatar = normalized
		}
		s.room.mu.Unlock()
	}

	s.hub.broadcastDirectory()
}

// SendMessage appends text to the joined room's history and delivers it to
// every member, the sender included. Empty text and sessions that have not
// joined are ignored.
func (s *Session) SendMessage(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.room == nil {
		return
	}

	text, ok := NormalizeText(text)
	if !ok {
		return
	}

	msg := Message{
		Name:   s.name,
		Text:   text,
		Time:   s.hub.timestamp(),
		Avatar: s.avatar,
	}

	room := s.room
	room.mu.Lock()
	room.history.push(msg)
	room.broadcastLocked(Event{Name: EventMessage, Data: msg}, "")
	room.mu.Unlock()
}

// SetTyping relays a typing indicator to the other members of the joined
// room. Nothing is retained.
func (s *Session) SetTyping(isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.room == nil {
		return
	}

	room := s.room
	room.mu.Lock()
	room.broadcastLocked(Event{Name: EventTyping, Data: TypingNotice{Name: s.name, IsTyping: isTyping}}, s.id)
	room.mu.Unlock()
}

// Disconnect leaves the joined room, if any, and discards the session. It is
// safe to call more than once.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	left := s.room
	s.room = nil
	if left != nil {
		left.mu.Lock()
		online, ok := s.leaveLocked(left)
		left.mu.Unlock()
		if ok {
			s.hub.logger.Info("participant left", "session", s.id, "name", s.name, "room", left.name, "online", online)
		}
		s.hub.registry.reclaimIfEmpty(left)
	}

	s.hub.removeSession(s.id)

	if left != nil {
		s.hub.broadcastDirectory()
	}
}

// enterLocked adds the session to room, sends it the history and announces
// the join. The room lock must be held. It returns the new occupancy.
func (s *Session) enterLocked(room *Room) int {
	room.addLocked(&member{sink: s.sink, name: s.name, avatar: s.avatar})
	s.room = room

	s.sink.Send(Event{Name: EventHistory, Data: room.history.messages()})
	online := len(room.members)
	room.broadcastLocked(Event{Name: EventSystem, Data: SystemNotice{
		Type:   SystemJoined,
		Text:   fmt.Sprintf("%s joined", s.name),
		Online: online,
		Time:   s.hub.timestamp(),
	}}, "")
	return online
}

// leaveLocked removes the session from room and announces it to the
// remaining members. The room lock must be held. It returns the remaining
// occupancy and whether the session was a member.
func (s *Session) leaveLocked(room *Room) (int, bool) {
	m, ok := room.removeLocked(s.id)
	if !ok {
		return len(room.members), false
	}

	online := len(room.members)
	room.broadcastLocked(Event{Name: EventSystem, Data: SystemNotice{
		Type:   SystemLeft,
		Text:   fmt.Sprintf("%s left", m.name),
		Online: online,
		Time:   s.hub.timestamp(),
	}}, "")
	return online, true
}

// moveLocked switches the session from its current room to target while
// holding both room locks.
func (s *Session) moveLocked(target string) {
	from := s.room
	to := s.hub.registry.acquirePair(from, target)

	left, _ := s.leaveLocked(from)
	joined := s.enterLocked(to)
	unlockPair(from, to)

	s.hub.logger.Info("participant switched room", "session", s.id, "name", s.name,
		"from", from.name, "fromOnline", left, "to", to.name, "toOnline", joined)
	s.hub.registry.reclaimIfEmpty(from)
}
