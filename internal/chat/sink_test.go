package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	id string

	mu     sync.Mutex
	events []Event
	refuse bool
}

func newRecordingSink(id string) *recordingSink {
	return &recordingSink{id: id}
}

func (r *recordingSink) ID() string { return r.id }

func (r *recordingSink) Send(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refuse {
		return false
	}
	r.events = append(r.events, ev)
	return true
}

// take returns and clears the recorded events.
func (r *recordingSink) take() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}

func (r *recordingSink) named(name string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func fixedClock() func() time.Time {
	ts := time.UnixMilli(1_700_000_000_000)
	return func() time.Time { return ts }
}

func newTestHub(opts ...Option) *Hub {
	return NewHub(append([]Option{WithClock(fixedClock())}, opts...)...)
}

func connect(t *testing.T, h *Hub, id string) (*Session, *recordingSink) {
	t.Helper()
	sink := newRecordingSink(id)
	s := h.Connect(sink)
	require.NotNil(t, s)
	return s, sink
}

func eventNames(events []Event) []string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	return names
}

func lastDirectory(t *testing.T, sink *recordingSink) map[string]int {
	t.Helper()
	lists := sink.named(EventRoomList)
	require.NotEmpty(t, lists, "no roomList delivered to %s", sink.id)
	dir, ok := lists[len(lists)-1].Data.(Directory)
	require.True(t, ok)
	return dir.Counts()
}
