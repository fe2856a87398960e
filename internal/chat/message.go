package chat

// Message is an immutable chat line stored in a room's history. Name and
// Avatar are snapshots of the author's binding at send time.
type Message struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Time   int64  `json:"time"`
	Avatar string `json:"avatar,omitempty"`
}

// history is a FIFO ring of the most recent messages of a room.
type history struct {
	capacity int
	buf      []Message
	start    int
}

func newHistory(capacity int) *history {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &history{capacity: capacity}
}

func (h *history) push(msg Message) {
	if len(h.buf) < h.capacity {
		h.buf = append(h.buf, msg)
		return
	}
	h.buf[h.start] = msg
	h.start = (h.start + 1) % h.capacity
}

func (h *history) len() int {
	return len(h.buf)
}

// messages returns a copy of the history, oldest first.
func (h *history) messages() []Message {
	out := make([]Message, 0, len(h.buf))
	out = append(out, h.buf[h.start:]...)
	return append(out, h.buf[:h.start]...)
}
