package relay

// DefaultMaxStoredMessages is the Message Log capacity when none is configured.
const DefaultMaxStoredMessages = 200

// MessageLog is a fixed-capacity ring of the most recent messages.
type MessageLog struct {
	buf  []Message
	head int
	size int
}

func NewMessageLog(capacity int) *MessageLog {
	if capacity <= 0 {
		capacity = DefaultMaxStoredMessages
	}
	return &MessageLog{buf: make([]Message, capacity)}
}

// Append evicts the oldest message once the log is full.
func (l *MessageLog) Append(msg Message) {
	idx := (l.head + l.size) % len(l.buf)
	l.buf[idx] = msg
	if l.size < len(l.buf) {
		l.size++
		return
	}
	l.head = (l.head + 1) % len(l.buf)
}

// Snapshot returns the retained messages oldest first.
func (l *MessageLog) Snapshot() []Message {
	out := make([]Message, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.head+i)%len(l.buf)]
	}
	return out
}
