package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinauth/pin-relay/internal/model"
)

const DefaultLogBufferSize = 200

type LogEntry struct {
	ID         string        `json:"id"`
	Time       time.Time     `json:"time"`
	SessionID  string        `json:"sessionId,omitempty"`
	Kind       model.LogKind `json:"kind"`
	Status     int           `json:"status,omitempty"`
	DurationMs int64         `json:"durationMs,omitempty"`
	Message    string        `json:"message"`
}

// LogSink receives relay request/response records.
type LogSink interface {
	Record(entry LogEntry)
}

// LogBuffer keeps the most recent entries in a fixed-size ring.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	full    bool
}

func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = DefaultLogBufferSize
	}
	return &LogBuffer{entries: make([]LogEntry, size)}
}

func (b *LogBuffer) Record(entry LogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = entry
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
}

// Entries returns a copy of the buffered entries, oldest first.
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.full {
		out := make([]LogEntry, b.next)
		copy(out, b.entries[:b.next])
		return out
	}

	out := make([]LogEntry, 0, len(b.entries))
	out = append(out, b.entries[b.next:]...)
	out = append(out, b.entries[:b.next]...)
	return out
}

func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make([]LogEntry, len(b.entries))
	b.next = 0
	b.full = false
}

type discardSink struct{}

func (discardSink) Record(LogEntry) {}

// DiscardSink drops every entry.
var DiscardSink LogSink = discardSink{}
