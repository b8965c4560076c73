package webui

import (
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// LogBuffer is a thread-safe ring buffer for log entries.
// It implements io.Writer so it can sit behind zerolog.
type LogBuffer struct {
	entries []LogEntry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

// NewLogBuffer creates a new log buffer with the specified capacity
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = 1
	}
	return &LogBuffer{
		entries: make([]LogEntry, size),
		size:    size,
	}
}

// Write stores one zerolog line. zerolog issues one Write per event.
func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	entry := parseEntry(p)

	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries[lb.head] = entry
	lb.head = (lb.head + 1) % lb.size
	if lb.count < lb.size {
		lb.count++
	}

	return len(p), nil
}

// GetEntries returns all log entries in chronological order
func (lb *LogBuffer) GetEntries() []LogEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	result := make([]LogEntry, lb.count)
	start := 0
	if lb.count == lb.size {
		start = lb.head
	}
	for i := 0; i < lb.count; i++ {
		result[i] = lb.entries[(start+i)%lb.size]
	}
	return result
}

// GetRecentEntries returns the most recent n entries
func (lb *LogBuffer) GetRecentEntries(n int) []LogEntry {
	entries := lb.GetEntries()
	if n < 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func parseEntry(p []byte) LogEntry {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		Raw:       string(p),
		Message:   string(p),
	}

	var line struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(p, &line); err != nil {
		return entry
	}
	if line.Level != "" {
		entry.Level = line.Level
	}
	if line.Message != "" {
		entry.Message = line.Message
	}
	return entry
}
