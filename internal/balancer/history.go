package balancer

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of routing records kept when no size is configured.
const DefaultHistorySize = 1024

// RequestRecord describes one routing decision made by the dispatcher.
type RequestRecord struct {
	RequestID           string    `json:"requestId"`
	WorkerID            string    `json:"workerId"`
	Addr                string    `json:"addr"`
	Timestamp           time.Time `json:"timestamp"`
	ActiveProcesses     int64     `json:"activeProcesses"`
	SuccessfulProcesses uint64    `json:"successfulProcesses"`
	FailedProcesses     uint64    `json:"failedProcesses"`
}

// History is a fixed-capacity ring buffer of RequestRecords. When full, the
// oldest record is overwritten. Records from concurrent requests appear in
// the order they were appended, which need not match completion order.
// Thread-safe: Uses sync.RWMutex for concurrent access.
type History struct {
	mu    sync.RWMutex
	buf   []RequestRecord
	next  int    // index the next Append writes to
	size  int    // number of valid records, <= len(buf)
	total uint64 // records ever appended
}

// NewHistory creates a history holding at most capacity records.
// A non-positive capacity selects DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{buf: make([]RequestRecord, capacity)}
}

// Append stores rec, evicting the oldest record if the buffer is full.
func (h *History) Append(rec RequestRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf[h.next] = rec
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
	h.total++
}

// Records returns a copy of the retained records, oldest first.
func (h *History) Records() []RequestRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]RequestRecord, 0, h.size)
	start := (h.next - h.size + len(h.buf)) % len(h.buf)
	for i := 0; i < h.size; i++ {
		out = append(out, h.buf[(start+i)%len(h.buf)])
	}
	return out
}

// Len returns the number of retained records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Total returns how many records were ever appended, including evicted ones.
func (h *History) Total() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Capacity returns the maximum number of retained records.
func (h *History) Capacity() int {
	return len(h.buf)
}
