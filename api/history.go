package api

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"
)

const DefaultHistoryLimit = 100

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RequestRecord describes one API call. It is diagnostic only.
type RequestRecord struct {
	ID         int64           `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Operation  string          `json:"operation"`
	Endpoint   string          `json:"endpoint"`
	Params     url.Values      `json:"params"`
	Duration   time.Duration   `json:"duration"`
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code,omitempty"`
	Error      string          `json:"error,omitempty"`
	Response   json.RawMessage `json:"response,omitempty"`
}

// History keeps the most recent records, newest first. Older records are
// evicted once the limit is reached.
type History struct {
	mu      sync.Mutex
	limit   int
	nextID  int64
	records []RequestRecord
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

func (h *History) Add(record RequestRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	record.ID = h.nextID

	h.records = append(h.records, RequestRecord{})
	copy(h.records[1:], h.records)
	h.records[0] = record
	if len(h.records) > h.limit {
		h.records = h.records[:h.limit]
	}
}

func (h *History) Records() []RequestRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]RequestRecord, len(h.records))
	copy(out, h.records)
	return out
}
