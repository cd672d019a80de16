package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-process counters for the ticket API: request counts
// and cumulative latency per route/status, error counts per taxonomy
// code. Export is out of scope; the counters back the request logger
// and the error middleware.
type Metrics struct {
	mu           sync.Mutex
	requests     map[string]int64
	totalLatency map[string]time.Duration
	errors       map[string]int64
}

// NewMetrics initializes the counter maps.
func NewMetrics() *Metrics {
	return &Metrics{
		requests:     make(map[string]int64),
		totalLatency: make(map[string]time.Duration),
		errors:       make(map[string]int64),
	}
}

// RecordRequest counts a finished request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := routeKey(method, path, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.totalLatency[key] += duration
}

// RecordError counts a request that surfaced a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[method+" "+path+" "+code]++
}

func routeKey(method, path string, status int) string {
	return method + " " + path + " " + strconv.Itoa(status)
}
