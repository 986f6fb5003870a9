package observability

import (
	"strconv"
	"sync"
)

// Metrics provides in-memory counters for engine and pipeline activity.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	operationCount  map[string]int64
	conflictRetries map[string]int64
	escalations     map[string]int64
	deliveries      map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		operationCount:  make(map[string]int64),
		conflictRetries: make(map[string]int64),
		escalations:     make(map[string]int64),
		deliveries:      make(map[string]int64),
	}
}

// RecordRequest counts an HTTP request by path, method and status.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordOperation counts an engine operation outcome by taxonomy code
// (empty code means success).
func (m *Metrics) RecordOperation(operation, code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "OK"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operationCount[operation+"|"+code]++
}

// RecordConflictRetry counts an optimistic-lock retry for an operation.
func (m *Metrics) RecordConflictRetry(operation string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflictRetries[operation]++
}

// RecordEscalation counts a committed escalation by target level.
func (m *Metrics) RecordEscalation(level string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations[level]++
}

// RecordDelivery counts a notification delivery outcome.
func (m *Metrics) RecordDelivery(status string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[status]++
}

// ConflictRetries returns the retry count recorded for an operation.
func (m *Metrics) ConflictRetries(operation string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conflictRetries[operation]
}

// Escalations returns the count of committed escalations to a level.
func (m *Metrics) Escalations(level string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.escalations[level]
}
