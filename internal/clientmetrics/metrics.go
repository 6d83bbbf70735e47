// Package clientmetrics tracks wire traffic for a single target connection.
package clientmetrics

import (
	"sync"
	"time"
)

// ClientMetrics counts commands, responses and bytes exchanged over one connection.
// A connection has a single owner; the mutex only lets a progress reader take snapshots.
type ClientMetrics struct {
	mu            sync.Mutex
	connectTime   time.Time
	commandsSent  int64
	responsesRecv int64
	bytesSent     int64
	bytesRecv     int64
	errors        int64
}

// New creates a new ClientMetrics instance.
func New() *ClientMetrics {
	return &ClientMetrics{}
}

// MarkConnected records the connection time.
func (m *ClientMetrics) MarkConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectTime = time.Now()
}

// RecordCommand counts one written command of the given wire size.
func (m *ClientMetrics) RecordCommand(bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandsSent++
	m.bytesSent += int64(bytes)
}

// RecordResponse counts one complete response of the given wire size.
func (m *ClientMetrics) RecordResponse(bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responsesRecv++
	m.bytesRecv += int64(bytes)
}

// RecordError counts a transport failure.
func (m *ClientMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// Snapshot is a point-in-time copy of the traffic counters.
type Snapshot struct {
	ConnectionDuration time.Duration `json:"-" yaml:"-"`
	CommandsSent       int64         `json:"commands_sent" yaml:"commands_sent"`
	ResponsesReceived  int64         `json:"responses_received" yaml:"responses_received"`
	BytesSent          int64         `json:"bytes_sent" yaml:"bytes_sent"`
	BytesReceived      int64         `json:"bytes_received" yaml:"bytes_received"`
	Errors             int64         `json:"transport_errors" yaml:"transport_errors"`
}

// Add returns the field-wise sum of two snapshots.
func (s Snapshot) Add(o Snapshot) Snapshot {
	return Snapshot{
		ConnectionDuration: s.ConnectionDuration + o.ConnectionDuration,
		CommandsSent:       s.CommandsSent + o.CommandsSent,
		ResponsesReceived:  s.ResponsesReceived + o.ResponsesReceived,
		BytesSent:          s.BytesSent + o.BytesSent,
		BytesReceived:      s.BytesReceived + o.BytesReceived,
		Errors:             s.Errors + o.Errors,
	}
}

// Snapshot returns a consistent snapshot of all counters.
func (m *ClientMetrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := time.Duration(0)
	if !m.connectTime.IsZero() {
		duration = time.Since(m.connectTime)
	}

	return Snapshot{
		ConnectionDuration: duration,
		CommandsSent:       m.commandsSent,
		ResponsesReceived:  m.responsesRecv,
		BytesSent:          m.bytesSent,
		BytesReceived:      m.bytesRecv,
		Errors:             m.errors,
	}
}
