package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// Event types written by the ledger and the API.
const (
	EventSubmissionAccepted = "SubmissionAccepted"
	EventSubmissionRejected = "SubmissionRejected"
	EventChainVerification  = "ChainVerification"
	EventDocumentCheck      = "DocumentVerification"
	EventLogin              = "Login"
	EventUserRegistered     = "UserRegistered"
	EventJudgeRegistered    = "JudgeRegistered"
	EventChainExport        = "ChainExport"
	EventValidationFailed   = "ValidationFailed"
)

// AuditEvent represents a ledger, verification or authorization event.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	EntityID  string            `json:"entity_id"` // case id, username or judge id
	Result    string            `json:"result"`    // "success" or "failure"
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditLogger is the interface for logging audit events.
type AuditLogger interface {
	LogEvent(event AuditEvent)
}

// StdoutAuditLogger is a simple implementation that logs to stdout.
type StdoutAuditLogger struct{}

func (l *StdoutAuditLogger) LogEvent(event AuditEvent) {
	fmt.Printf("[AUDIT] [%s] [%s] Entity: %s, Result: %s, Reason: %s, Metadata: %+v\n",
		event.Timestamp.Format(time.RFC3339), event.EventType, event.EntityID, event.Result, event.Reason, event.Metadata)
}

// NewStdoutAuditLogger returns a new StdoutAuditLogger.
func NewStdoutAuditLogger() AuditLogger {
	return &StdoutAuditLogger{}
}

// JSONLAuditLogger appends one JSON object per line to a file.
type JSONLAuditLogger struct {
	mu sync.Mutex
	f  *os.File
}

// NewJSONLAuditLogger opens path for appending, creating it if needed.
func NewJSONLAuditLogger(path string) (*JSONLAuditLogger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &JSONLAuditLogger{f: f}, nil
}

func (l *JSONLAuditLogger) LogEvent(event AuditEvent) {
	b, err := json.Marshal(event)
	if err != nil {
		log.Printf("[AUDIT] failed to encode %s event for %s: %v", event.EventType, event.EntityID, err)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(b, '\n')); err != nil {
		log.Printf("[AUDIT] failed to write %s event for %s: %v", event.EventType, event.EntityID, err)
	}
}

func (l *JSONLAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// MultiAuditLogger forwards every event to each logger.
type MultiAuditLogger []AuditLogger

func (m MultiAuditLogger) LogEvent(event AuditEvent) {
	for _, l := range m {
		if l != nil {
			l.LogEvent(event)
		}
	}
}

// MemoryAuditLogger keeps events in memory.
type MemoryAuditLogger struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (m *MemoryAuditLogger) LogEvent(event AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the recorded events.
func (m *MemoryAuditLogger) Events() []AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AuditEvent(nil), m.events...)
}

// Record fills in the timestamp and logs. A nil logger is ignored.
func Record(l AuditLogger, eventType, entity, result, reason string, meta map[string]string) {
	if l == nil {
		return
	}
	l.LogEvent(AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		EntityID:  entity,
		Result:    result,
		Reason:    reason,
		Metadata:  meta,
	})
}
