package security

import (
	"fmt"
	"sync"
	"time"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

func (e AuditEntry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Timestamp.Format(time.TimeOnly), e.Message)
}

// AuditLog is a bounded in-memory ring of security events, newest first.
// It backs the admin security panel; durable logging goes through the
// regular logger.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	limit   int
}

func NewAuditLog(limit int) *AuditLog {
	if limit <= 0 {
		limit = 200
	}
	return &AuditLog{limit: limit}
}

func (l *AuditLog) Record(severity Severity, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := AuditEntry{Timestamp: time.Now(), Severity: severity, Message: message}
	l.entries = append([]AuditEntry{entry}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
}

// Entries returns a copy of the log, newest first.
func (l *AuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *AuditLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
