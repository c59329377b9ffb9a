package policy

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one immutable entry in the enforcement audit log.
type AuditRecord struct {
	ID                string        `json:"id"`
	Timestamp         time.Time     `json:"timestamp"`
	ActionType        string        `json:"action_type"`
	Actor             Actor         `json:"actor"`
	Decision          Decision      `json:"decision"`
	PoliciesEvaluated int           `json:"policies_evaluated"`
	PoliciesTriggered int           `json:"policies_triggered"`
	Duration          time.Duration `json:"duration"`
}

// AuditLog is the append-only in-memory enforcement log. Nothing ever
// deletes or edits a previously appended record.
type AuditLog struct {
	mu      sync.Mutex
	records []AuditRecord
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

// append records one enforcement pass and returns the stored record.
func (l *AuditLog) append(record AuditRecord) AuditRecord {
	record.ID = uuid.New().String()
	record.Timestamp = time.Now().UTC()

	l.mu.Lock()
	l.records = append(l.records, record)
	l.mu.Unlock()
	return record
}

// Records returns a copy of the log in append order.
func (l *AuditLog) Records() []AuditRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records appended so far.
func (l *AuditLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
