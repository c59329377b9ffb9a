// Package evidence builds the tamper-evident record of an execution run.
// Every captured artifact becomes an append-only, individually hashed record;
// the chain then produces a package-level hash over all records and a
// policy-linkage hash binding the run to the exact pack version that
// governed it. Hashes are SHA-256.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
)

// Record types beyond the pack-declared capture kinds. Gate rejections and
// stop conditions always leave a record so every halted run has an audit
// trace even when no further steps execute.
const (
	TypeGateRejection pack.EvidenceType = "gate_rejection"
	TypeStopCondition pack.EvidenceType = "stop_condition"
)

// Record is one hashed, timestamped artifact tied to a step. Records are
// never edited after creation.
type Record struct {
	ID         string            `json:"id"`
	StepID     string            `json:"step_id"`
	Type       pack.EvidenceType `json:"type"`
	Domain     string            `json:"domain"`
	Hash       string            `json:"hash"`
	CapturedAt time.Time         `json:"captured_at"`
}

// Chain accumulates records for one run. Appends are safe for concurrent
// use, although a single runner appends sequentially.
type Chain struct {
	mu      sync.Mutex
	records []Record
}

// NewChain creates an empty evidence chain.
func NewChain() *Chain {
	return &Chain{}
}

// Append hashes the artifact content and adds a new record to the chain,
// returning the record.
func (c *Chain) Append(stepID string, evidenceType pack.EvidenceType, domain string, content []byte) Record {
	record := Record{
		ID:         uuid.New().String(),
		StepID:     stepID,
		Type:       evidenceType,
		Domain:     domain,
		Hash:       HashBytes(content),
		CapturedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.records = append(c.records, record)
	c.mu.Unlock()

	return record
}

// Records returns a copy of the chain's records in capture order.
func (c *Chain) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records captured so far.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// PackageHash computes the package-level integrity hash: a SHA-256 over
// every record hash in capture order plus the run's captured data. An
// auditor recomputing this hash detects any record added, removed, or
// reordered after the fact.
func (c *Chain) PackageHash(capturedData map[string]string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := sha256.New()
	for _, record := range c.records {
		fmt.Fprintf(h, "%s:%s\n", record.ID, record.Hash)
	}
	for _, key := range sortedKeys(capturedData) {
		fmt.Fprintf(h, "%s=%s\n", key, capturedData[key])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PolicyLinkageHash binds an execution result to the exact pack identity and
// version whose rules were in force, so evidence can later be tied to the
// governance configuration that produced it.
func PolicyLinkageHash(packID, packVersion, packageHash string) string {
	return HashBytes([]byte(packID + "@" + packVersion + ":" + packageHash))
}

// HashBytes returns the hex-encoded SHA-256 of the content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
