package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/planner"
)

// GateEvent describes one approval checkpoint the runner paused at. It
// carries everything a human needs to decide: what the step does, where,
// and why it was flagged.
type GateEvent struct {
	ID           string           `json:"id"`
	Timestamp    time.Time        `json:"timestamp"`
	StepID       string           `json:"step_id"`
	GateType     planner.GateType `json:"gate_type"`
	Action       pack.ActionType  `json:"action"`
	TargetDomain string           `json:"target_domain,omitempty"`
	Rationale    string           `json:"rationale,omitempty"`
	RiskFactors  []string         `json:"risk_factors,omitempty"`
}

// ApprovalFunc decides a gate. Returning false halts the run. A nil
// ApprovalFunc on the runner means MANDATORY gates auto-reject (fail
// closed) while ADVISORY gates auto-approve (fail open only for the lower
// tier).
type ApprovalFunc func(ctx context.Context, event GateEvent) (bool, error)

// GateDecision is a response delivered to a pending gate.
type GateDecision struct {
	GateID   string
	Approved bool
}

// GateManager bridges an asynchronous decision source (a terminal prompt,
// an operations UI) to the runner's synchronous ApprovalFunc boundary. The
// runner blocks on a per-gate response channel; the decision side resumes
// it by calling HandleDecision. No closures are retained across the
// boundary — the caller resumes purely by sending a decision value.
type GateManager struct {
	timeout time.Duration
	emit    func(event GateEvent)

	mu      sync.Mutex
	pending map[string]chan GateDecision
}

// NewGateManager creates a gate manager. emit is invoked for every gate so
// the decision side learns a gate is waiting; timeout zero means wait
// indefinitely (callers should impose their own deadline via context).
func NewGateManager(timeout time.Duration, emit func(event GateEvent)) *GateManager {
	return &GateManager{
		timeout: timeout,
		emit:    emit,
		pending: make(map[string]chan GateDecision),
	}
}

// Approve implements ApprovalFunc: it publishes the gate event and blocks
// until a decision arrives, the timeout elapses, or the context is
// canceled. Timeouts and cancellations are rejections — gates fail closed
// on silence.
func (m *GateManager) Approve(ctx context.Context, event GateEvent) (bool, error) {
	response := make(chan GateDecision, 1)

	m.mu.Lock()
	m.pending[event.ID] = response
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.pending, event.ID)
		m.mu.Unlock()
	}()

	if m.emit != nil {
		m.emit(event)
	}

	var timeoutC <-chan time.Time
	if m.timeout > 0 {
		timer := time.NewTimer(m.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timeoutC:
		return false, fmt.Errorf("gate '%s' timed out awaiting decision", event.ID)
	case decision := <-response:
		return decision.Approved, nil
	}
}

// HandleDecision delivers a decision to the pending gate it names.
// Decisions for unknown or already-resolved gates are ignored.
func (m *GateManager) HandleDecision(decision GateDecision) {
	m.mu.Lock()
	response, ok := m.pending[decision.GateID]
	m.mu.Unlock()
	if !ok {
		return
	}
	select {
	case response <- decision:
	default:
		// A decision already landed; late duplicates are safe to drop.
	}
}

// newGateEvent builds the gate event for a planned step, deriving risk
// factors from the action type, the step's static risk flags, and the
// target domain.
func newGateEvent(planned planner.PlannedStep, domain string) GateEvent {
	factors := []string{fmt.Sprintf("action '%s' classified %s", planned.Step.Action, planned.Tier)}
	factors = append(factors, planned.RiskFlags...)
	if domain != "" {
		factors = append(factors, fmt.Sprintf("targets domain '%s'", domain))
	}

	return GateEvent{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		StepID:       planned.Step.ID,
		GateType:     planned.GateType,
		Action:       planned.Step.Action,
		TargetDomain: domain,
		Rationale:    planned.Step.Rationale,
		RiskFactors:  factors,
	}
}
