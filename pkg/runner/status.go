// Package runner executes approved action plans step by step, pausing for
// approval at classified gates, halting on detected unsafe page states, and
// producing a tamper-evident evidence chain. The runner is the only
// component that touches external state, and it refuses to start unless the
// plan is approved and fully valid.
package runner

// Status is the execution state machine:
//
//	PLANNING → PENDING_APPROVAL → APPROVED → RUNNING
//	RUNNING ⇄ PAUSED_FOR_GATE
//	RUNNING → COMPLETED | FAILED | STOPPED | ABORTED
type Status string

const (
	StatusPlanning        Status = "PLANNING"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRunning         Status = "RUNNING"
	StatusPausedForGate   Status = "PAUSED_FOR_GATE"
	StatusCompleted       Status = "COMPLETED"
	StatusFailed          Status = "FAILED"
	StatusStopped         Status = "STOPPED"
	StatusAborted         Status = "ABORTED"
)

// Terminal reports whether the status ends a run.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped, StatusAborted:
		return true
	}
	return false
}
