package runner

import (
	"time"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/evidence"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/stopcond"
)

// Result is the final outcome of one run. Every terminal state carries
// enough structured detail to render a precise explanation: the status, the
// stop condition if one fired, every error, and every gate event.
type Result struct {
	RunID       string `json:"run_id"`
	PlanID      string `json:"plan_id"`
	PackID      string `json:"pack_id"`
	PackVersion string `json:"pack_version"`

	Status         Status `json:"status"`
	StepsCompleted int    `json:"steps_completed"`
	StepsTotal     int    `json:"steps_total"`

	// StopCondition is set when a detected unsafe page state ended the run.
	StopCondition *stopcond.Triggered `json:"stop_condition,omitempty"`

	GateEvents []GateEvent `json:"gate_events,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	Logs       []string    `json:"logs,omitempty"`

	Evidence     []evidence.Record `json:"evidence,omitempty"`
	CapturedData map[string]string `json:"captured_data,omitempty"`

	// PackageHash is the integrity hash over the evidence chain and
	// captured data.
	PackageHash string `json:"package_hash"`

	// PolicyLinkageHash binds this result to the exact pack id and version
	// that governed the run.
	PolicyLinkageHash string `json:"policy_linkage_hash"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
