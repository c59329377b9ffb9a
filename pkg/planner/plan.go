// Package planner turns a capability pack and a parameter map into a
// validated, risk-classified action plan. Planning is a pure computation: it
// never executes anything, never mutates the pack, and never returns an
// error for domain or action violations — validity is a field on the plan so
// a reviewer can see the full picture, violations included.
package planner

import (
	"time"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/sensitivity"
)

// ApprovalStatus tracks whether a plan has been cleared for execution.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
	StatusExpired  ApprovalStatus = "expired"
)

// GateType is the tier of an approval gate.
type GateType string

const (
	// GateMandatory gates fail closed: without an approver the step is
	// rejected.
	GateMandatory GateType = "MANDATORY"
	// GateAdvisory gates fail open: without an approver the step proceeds.
	GateAdvisory GateType = "ADVISORY"
)

// Risk flags assessed statically at plan time.
const (
	RiskCredential   = "credential_risk"
	RiskFileDownload = "file_download"
)

// ValidationResult is the outcome of one validation pass over the whole
// pack. Violations are collected, never thrown; a plan with violations is
// still returned so the caller can show why it is invalid.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

func (r *ValidationResult) addViolation(v string) {
	r.Valid = false
	r.Violations = append(r.Violations, v)
}

// PlannedStep is one step of the plan: the interpolated step plus its
// governance classification.
type PlannedStep struct {
	Step          pack.Step           `json:"step"`
	Tier          sensitivity.Tier    `json:"tier"`
	RequiresGate  bool                `json:"requires_gate"`
	GateType      GateType            `json:"gate_type,omitempty"`
	RiskFlags     []string            `json:"risk_flags,omitempty"`
	EvidenceTypes []pack.EvidenceType `json:"evidence_types,omitempty"`
}

// Plan is the planner's output: advisory only, with approval status PENDING
// until an external reviewer approves it. The runner refuses any plan that
// is not approved and valid.
type Plan struct {
	ID          string    `json:"id"`
	PackID      string    `json:"pack_id"`
	PackVersion string    `json:"pack_version"`
	CreatedAt   time.Time `json:"created_at"`

	Steps []PlannedStep `json:"steps"`

	// RiskFlags aggregates the distinct risk flags across all steps.
	RiskFlags []string `json:"risk_flags,omitempty"`

	// RequiredGates lists the IDs of steps that will pause for approval.
	RequiredGates []string `json:"required_gates,omitempty"`

	// Domains lists the distinct normalized hosts the plan will visit.
	Domains []string `json:"domains,omitempty"`

	DomainValidation ValidationResult `json:"domain_validation"`
	ActionValidation ValidationResult `json:"action_validation"`

	ApprovalStatus ApprovalStatus `json:"approval_status"`
}

// Valid reports whether both validation passes succeeded.
func (p *Plan) Valid() bool {
	return p.DomainValidation.Valid && p.ActionValidation.Valid
}

// Approve marks a pending plan as approved. Approving a rejected or expired
// plan has no effect.
func (p *Plan) Approve() {
	if p.ApprovalStatus == StatusPending {
		p.ApprovalStatus = StatusApproved
	}
}

// Reject marks the plan as rejected.
func (p *Plan) Reject() {
	p.ApprovalStatus = StatusRejected
}

// Expire marks a pending plan as expired.
func (p *Plan) Expire() {
	if p.ApprovalStatus == StatusPending {
		p.ApprovalStatus = StatusExpired
	}
}
