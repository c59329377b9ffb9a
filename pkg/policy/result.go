package policy

// Decision is the aggregate outcome of one enforcement pass.
type Decision string

const (
	DecisionAllow           Decision = "ALLOW"
	DecisionBlock           Decision = "BLOCK"
	DecisionRequireApproval Decision = "REQUIRE_APPROVAL"
	DecisionAlert           Decision = "ALERT"
)

// decisionRank orders decisions by precedence: BLOCK > REQUIRE_APPROVAL >
// ALERT > ALLOW. The same precedence governs runner gate handling.
func decisionRank(d Decision) int {
	switch d {
	case DecisionBlock:
		return 3
	case DecisionRequireApproval:
		return 2
	case DecisionAlert:
		return 1
	default:
		return 0
	}
}

// dominates reports whether a takes precedence over b.
func dominates(a, b Decision) bool {
	return decisionRank(a) > decisionRank(b)
}

// Evaluation is one policy's contribution to an enforcement pass.
type Evaluation struct {
	PolicyID       string         `json:"policy_id"`
	PolicyName     string         `json:"policy_name"`
	Classification Classification `json:"classification"`
	Triggered      bool           `json:"triggered"`
	TriggerKind    string         `json:"trigger_kind,omitempty"`
	Detail         string         `json:"detail,omitempty"`
	Decision       Decision       `json:"decision"`
}

// RequiredApproval names an approval a caller must collect before the
// action may proceed.
type RequiredApproval struct {
	PolicyID string `json:"policy_id"`
	Role     string `json:"role"`
	Reason   string `json:"reason"`
}

// Result is the outcome of one enforcement pass. It is produced fresh on
// every Enforce call and never mutated after return; callers only read it.
type Result struct {
	Decision          Decision           `json:"decision"`
	Evaluations       []Evaluation       `json:"evaluations"`
	BlockingPolicy    string             `json:"blocking_policy,omitempty"`
	RequiredApprovals []RequiredApproval `json:"required_approvals,omitempty"`
	Alerts            []string           `json:"alerts,omitempty"`
	Audit             AuditRecord        `json:"audit"`
}

// Allowed reports whether the action may proceed without further approval.
func (r *Result) Allowed() bool {
	return r.Decision == DecisionAllow || r.Decision == DecisionAlert
}
