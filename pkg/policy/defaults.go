package policy

// Default bid-governance catalog. These policies govern business-development
// decisions (bid/no-bid, submissions) that never pass through an action
// plan; business logic calls the enforcer with an action context directly.

// Threshold IDs used by the default catalog.
const (
	ThresholdWinProbabilityMin = "win_probability_min"
	ThresholdHighValue         = "high_value"
)

// DefaultCatalog returns the default bid-governance policy definitions.
func DefaultCatalog() []*Definition {
	return []*Definition{
		{
			ID:             "win_probability_review",
			Name:           "Win Probability Review",
			Description:    "Flags bid decisions whose win probability falls below the configured review floor.",
			Classification: ClassAdvisory,
			Triggers: []Trigger{
				ThresholdCompare{Field: "win_probability", Op: "<", ThresholdID: ThresholdWinProbabilityMin},
			},
			Actions: []Action{
				{Kind: ActAlert, Message: "Win probability below review threshold"},
			},
			DefaultEnabled: true,
			Thresholds: []Threshold{
				{ID: ThresholdWinProbabilityMin, Value: 30, Min: 0, Max: 100, Unit: "percent", Purpose: "minimum win probability before a bid decision is flagged"},
			},
		},
		{
			ID:             "high_value_approval",
			Name:           "High-Value Executive Approval",
			Description:    "Requires executive sign-off for opportunities above the high-value threshold.",
			Classification: ClassMandatory,
			Triggers: []Trigger{
				DataPatternMatch{Special: SpecialHighValue},
			},
			Actions: []Action{
				{Kind: ActRequireApproval, Role: "executive"},
			},
			DefaultEnabled: true,
			Thresholds: []Threshold{
				{ID: ThresholdHighValue, Value: 5_000_000, Min: 0, Max: 1_000_000_000, Unit: "usd", Purpose: "estimated value above which executive approval is required"},
			},
		},
		{
			ID:             "protected_submission",
			Name:           "Protected Submission Actions",
			Description:    "Submission and award actions always require contracting-officer approval.",
			Classification: ClassMandatory,
			Triggers: []Trigger{
				ActionMatch{Actions: []string{"submit_bid", "accept_award"}},
			},
			Actions: []Action{
				{Kind: ActRequireApproval, Role: "contracting_officer"},
			},
			DefaultEnabled: true,
		},
		{
			ID:             "mock_data_disclosure",
			Name:           "Mock Data Disclosure",
			Description:    "Notes when a decision was produced from mock or demonstration data.",
			Classification: ClassInformational,
			Triggers: []Trigger{
				DataPatternMatch{Special: SpecialMockData},
			},
			Actions: []Action{
				{Kind: ActAlert, Message: "Decision based on mock data"},
			},
			DefaultEnabled: true,
		},
		{
			ID:             "manual_override_escalation",
			Name:           "Manual Override Escalation",
			Description:    "Escalates when an operator overrides an automated recommendation.",
			Classification: ClassAdvisory,
			Triggers: []Trigger{
				EventMatch{Events: []string{"manual_override", "recommendation_rejected"}},
			},
			Actions: []Action{
				{Kind: ActEscalate, Message: "Automated recommendation manually overridden"},
			},
			DefaultEnabled: true,
		},
	}
}

// NewDefaultRegistry returns a registry pre-loaded with the default
// bid-governance catalog.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()
	for _, def := range DefaultCatalog() {
		// Definitions come from the static catalog above; registration
		// cannot fail for them.
		if err := registry.Register(def); err != nil {
			panic(err)
		}
	}
	return registry
}

// EnforceWinProbabilityReview evaluates a bid decision's win probability
// against the governance catalog. With the default catalog, a value below
// the configured floor yields an ALERT referencing both values.
func (e *Enforcer) EnforceWinProbabilityReview(actor Actor, winProbability float64) *Result {
	return e.Enforce(&ActionContext{
		ActionType: "win_probability_review",
		Actor:      actor,
		Data: map[string]any{
			"win_probability": winProbability,
		},
	})
}

// EnforceBidDecision evaluates a full bid decision: win probability,
// estimated value, and data provenance, in one enforcement pass.
func (e *Enforcer) EnforceBidDecision(actor Actor, estimatedValue, winProbability float64, mockData bool) *Result {
	return e.Enforce(&ActionContext{
		ActionType: "bid_decision",
		Actor:      actor,
		Data: map[string]any{
			"estimated_value": estimatedValue,
			"win_probability": winProbability,
			"mock_data":       mockData,
		},
	})
}
