package policy

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnforcer(t *testing.T) (*Enforcer, *Registry, *AuditLog) {
	t.Helper()
	registry := NewDefaultRegistry()
	audit := NewAuditLog()
	return NewEnforcer(registry, audit), registry, audit
}

func TestEnforceWinProbabilityReview_BelowThreshold(t *testing.T) {
	enforcer, _, _ := newTestEnforcer(t)

	result := enforcer.EnforceWinProbabilityReview(Actor{UserID: "analyst1", Role: "analyst"}, 25)

	assert.Equal(t, DecisionAlert, result.Decision)
	require.Len(t, result.Alerts, 1)
	// The alert references both the observed value and the threshold.
	assert.Contains(t, result.Alerts[0], "25")
	assert.Contains(t, result.Alerts[0], "30")
}

func TestEnforceWinProbabilityReview_AboveThreshold(t *testing.T) {
	enforcer, _, _ := newTestEnforcer(t)

	result := enforcer.EnforceWinProbabilityReview(Actor{UserID: "analyst1"}, 55)
	assert.Equal(t, DecisionAllow, result.Decision)
	assert.Empty(t, result.Alerts)
}

func TestEnforce_HighValueRequiresExecutiveApproval(t *testing.T) {
	enforcer, _, _ := newTestEnforcer(t)

	result := enforcer.Enforce(&ActionContext{
		ActionType: "bid_decision",
		Actor:      Actor{UserID: "bd-lead", Role: "manager"},
		Data:       map[string]any{"estimated_value": 7_500_000},
	})

	assert.Equal(t, DecisionRequireApproval, result.Decision)
	require.Len(t, result.RequiredApprovals, 1)
	assert.Equal(t, "executive", result.RequiredApprovals[0].Role)
	assert.Equal(t, "high_value_approval", result.RequiredApprovals[0].PolicyID)
}

func TestEnforce_MandatoryBlockDominates(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&Definition{
		ID:             "hard-block",
		Name:           "Hard Block",
		Classification: ClassMandatory,
		Triggers:       []Trigger{ActionMatch{Actions: []string{"danger"}}},
		Actions:        []Action{{Kind: ActBlock}},
		DefaultEnabled: true,
	}))
	require.NoError(t, registry.Register(&Definition{
		ID:             "advisory-noise",
		Name:           "Advisory Noise",
		Classification: ClassAdvisory,
		Triggers:       []Trigger{ActionMatch{Actions: []string{"danger"}}},
		Actions:        []Action{{Kind: ActAlert, Message: "heads up"}},
		DefaultEnabled: true,
	}))
	require.NoError(t, registry.Register(&Definition{
		ID:             "info-noise",
		Name:           "Info Noise",
		Classification: ClassInformational,
		Triggers:       []Trigger{ActionMatch{Actions: []string{"danger"}}},
		Actions:        []Action{{Kind: ActAlert, Message: "fyi"}},
		DefaultEnabled: true,
	}))

	enforcer := NewEnforcer(registry, NewAuditLog())
	result := enforcer.Enforce(&ActionContext{ActionType: "danger", Actor: Actor{UserID: "u"}})

	// Any MANDATORY block wins outright, however many lower-tier policies
	// also fired.
	assert.Equal(t, DecisionBlock, result.Decision)
	assert.Equal(t, "hard-block", result.BlockingPolicy)
	assert.Len(t, result.Alerts, 2)
}

func TestEnforce_AdvisoryCappedAtAlert(t *testing.T) {
	registry := NewRegistry()
	// An advisory policy configured with a block action still cannot block.
	require.NoError(t, registry.Register(&Definition{
		ID:             "overreaching",
		Name:           "Overreaching Advisory",
		Classification: ClassAdvisory,
		Triggers:       []Trigger{ActionMatch{Actions: []string{"x"}}},
		Actions:        []Action{{Kind: ActBlock}},
		DefaultEnabled: true,
	}))

	enforcer := NewEnforcer(registry, NewAuditLog())
	result := enforcer.Enforce(&ActionContext{ActionType: "x", Actor: Actor{UserID: "u"}})
	assert.Equal(t, DecisionAlert, result.Decision)
	assert.Empty(t, result.BlockingPolicy)
}

func TestEnforce_InformationalNeverChangesDecision(t *testing.T) {
	enforcer, _, _ := newTestEnforcer(t)

	result := enforcer.Enforce(&ActionContext{
		ActionType:  "bid_decision",
		Actor:       Actor{UserID: "u"},
		Data:        map[string]any{"mock_data": true},
		Environment: Environment{Demo: true},
	})

	assert.Equal(t, DecisionAllow, result.Decision)
	require.NotEmpty(t, result.Alerts)
	assert.Contains(t, result.Alerts[0], "mock data")
}

func TestEnforce_StrictModeEscalatesAdvisory(t *testing.T) {
	enforcer, _, _ := newTestEnforcer(t)

	result := enforcer.Enforce(&ActionContext{
		ActionType:  "win_probability_review",
		Actor:       Actor{UserID: "u"},
		Data:        map[string]any{"win_probability": 10},
		Environment: Environment{StrictMode: true},
	})

	// In strict mode an advisory finding demands approval instead of only
	// alerting.
	assert.Equal(t, DecisionRequireApproval, result.Decision)
	require.Len(t, result.RequiredApprovals, 1)
	assert.Equal(t, "win_probability_review", result.RequiredApprovals[0].PolicyID)
	require.NotEmpty(t, result.Alerts)
}

func TestEnforce_DisabledPolicySkipped(t *testing.T) {
	enforcer, registry, _ := newTestEnforcer(t)
	require.NoError(t, registry.SetEnabled("high_value_approval", false))

	result := enforcer.Enforce(&ActionContext{
		ActionType: "bid_decision",
		Actor:      Actor{UserID: "u"},
		Data:       map[string]any{"estimated_value": 9_000_000},
	})
	assert.Equal(t, DecisionAllow, result.Decision)
}

func TestEnforce_AuditRecordAppended(t *testing.T) {
	enforcer, _, audit := newTestEnforcer(t)

	result := enforcer.EnforceWinProbabilityReview(Actor{UserID: "analyst1", Role: "analyst"}, 20)

	require.Equal(t, 1, audit.Len())
	record := audit.Records()[0]
	assert.Equal(t, result.Audit.ID, record.ID)
	assert.Equal(t, "win_probability_review", record.ActionType)
	assert.Equal(t, "analyst1", record.Actor.UserID)
	assert.Equal(t, DecisionAlert, record.Decision)
	assert.Equal(t, len(DefaultCatalog()), record.PoliciesEvaluated)
	assert.Equal(t, 1, record.PoliciesTriggered)
}

func TestEnforce_ProtectedSubmissionActions(t *testing.T) {
	enforcer, _, _ := newTestEnforcer(t)

	result := enforcer.Enforce(&ActionContext{
		ActionType: "submit_bid",
		Actor:      Actor{UserID: "u", Role: "analyst"},
	})
	assert.Equal(t, DecisionRequireApproval, result.Decision)
	require.Len(t, result.RequiredApprovals, 1)
	assert.Equal(t, "contracting_officer", result.RequiredApprovals[0].Role)
}

func TestEnforce_EventMatchEscalates(t *testing.T) {
	enforcer, _, _ := newTestEnforcer(t)

	result := enforcer.Enforce(&ActionContext{
		ActionType: "bid_decision",
		Actor:      Actor{UserID: "u"},
		Data:       map[string]any{"event": "manual_override", "win_probability": 80},
	})
	assert.Equal(t, DecisionAlert, result.Decision)
	require.NotEmpty(t, result.Alerts)
	assert.Contains(t, result.Alerts[0], "overridden")
}

func TestRegistry_ThresholdBounds(t *testing.T) {
	registry := NewDefaultRegistry()

	require.NoError(t, registry.SetThreshold(ThresholdWinProbabilityMin, 45))
	threshold, ok := registry.Threshold(ThresholdWinProbabilityMin)
	require.True(t, ok)
	assert.Equal(t, 45.0, threshold.Value)

	assert.Error(t, registry.SetThreshold(ThresholdWinProbabilityMin, 150), "above max")
	assert.Error(t, registry.SetThreshold(ThresholdWinProbabilityMin, -1), "below min")
	assert.Error(t, registry.SetThreshold("nonexistent", 1))
}

func TestRegistry_ThresholdOverrideChangesEnforcement(t *testing.T) {
	enforcer, registry, _ := newTestEnforcer(t)
	require.NoError(t, registry.SetThreshold(ThresholdWinProbabilityMin, 60))

	result := enforcer.EnforceWinProbabilityReview(Actor{UserID: "u"}, 55)
	assert.Equal(t, DecisionAlert, result.Decision)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	def := DefaultCatalog()[0]
	require.NoError(t, registry.Register(def))
	assert.Error(t, registry.Register(def))
}

func TestEnforce_ConcurrentWithMutation(t *testing.T) {
	enforcer, registry, audit := newTestEnforcer(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = registry.SetEnabled("win_probability_review", i%4 == 0)
				return
			}
			result := enforcer.EnforceWinProbabilityReview(Actor{UserID: fmt.Sprintf("u%d", i)}, 10)
			assert.NotNil(t, result)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, audit.Len())
}

func TestThresholdCompare_DotPathLookup(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&Definition{
		ID:             "nested",
		Name:           "Nested Field",
		Classification: ClassAdvisory,
		Triggers:       []Trigger{ThresholdCompare{Field: "bid.score.confidence", Op: "<", ThresholdID: "conf_min"}},
		Actions:        []Action{{Kind: ActAlert}},
		DefaultEnabled: true,
		Thresholds:     []Threshold{{ID: "conf_min", Value: 50, Min: 0, Max: 100}},
	}))

	enforcer := NewEnforcer(registry, NewAuditLog())
	result := enforcer.Enforce(&ActionContext{
		ActionType: "score_review",
		Actor:      Actor{UserID: "u"},
		Data: map[string]any{
			"bid": map[string]any{
				"score": map[string]any{"confidence": 40},
			},
		},
	})
	assert.Equal(t, DecisionAlert, result.Decision)
}

func TestDefinition_Validate(t *testing.T) {
	valid := &Definition{
		ID:             "p",
		Classification: ClassAdvisory,
		Triggers:       []Trigger{ActionMatch{Actions: []string{"a"}}},
		Actions:        []Action{{Kind: ActAlert}},
	}
	assert.NoError(t, valid.Validate())

	bad := *valid
	bad.Classification = "severe"
	assert.Error(t, bad.Validate())

	bad = *valid
	bad.Actions = []Action{{Kind: "vaporize"}}
	assert.Error(t, bad.Validate())

	bad = *valid
	bad.Triggers = nil
	assert.Error(t, bad.Validate())
}
