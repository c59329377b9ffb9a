package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
policies:
  - id: past_performance_gap
    name: Past Performance Gap Review
    description: Flags bids scored without relevant past performance.
    classification: advisory
    default_enabled: true
    triggers:
      - kind: threshold_compare
        field: past_performance_score
        op: "<"
        threshold_id: pp_min
    actions:
      - kind: alert
        message: past performance score below review floor
    thresholds:
      - id: pp_min
        value: 40
        min: 0
        max: 100
        unit: points
  - id: debarment_check
    name: Debarment Check
    classification: mandatory
    default_enabled: true
    triggers:
      - kind: data_pattern_match
        patterns: ["debarred", "excluded party"]
    actions:
      - kind: block
`

func TestParseCatalog(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, ParseCatalog(registry, []byte(catalogYAML)))

	enforcer := NewEnforcer(registry, NewAuditLog())

	// The advisory threshold policy fires on a low score.
	result := enforcer.Enforce(&ActionContext{
		ActionType: "bid_scoring",
		Actor:      Actor{UserID: "u"},
		Data:       map[string]any{"past_performance_score": 10},
	})
	assert.Equal(t, DecisionAlert, result.Decision)

	// The mandatory pattern policy blocks outright.
	result = enforcer.Enforce(&ActionContext{
		ActionType: "bid_scoring",
		Actor:      Actor{UserID: "u"},
		Data:       map[string]any{"vendor_status": "Excluded Party listed"},
	})
	assert.Equal(t, DecisionBlock, result.Decision)
	assert.Equal(t, "debarment_check", result.BlockingPolicy)
}

func TestParseCatalog_InstallsThresholds(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, ParseCatalog(registry, []byte(catalogYAML)))

	threshold, ok := registry.Threshold("pp_min")
	require.True(t, ok)
	assert.Equal(t, 40.0, threshold.Value)
	assert.Equal(t, "points", threshold.Unit)
}

func TestParseCatalog_UnknownTriggerKind(t *testing.T) {
	registry := NewRegistry()
	err := ParseCatalog(registry, []byte(`
policies:
  - id: broken
    classification: advisory
    triggers:
      - kind: sentiment_analysis
    actions:
      - kind: alert
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sentiment_analysis")
}

func TestParseCatalog_InvalidYAML(t *testing.T) {
	registry := NewRegistry()
	assert.Error(t, ParseCatalog(registry, []byte("policies: [oops")))
}
