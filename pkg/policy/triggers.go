package policy

import (
	"fmt"
	"strings"
)

// Trigger is one condition under which a policy fires. The set of trigger
// kinds is closed: each is a distinct type implementing the sealed
// interface, so evaluation is exhaustive and an unknown kind is a
// compile-time concern, not a runtime one.
type Trigger interface {
	// Evaluate reports whether the trigger matches the context, with a
	// human-readable detail when it does.
	Evaluate(ctx *ActionContext, thresholds thresholdLookup) (bool, string)

	// Kind names the trigger variant for audit output.
	Kind() string

	isTrigger()
}

// thresholdLookup resolves a threshold ID against the registry snapshot
// current at the start of the enforcement pass.
type thresholdLookup func(id string) (Threshold, bool)

// ActionMatch fires when the context's action type is in the listed set.
type ActionMatch struct {
	Actions []string
}

func (ActionMatch) isTrigger()   {}
func (ActionMatch) Kind() string { return "action_match" }

func (t ActionMatch) Evaluate(ctx *ActionContext, _ thresholdLookup) (bool, string) {
	for _, action := range t.Actions {
		if strings.EqualFold(action, ctx.ActionType) {
			return true, fmt.Sprintf("action '%s' matched", ctx.ActionType)
		}
	}
	return false, ""
}

// Named special cases for DataPatternMatch.
const (
	// SpecialMockData fires when the context indicates mock or
	// demonstration data was used to produce the action.
	SpecialMockData = "mock_data_used"
	// SpecialHighValue fires when the context's estimated_value exceeds
	// the configured high_value threshold.
	SpecialHighValue = "exceeds_high_value"
)

// DataPatternMatch fires on a keyword or structural match against the
// context data. Besides free-form patterns it recognizes the named special
// cases above.
type DataPatternMatch struct {
	Patterns []string
	Special  string
}

func (DataPatternMatch) isTrigger()   {}
func (DataPatternMatch) Kind() string { return "data_pattern_match" }

func (t DataPatternMatch) Evaluate(ctx *ActionContext, thresholds thresholdLookup) (bool, string) {
	switch t.Special {
	case SpecialMockData:
		if flag, ok := ctx.lookup("mock_data"); ok {
			if b, isBool := flag.(bool); isBool && b {
				return true, "mock data used"
			}
		}
		if ctx.Environment.Demo {
			return true, "running against demonstration data"
		}
		if ctx.containsPattern("mock data") {
			return true, "mock data used"
		}
	case SpecialHighValue:
		threshold, ok := thresholds("high_value")
		if !ok {
			return false, ""
		}
		value, ok := ctx.lookupNumber("estimated_value")
		if ok && value > threshold.Value {
			return true, fmt.Sprintf("estimated value %.0f exceeds high-value threshold %.0f", value, threshold.Value)
		}
	}

	for _, pattern := range t.Patterns {
		if ctx.containsPattern(pattern) {
			return true, fmt.Sprintf("context data matched pattern '%s'", pattern)
		}
	}
	return false, ""
}

// ThresholdCompare fires when a numeric field, resolved by dot-path against
// the context data, compares true against a configured threshold's current
// value. Op is one of ">", ">=", "<", "<=", "==".
type ThresholdCompare struct {
	Field       string
	Op          string
	ThresholdID string
}

func (ThresholdCompare) isTrigger()   {}
func (ThresholdCompare) Kind() string { return "threshold_compare" }

func (t ThresholdCompare) Evaluate(ctx *ActionContext, thresholds thresholdLookup) (bool, string) {
	threshold, ok := thresholds(t.ThresholdID)
	if !ok {
		return false, ""
	}
	value, ok := ctx.lookupNumber(t.Field)
	if !ok {
		return false, ""
	}

	matched := false
	switch t.Op {
	case ">":
		matched = value > threshold.Value
	case ">=":
		matched = value >= threshold.Value
	case "<":
		matched = value < threshold.Value
	case "<=":
		matched = value <= threshold.Value
	case "==":
		matched = value == threshold.Value
	}
	if !matched {
		return false, ""
	}
	return true, fmt.Sprintf("%s (%v) %s threshold '%s' (%v)", t.Field, value, t.Op, t.ThresholdID, threshold.Value)
}

// EventMatch fires when the context carries a named event in its data under
// the "event" key.
type EventMatch struct {
	Events []string
}

func (EventMatch) isTrigger()   {}
func (EventMatch) Kind() string { return "event_match" }

func (t EventMatch) Evaluate(ctx *ActionContext, _ thresholdLookup) (bool, string) {
	raw, ok := ctx.lookup("event")
	if !ok {
		return false, ""
	}
	event, ok := raw.(string)
	if !ok {
		return false, ""
	}
	for _, candidate := range t.Events {
		if strings.EqualFold(candidate, event) {
			return true, fmt.Sprintf("event '%s' matched", event)
		}
	}
	return false, ""
}
