// Package policy implements the governance rule catalog and its enforcer.
// Policies are registered once per governance configuration, enabled or
// disabled independently of their definition, and evaluated against action
// contexts. One Enforce call returns one authoritative decision; every call
// appends one immutable audit record.
package policy

import "fmt"

// Classification determines how much authority a policy's verdict carries.
type Classification string

const (
	// ClassMandatory policies may block an action or demand approval.
	ClassMandatory Classification = "mandatory"
	// ClassAdvisory policies can at most downgrade the decision to ALERT.
	ClassAdvisory Classification = "advisory"
	// ClassInformational policies only append alerts; they never change
	// the decision.
	ClassInformational Classification = "informational"
)

// ActionKind is one kind of response a triggered policy demands.
type ActionKind string

const (
	ActBlock           ActionKind = "block"
	ActRequireApproval ActionKind = "require_approval"
	ActAlert           ActionKind = "alert"
	ActEscalate        ActionKind = "escalate"
	ActLog             ActionKind = "log"
)

// actionRank orders action kinds by precedence: block > require_approval >
// alert/escalate > log.
func actionRank(k ActionKind) int {
	switch k {
	case ActBlock:
		return 3
	case ActRequireApproval:
		return 2
	case ActAlert, ActEscalate:
		return 1
	default:
		return 0
	}
}

// Action is one response a policy takes when triggered. Role is meaningful
// for require_approval actions; Message customizes alert text.
type Action struct {
	Kind    ActionKind `yaml:"kind" json:"kind"`
	Role    string     `yaml:"role,omitempty" json:"role,omitempty"`
	Message string     `yaml:"message,omitempty" json:"message,omitempty"`
}

// Threshold is a configurable numeric bound referenced by threshold
// triggers. Value may be overridden at runtime within [Min, Max].
type Threshold struct {
	ID      string  `yaml:"id" json:"id"`
	Value   float64 `yaml:"value" json:"value"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Unit    string  `yaml:"unit,omitempty" json:"unit,omitempty"`
	Purpose string  `yaml:"purpose,omitempty" json:"purpose,omitempty"`
}

// Definition is one governance rule: identity, classification, trigger
// conditions, and the actions taken on a match. DefaultEnabled seeds the
// registry's enabled set when the definition is registered.
type Definition struct {
	ID             string         `yaml:"id" json:"id"`
	Name           string         `yaml:"name" json:"name"`
	Description    string         `yaml:"description,omitempty" json:"description,omitempty"`
	Classification Classification `yaml:"classification" json:"classification"`
	Triggers       []Trigger      `yaml:"-" json:"-"`
	Actions        []Action       `yaml:"actions" json:"actions"`
	DefaultEnabled bool           `yaml:"default_enabled" json:"default_enabled"`
	Thresholds     []Threshold    `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
}

// Validate checks a definition for structural completeness.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("policy id is required")
	}
	switch d.Classification {
	case ClassMandatory, ClassAdvisory, ClassInformational:
	default:
		return fmt.Errorf("policy %s: invalid classification '%s'", d.ID, d.Classification)
	}
	if len(d.Triggers) == 0 {
		return fmt.Errorf("policy %s: at least one trigger is required", d.ID)
	}
	if len(d.Actions) == 0 {
		return fmt.Errorf("policy %s: at least one action is required", d.ID)
	}
	for _, a := range d.Actions {
		switch a.Kind {
		case ActBlock, ActRequireApproval, ActAlert, ActEscalate, ActLog:
		default:
			return fmt.Errorf("policy %s: invalid action kind '%s'", d.ID, a.Kind)
		}
	}
	return nil
}

// dominantAction returns the policy's highest-precedence action.
func (d *Definition) dominantAction() Action {
	best := d.Actions[0]
	for _, a := range d.Actions[1:] {
		if actionRank(a.Kind) > actionRank(best.Kind) {
			best = a
		}
	}
	return best
}
