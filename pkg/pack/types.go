// Package pack defines capability packs: declarative, versioned descriptions
// of the browser actions an automated agent is permitted to propose. A pack is
// loaded once from configuration, validated, and never mutated at runtime —
// evidence always records which pack version executed.
package pack

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so pack files can write durations the way
// humans do ("10m", "1h30m") instead of nanosecond integers.
type Duration time.Duration

// UnmarshalYAML decodes either a Go duration string or a bare integer
// (taken as nanoseconds).
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got %v", value.Kind)
	}
	if parsed, err := time.ParseDuration(value.Value); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(ns)
	return nil
}

// MarshalYAML writes the duration back in string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ActionType identifies one kind of browser action a step may perform.
// The governance core treats actions as opaque typed operations with a
// target descriptor; the browser layer maps them to concrete primitives.
type ActionType string

const (
	ActionNavigate   ActionType = "navigate"
	ActionExtract    ActionType = "extract"
	ActionRead       ActionType = "read"
	ActionWait       ActionType = "wait"
	ActionScroll     ActionType = "scroll"
	ActionScreenshot ActionType = "screenshot"
	ActionClick      ActionType = "click"
	ActionDownload   ActionType = "download"
	ActionFill       ActionType = "fill"
	ActionSubmit     ActionType = "submit"
	ActionUpload     ActionType = "upload"
	ActionLogin      ActionType = "login"
)

// ErrorPolicy controls how the runner reacts when a step's action fails.
type ErrorPolicy string

const (
	// ErrorAbort ends the run with status FAILED. Default when unset.
	ErrorAbort ErrorPolicy = "abort"
	// ErrorSkip records the error and continues with the next step.
	ErrorSkip ErrorPolicy = "skip"
	// ErrorRetry retries the action once, then continues.
	ErrorRetry ErrorPolicy = "retry"
	// ErrorHaltForReview pauses at a gate so a human can decide.
	ErrorHaltForReview ErrorPolicy = "halt_for_review"
)

// EvidenceType identifies one kind of artifact captured during execution.
type EvidenceType string

const (
	EvidenceScreenshot    EvidenceType = "screenshot"
	EvidenceDOMSnapshot   EvidenceType = "dom_snapshot"
	EvidenceExtractedData EvidenceType = "extracted_data"
)

// Target describes what a step acts on. All fields are optional; which ones
// are meaningful depends on the action type. Fields may contain {{param}}
// placeholders resolved at plan time.
type Target struct {
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Selector string `yaml:"selector,omitempty" json:"selector,omitempty"`
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
}

// IsZero reports whether the target carries no descriptor at all.
func (t Target) IsZero() bool {
	return t.URL == "" && t.Selector == "" && t.Text == ""
}

// Step is one unit of work in a pack. Steps are ordered; the runner executes
// them strictly in sequence.
type Step struct {
	ID          string      `yaml:"id" json:"id"`
	Action      ActionType  `yaml:"action" json:"action"`
	Target      Target      `yaml:"target,omitempty" json:"target,omitempty"`
	Value       string      `yaml:"value,omitempty" json:"value,omitempty"`
	Rationale   string      `yaml:"rationale,omitempty" json:"rationale,omitempty"`
	Sensitivity string      `yaml:"sensitivity,omitempty" json:"sensitivity,omitempty"`
	WaitFor     string      `yaml:"wait_for,omitempty" json:"wait_for,omitempty"`
	OnError     ErrorPolicy `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// EvidenceRequirements declares which artifacts the runner must capture.
type EvidenceRequirements struct {
	Screenshots   bool `yaml:"screenshots" json:"screenshots"`
	DOMSnapshots  bool `yaml:"dom_snapshots" json:"dom_snapshots"`
	ExtractedData bool `yaml:"extracted_data" json:"extracted_data"`
}

// Types returns the evidence types implied by the requirements.
func (r EvidenceRequirements) Types() []EvidenceType {
	var types []EvidenceType
	if r.Screenshots {
		types = append(types, EvidenceScreenshot)
	}
	if r.DOMSnapshots {
		types = append(types, EvidenceDOMSnapshot)
	}
	if r.ExtractedData {
		types = append(types, EvidenceExtractedData)
	}
	return types
}

// Pack is an immutable capability description. It bounds what a plan derived
// from it may do: which actions, which domains, which steps always pause for
// approval, and which unsafe page states abort the run.
type Pack struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	Steps []Step `yaml:"steps" json:"steps"`

	// AllowedActions is the closed set of action types steps may use.
	AllowedActions []ActionType `yaml:"allowed_actions" json:"allowed_actions"`

	// SensitiveActions always gate, regardless of the global sensitivity
	// table. A pack can widen the gated set but never narrow it.
	SensitiveActions []ActionType `yaml:"sensitive_actions,omitempty" json:"sensitive_actions,omitempty"`

	AllowedDomains []string `yaml:"allowed_domains" json:"allowed_domains"`
	BlockedDomains []string `yaml:"blocked_domains,omitempty" json:"blocked_domains,omitempty"`

	// StopConditions names the detector catalog entries to arm for this
	// pack. Empty means the full catalog.
	StopConditions []string `yaml:"stop_conditions,omitempty" json:"stop_conditions,omitempty"`

	Evidence EvidenceRequirements `yaml:"evidence" json:"evidence"`

	MaxRuntime Duration `yaml:"max_runtime,omitempty" json:"max_runtime,omitempty"`
}

// AllowsAction reports whether the action type is in the pack's allow-list.
func (p *Pack) AllowsAction(action ActionType) bool {
	for _, a := range p.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

// IsSensitiveAction reports whether the pack marks the action as sensitive.
func (p *Pack) IsSensitiveAction(action ActionType) bool {
	for _, a := range p.SensitiveActions {
		if a == action {
			return true
		}
	}
	return false
}

// Validate checks the pack for structural completeness. It does not validate
// step targets against the domain lists — that is the planner's job, and its
// outcome is a plan field rather than a load error.
func (p *Pack) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("pack id is required")
	}
	if strings.TrimSpace(p.Version) == "" {
		return fmt.Errorf("pack %s: version is required", p.ID)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("pack %s: at least one step is required", p.ID)
	}
	if len(p.AllowedActions) == 0 {
		return fmt.Errorf("pack %s: allowed_actions must not be empty", p.ID)
	}
	if len(p.AllowedDomains) == 0 {
		return fmt.Errorf("pack %s: allowed_domains must not be empty", p.ID)
	}

	seen := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		if strings.TrimSpace(step.ID) == "" {
			return fmt.Errorf("pack %s: step %d has no id", p.ID, i)
		}
		if seen[step.ID] {
			return fmt.Errorf("pack %s: duplicate step id '%s'", p.ID, step.ID)
		}
		seen[step.ID] = true
		if strings.TrimSpace(string(step.Action)) == "" {
			return fmt.Errorf("pack %s: step '%s' has no action", p.ID, step.ID)
		}
		switch step.OnError {
		case "", ErrorAbort, ErrorSkip, ErrorRetry, ErrorHaltForReview:
		default:
			return fmt.Errorf("pack %s: step '%s' has invalid on_error policy '%s'", p.ID, step.ID, step.OnError)
		}
	}
	return nil
}
