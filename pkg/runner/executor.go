package runner

import (
	"context"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
)

// PageState is the observable browser state after an action: the current
// URL and the page content the stop-condition detector scans.
type PageState struct {
	URL     string
	Content string
}

// StepOutcome is what one executed action produced. Artifacts are optional;
// the runner captures whichever ones the pack's evidence requirements name.
type StepOutcome struct {
	Page PageState

	// Data holds values the action extracted, keyed for the run's
	// captured-data accumulator.
	Data map[string]string

	// Screenshot is the rendered page image, when the executor captured
	// one.
	Screenshot []byte

	// DOM is the serialized page DOM, when the executor captured one.
	DOM string
}

// ActionExecutor performs one opaque typed action against a browser. The
// governance core never drives a browser directly; it hands validated,
// gated steps to an executor and inspects the outcome. Implementations
// must be safe for sequential reuse within a run.
type ActionExecutor interface {
	Execute(ctx context.Context, step pack.Step) (*StepOutcome, error)
}

// ExecutorFunc adapts a function to the ActionExecutor interface.
type ExecutorFunc func(ctx context.Context, step pack.Step) (*StepOutcome, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, step pack.Step) (*StepOutcome, error) {
	return f(ctx, step)
}
