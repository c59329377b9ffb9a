package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/evidence"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/logging"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/planner"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/domains"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/sensitivity"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/stopcond"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("runner")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize runner logger, using stderr fallback: %v", err)
	}
}

// ProgressFunc is invoked after every step with the step just handled and
// the run's current status.
type ProgressFunc func(index, total int, step pack.Step, status Status)

// Options configures one runner.
type Options struct {
	// Approve decides gates. Nil fails MANDATORY gates closed and ADVISORY
	// gates open.
	Approve ApprovalFunc

	// OnProgress, when set, is called after every step.
	OnProgress ProgressFunc
}

// executionContext is the runner's mutable state for one run. It is owned
// exclusively by one Execute call and folded into the result at completion.
type executionContext struct {
	completed    int // steps that ran to success; skipped failures don't count
	status       Status
	capturedData map[string]string
	chain        *evidence.Chain
	logs         []string
	errors       []string
	gateEvents   []GateEvent
}

func (ec *executionContext) logf(format string, args ...any) {
	ec.logs = append(ec.logs, fmt.Sprintf(format, args...))
}

func (ec *executionContext) errorf(format string, args ...any) {
	ec.errors = append(ec.errors, fmt.Sprintf(format, args...))
}

// Runner walks one approved plan. A Runner is built per run; two runs never
// share state, and many runners may execute concurrently.
type Runner struct {
	pack     *pack.Pack
	plan     *planner.Plan
	executor ActionExecutor
	opts     Options

	validator *domains.Validator
	detector  *stopcond.Detector
}

// New creates a runner for an approved plan. The domain validator is
// rebuilt from the pack so execution-time checks cannot drift from the
// lists the plan was validated against.
func New(p *pack.Pack, plan *planner.Plan, executor ActionExecutor, opts Options) (*Runner, error) {
	if executor == nil {
		return nil, fmt.Errorf("action executor is required")
	}
	validator, err := domains.NewValidator(p.AllowedDomains, p.BlockedDomains)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pack domain lists: %w", err)
	}

	return &Runner{
		pack:      p,
		plan:      plan,
		executor:  executor,
		opts:      opts,
		validator: validator,
		detector:  stopcond.NewDetector(validator, p.StopConditions),
	}, nil
}

// Execute walks the plan's steps in order. Entry precondition: the plan
// must be APPROVED and both validations valid; otherwise the run fails
// immediately with zero steps executed and no side effects.
func (r *Runner) Execute(ctx context.Context) *Result {
	started := time.Now().UTC()
	ec := &executionContext{
		status:       StatusRunning,
		capturedData: make(map[string]string),
		chain:        evidence.NewChain(),
	}

	if r.plan.ApprovalStatus != planner.StatusApproved {
		ec.status = StatusFailed
		ec.errorf("plan is not approved (status '%s'); execution refused", r.plan.ApprovalStatus)
		return r.finish(ec, started, nil)
	}
	if !r.plan.Valid() {
		ec.status = StatusFailed
		ec.errorf("plan has validation violations; execution refused")
		return r.finish(ec, started, nil)
	}

	if r.pack.MaxRuntime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.pack.MaxRuntime.Std())
		defer cancel()
	}

	var stopped *stopcond.Triggered

	for i, planned := range r.plan.Steps {
		// Cooperative cancellation, checked at the top of each iteration.
		// No partial step is rolled back; the evidence accumulated so far
		// is preserved in the result.
		if ctx.Err() != nil {
			ec.status = StatusAborted
			ec.errorf("run aborted: %v", ctx.Err())
			break
		}
		step := planned.Step
		domain := planner.TargetDomain(step)

		if planned.RequiresGate {
			if !r.handleGate(ctx, ec, planned, domain) {
				break
			}
		}

		// Interpolated navigation targets are only fully known at runtime,
		// so the domain check from plan time is repeated here.
		if step.Action == pack.ActionNavigate {
			if verdict := r.validator.Validate(step.Target.URL); !verdict.Allowed {
				stopped = r.stopRun(ec, step, stopcond.Triggered{
					Condition: stopcond.CondOffsiteRedirect,
					Severity:  stopcond.SeverityCritical,
					Action:    stopcond.ActionHalt,
					Detail:    verdict.Reason,
				}, domain)
				break
			}
		}

		outcome, err := r.executeStep(ctx, ec, step)
		if err != nil {
			if !r.handleStepError(ctx, ec, planned, domain, err) {
				break
			}
			r.progress(i, step, ec.status)
			continue
		}

		if outcome != nil {
			if halted, cond := r.inspectPage(ctx, ec, planned, outcome, domain); halted {
				stopped = cond
				break
			}
			r.captureEvidence(ec, planned, outcome, domain)
		}

		ec.completed++
		r.progress(i, step, ec.status)
	}

	if ec.status == StatusRunning {
		ec.status = StatusCompleted
	}
	return r.finish(ec, started, stopped)
}

// handleGate pauses the run at a gate and resolves it. Returns false when
// the run must stop.
func (r *Runner) handleGate(ctx context.Context, ec *executionContext, planned planner.PlannedStep, domain string) bool {
	event := newGateEvent(planned, domain)
	ec.gateEvents = append(ec.gateEvents, event)
	ec.status = StatusPausedForGate
	ec.logf("step '%s' paused for %s gate", planned.Step.ID, planned.GateType)

	approved, reason := r.decideGate(ctx, event, planned.GateType)
	if !approved {
		ec.status = StatusStopped
		ec.errorf("step '%s' gate rejected: %s", planned.Step.ID, reason)
		// Every HELD → STOPPED transition leaves an audit trace even when
		// no further steps execute.
		r.captureRejection(ec, event, reason, domain)
		return false
	}

	ec.status = StatusRunning
	ec.logf("step '%s' gate approved", planned.Step.ID)
	return true
}

// decideGate resolves a gate with the configured approver. Without one,
// MANDATORY gates fail closed and ADVISORY gates fail open.
func (r *Runner) decideGate(ctx context.Context, event GateEvent, gateType planner.GateType) (bool, string) {
	if r.opts.Approve == nil {
		if gateType == planner.GateMandatory {
			return false, "no approval handler configured; MANDATORY gates fail closed"
		}
		return true, ""
	}

	approved, err := r.opts.Approve(ctx, event)
	if err != nil {
		return false, fmt.Sprintf("approval handler failed: %v", err)
	}
	if !approved {
		return false, "rejected by approver"
	}
	return true, ""
}

// executeStep runs the action, honoring a single retry when the step's
// error policy asks for one.
func (r *Runner) executeStep(ctx context.Context, ec *executionContext, step pack.Step) (*StepOutcome, error) {
	outcome, err := r.executor.Execute(ctx, step)
	if err != nil && step.OnError == pack.ErrorRetry {
		ec.logf("step '%s' failed, retrying: %v", step.ID, err)
		outcome, err = r.executor.Execute(ctx, step)
	}
	return outcome, err
}

// handleStepError applies the step's declared error policy. Returns false
// when the run must stop.
func (r *Runner) handleStepError(ctx context.Context, ec *executionContext, planned planner.PlannedStep, domain string, err error) bool {
	step := planned.Step
	ec.errorf("step '%s' failed: %v", step.ID, err)

	switch step.OnError {
	case pack.ErrorSkip, pack.ErrorRetry:
		ec.logf("step '%s' skipped after error (policy %s)", step.ID, step.OnError)
		return true

	case pack.ErrorHaltForReview:
		review := planned
		review.GateType = planner.GateMandatory
		review.Tier = sensitivity.TierMandatory
		ec.logf("step '%s' halted for review after error", step.ID)
		return r.handleGate(ctx, ec, review, domain)

	default: // abort
		ec.status = StatusFailed
		return false
	}
}

// inspectPage runs stop-condition detection on the page state an action
// produced. A critical condition halts the run; warnings pause for an
// advisory decision and resume when approved (or when no approver exists).
func (r *Runner) inspectPage(ctx context.Context, ec *executionContext, planned planner.PlannedStep, outcome *StepOutcome, domain string) (bool, *stopcond.Triggered) {
	triggered := r.detector.Detect(outcome.Page.Content, outcome.Page.URL)
	if len(triggered) == 0 {
		return false, nil
	}

	if critical, ok := stopcond.AnyCritical(triggered); ok {
		cond := r.stopRun(ec, planned.Step, critical, domain)
		return true, cond
	}

	// Warnings only. Pause for an advisory decision; fail open without an
	// approver.
	warning := triggered[0]
	ec.logf("step '%s' raised warning condition '%s': %s", planned.Step.ID, warning.Condition, warning.Detail)

	pause := planned
	pause.GateType = planner.GateAdvisory
	if !r.handleGate(ctx, ec, pause, domain) {
		cond := warning
		return true, &cond
	}
	return false, nil
}

// stopRun halts the run on a critical condition and captures the mandatory
// stop-evidence record.
func (r *Runner) stopRun(ec *executionContext, step pack.Step, cond stopcond.Triggered, domain string) *stopcond.Triggered {
	ec.status = StatusStopped
	ec.errorf("step '%s' halted: condition '%s' (%s)", step.ID, cond.Condition, cond.Detail)

	payload, _ := json.Marshal(cond)
	record := ec.chain.Append(step.ID, evidence.TypeStopCondition, domain, payload)
	ec.logf("captured stop-condition evidence %s", record.ID)

	debugLog.Warnf("Run stopped at step '%s': %s", step.ID, cond.Detail)
	return &cond
}

// captureRejection appends the dedicated gate-rejection evidence record.
func (r *Runner) captureRejection(ec *executionContext, event GateEvent, reason string, domain string) {
	payload, _ := json.Marshal(map[string]string{
		"gate_id": event.ID,
		"step_id": event.StepID,
		"reason":  reason,
	})
	record := ec.chain.Append(event.StepID, evidence.TypeGateRejection, domain, payload)
	ec.logf("captured gate-rejection evidence %s", record.ID)
}

// captureEvidence records the artifacts the pack requires for a completed
// step and accumulates extracted data.
func (r *Runner) captureEvidence(ec *executionContext, planned planner.PlannedStep, outcome *StepOutcome, domain string) {
	for key, value := range outcome.Data {
		ec.capturedData[key] = value
	}

	for _, evidenceType := range planned.EvidenceTypes {
		switch evidenceType {
		case pack.EvidenceScreenshot:
			if len(outcome.Screenshot) > 0 {
				ec.chain.Append(planned.Step.ID, pack.EvidenceScreenshot, domain, outcome.Screenshot)
			}
		case pack.EvidenceDOMSnapshot:
			if outcome.DOM != "" {
				ec.chain.Append(planned.Step.ID, pack.EvidenceDOMSnapshot, domain, []byte(outcome.DOM))
			}
		case pack.EvidenceExtractedData:
			if len(outcome.Data) > 0 {
				payload, _ := json.Marshal(outcome.Data)
				ec.chain.Append(planned.Step.ID, pack.EvidenceExtractedData, domain, payload)
			}
		}
	}
}

func (r *Runner) progress(index int, step pack.Step, status Status) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(index, len(r.plan.Steps), step, status)
	}
}

// finish folds the execution context into the immutable result, computing
// the package and policy-linkage hashes.
func (r *Runner) finish(ec *executionContext, started time.Time, stopped *stopcond.Triggered) *Result {
	packageHash := ec.chain.PackageHash(ec.capturedData)

	result := &Result{
		RunID:             uuid.New().String(),
		PlanID:            r.plan.ID,
		PackID:            r.pack.ID,
		PackVersion:       r.pack.Version,
		Status:            ec.status,
		StepsCompleted:    ec.completed,
		StepsTotal:        len(r.plan.Steps),
		StopCondition:     stopped,
		GateEvents:        ec.gateEvents,
		Errors:            ec.errors,
		Logs:              ec.logs,
		Evidence:          ec.chain.Records(),
		CapturedData:      ec.capturedData,
		PackageHash:       packageHash,
		PolicyLinkageHash: evidence.PolicyLinkageHash(r.pack.ID, r.pack.Version, packageHash),
		StartedAt:         started,
		FinishedAt:        time.Now().UTC(),
	}

	debugLog.Infof("Run %s finished: status=%s steps=%d/%d evidence=%d",
		result.RunID, result.Status, result.StepsCompleted, result.StepsTotal, len(result.Evidence))
	return result
}
