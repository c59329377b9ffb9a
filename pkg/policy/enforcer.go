package policy

import (
	"fmt"
	"time"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("policy")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize policy logger, using stderr fallback: %v", err)
	}
}

// Enforcer evaluates the enabled policy catalog against action contexts.
// It is independent of the planner/runner pipeline: business logic calls it
// directly for governed actions that never go through a plan.
//
// The registry and audit log are passed in by reference so callers own
// their lifecycle; the enforcer itself holds no mutable state.
type Enforcer struct {
	registry *Registry
	audit    *AuditLog
}

// NewEnforcer creates an enforcer over the given registry and audit log.
func NewEnforcer(registry *Registry, audit *AuditLog) *Enforcer {
	return &Enforcer{registry: registry, audit: audit}
}

// Enforce evaluates every enabled policy against the context and aggregates
// their verdicts into one decision. The policy set and threshold values are
// snapshotted at call start, so concurrent registry mutation never changes
// the set mid-evaluation. One audit record is appended per call.
func (e *Enforcer) Enforce(ctx *ActionContext) *Result {
	start := time.Now()
	defs, thresholds := e.registry.snapshot()
	lookup := func(id string) (Threshold, bool) {
		t, ok := thresholds[id]
		return t, ok
	}

	result := &Result{Decision: DecisionAllow}
	triggered := 0

	for _, def := range defs {
		evaluation := e.evaluatePolicy(def, ctx, lookup)
		result.Evaluations = append(result.Evaluations, evaluation)
		if !evaluation.Triggered {
			continue
		}
		triggered++
		e.applyVerdict(result, ctx, def, evaluation)
	}

	result.Audit = e.audit.append(AuditRecord{
		ActionType:        ctx.ActionType,
		Actor:             ctx.Actor,
		Decision:          result.Decision,
		PoliciesEvaluated: len(defs),
		PoliciesTriggered: triggered,
		Duration:          time.Since(start),
	})

	debugLog.Infof("Enforced action '%s' for %s: decision=%s evaluated=%d triggered=%d",
		ctx.ActionType, ctx.Actor.UserID, result.Decision, len(defs), triggered)

	return result
}

// evaluatePolicy runs a policy's triggers against the context, stopping at
// the first match, and derives the policy's own (uncapped) decision from its
// dominant action.
func (e *Enforcer) evaluatePolicy(def *Definition, ctx *ActionContext, lookup thresholdLookup) Evaluation {
	evaluation := Evaluation{
		PolicyID:       def.ID,
		PolicyName:     def.Name,
		Classification: def.Classification,
		Decision:       DecisionAllow,
	}

	for _, trigger := range def.Triggers {
		matched, detail := trigger.Evaluate(ctx, lookup)
		if !matched {
			continue
		}
		evaluation.Triggered = true
		evaluation.TriggerKind = trigger.Kind()
		evaluation.Detail = detail
		evaluation.Decision = decisionForAction(def.dominantAction().Kind)
		break
	}
	return evaluation
}

// applyVerdict folds one triggered policy into the aggregate result,
// capping the policy's authority by its classification: MANDATORY policies
// may block or require approval, ADVISORY policies at most raise an alert
// (escalated to a required approval when the environment runs in strict
// mode), INFORMATIONAL policies only append an alert and never change the
// decision.
func (e *Enforcer) applyVerdict(result *Result, ctx *ActionContext, def *Definition, evaluation Evaluation) {
	action := def.dominantAction()
	alert := alertMessage(def, action, evaluation)

	switch def.Classification {
	case ClassMandatory:
		switch evaluation.Decision {
		case DecisionBlock:
			if dominates(DecisionBlock, result.Decision) {
				result.Decision = DecisionBlock
				result.BlockingPolicy = def.ID
			}
		case DecisionRequireApproval:
			result.RequiredApprovals = append(result.RequiredApprovals, RequiredApproval{
				PolicyID: def.ID,
				Role:     action.Role,
				Reason:   evaluation.Detail,
			})
			if dominates(DecisionRequireApproval, result.Decision) {
				result.Decision = DecisionRequireApproval
			}
		case DecisionAlert:
			result.Alerts = append(result.Alerts, alert)
			if dominates(DecisionAlert, result.Decision) {
				result.Decision = DecisionAlert
			}
		}

	case ClassAdvisory:
		result.Alerts = append(result.Alerts, alert)
		if ctx.Environment.StrictMode {
			result.RequiredApprovals = append(result.RequiredApprovals, RequiredApproval{
				PolicyID: def.ID,
				Role:     action.Role,
				Reason:   evaluation.Detail,
			})
			if dominates(DecisionRequireApproval, result.Decision) {
				result.Decision = DecisionRequireApproval
			}
		} else if dominates(DecisionAlert, result.Decision) {
			result.Decision = DecisionAlert
		}

	case ClassInformational:
		result.Alerts = append(result.Alerts, alert)
	}
}

// decisionForAction maps a policy action kind to its uncapped decision.
func decisionForAction(kind ActionKind) Decision {
	switch kind {
	case ActBlock:
		return DecisionBlock
	case ActRequireApproval:
		return DecisionRequireApproval
	case ActAlert, ActEscalate:
		return DecisionAlert
	default:
		return DecisionAllow
	}
}

// alertMessage builds the alert text for a triggered policy, preferring the
// action's configured message.
func alertMessage(def *Definition, action Action, evaluation Evaluation) string {
	if action.Message != "" && evaluation.Detail != "" {
		return fmt.Sprintf("%s: %s", action.Message, evaluation.Detail)
	}
	if action.Message != "" {
		return action.Message
	}
	return fmt.Sprintf("%s: %s", def.Name, evaluation.Detail)
}
