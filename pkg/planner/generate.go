package planner

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/domains"
	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/sensitivity"
)

// credentialKeywords flag targets that look authentication-related.
var credentialKeywords = []string{"login", "signin", "sign-in", "password", "auth", "credential"}

// Generate produces a plan from a pack and its interpolation parameters.
// It never returns an error for domain or action violations; those are
// recorded on the plan's validation results. The plan is emitted with
// approval status PENDING and one planned step per pack step.
func Generate(p *pack.Pack, params map[string]string) *Plan {
	plan := &Plan{
		ID:               uuid.New().String(),
		PackID:           p.ID,
		PackVersion:      p.Version,
		CreatedAt:        time.Now().UTC(),
		DomainValidation: ValidationResult{Valid: true},
		ActionValidation: ValidationResult{Valid: true},
		ApprovalStatus:   StatusPending,
	}

	validator, err := domains.NewValidator(p.AllowedDomains, p.BlockedDomains)
	if err != nil {
		// Bad domain lists invalidate the plan rather than aborting it:
		// the reviewer still gets every other finding.
		plan.DomainValidation.addViolation(fmt.Sprintf("pack domain lists could not be compiled: %v", err))
	}

	seenDomains := make(map[string]bool)
	seenFlags := make(map[string]bool)
	evidenceTypes := p.Evidence.Types()

	for _, step := range p.Steps {
		interpolated := interpolateStep(step, params)

		if target := interpolated.Target.URL; target != "" && validator != nil {
			verdict := validator.Validate(target)
			if verdict.Allowed {
				if !seenDomains[verdict.Domain] {
					seenDomains[verdict.Domain] = true
					plan.Domains = append(plan.Domains, verdict.Domain)
				}
			} else {
				plan.DomainValidation.addViolation(
					fmt.Sprintf("step '%s': %s", interpolated.ID, verdict.Reason))
			}
		}

		if !p.AllowsAction(interpolated.Action) {
			plan.ActionValidation.addViolation(
				fmt.Sprintf("step '%s': action '%s' is not in the pack's allowed actions", interpolated.ID, interpolated.Action))
		}

		planned := classifyStep(p, interpolated)
		planned.EvidenceTypes = evidenceTypes

		for _, flag := range planned.RiskFlags {
			if !seenFlags[flag] {
				seenFlags[flag] = true
				plan.RiskFlags = append(plan.RiskFlags, flag)
			}
		}
		if planned.RequiresGate {
			plan.RequiredGates = append(plan.RequiredGates, planned.Step.ID)
		}

		plan.Steps = append(plan.Steps, planned)
	}

	return plan
}

// classifyStep decides the step's tier, gate requirement, gate tier, and
// static risk flags.
func classifyStep(p *pack.Pack, step pack.Step) PlannedStep {
	tier := sensitivity.Classify(step.Action, p, step.Sensitivity)

	planned := PlannedStep{Step: step, Tier: tier}

	// Anything above SAFE pauses for approval: review-tier actions always
	// gate, and MANDATORY steps gate by definition.
	if tier != sensitivity.TierSafe {
		planned.RequiresGate = true
		if tier == sensitivity.TierMandatory {
			planned.GateType = GateMandatory
		} else {
			planned.GateType = GateAdvisory
		}
	}

	planned.RiskFlags = assessRiskFlags(step)
	return planned
}

// assessRiskFlags performs static keyword analysis of a step's target.
func assessRiskFlags(step pack.Step) []string {
	var flags []string

	haystack := strings.ToLower(step.Target.URL + " " + step.Target.Selector + " " + step.Target.Text)
	for _, keyword := range credentialKeywords {
		if strings.Contains(haystack, keyword) {
			flags = append(flags, RiskCredential)
			break
		}
	}

	if step.Action == pack.ActionDownload {
		flags = append(flags, RiskFileDownload)
	}
	return flags
}

// interpolateStep resolves {{param}} placeholders in the step's target and
// value. Unknown placeholders are left in place so validation surfaces them.
func interpolateStep(step pack.Step, params map[string]string) pack.Step {
	step.Target.URL = Interpolate(step.Target.URL, params)
	step.Target.Selector = Interpolate(step.Target.Selector, params)
	step.Target.Text = Interpolate(step.Target.Text, params)
	step.Value = Interpolate(step.Value, params)
	return step
}

// Interpolate replaces every {{key}} placeholder with its parameter value.
func Interpolate(s string, params map[string]string) string {
	if s == "" || len(params) == 0 {
		return s
	}
	for key, value := range params {
		s = strings.ReplaceAll(s, "{{"+key+"}}", value)
	}
	return s
}

// TargetDomain returns the normalized host of a step's URL target, if any.
func TargetDomain(step pack.Step) string {
	if step.Target.URL == "" {
		return ""
	}
	u, err := url.Parse(step.Target.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
