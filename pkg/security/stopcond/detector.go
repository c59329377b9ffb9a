// Package stopcond scans observed page state for unsafe conditions that must
// halt or pause an automated run: login walls, payment forms, PII collection,
// CAPTCHAs, error pages, and redirects off the allowed domain set. The runner
// invokes the detector after every executed step, not only at the start,
// because a click can land anywhere.
package stopcond

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/security/domains"
)

// Severity classifies how a triggered condition must be handled.
type Severity string

const (
	// SeverityCritical halts the run immediately; no resume is possible.
	SeverityCritical Severity = "critical"
	// SeverityWarning pauses the run; a human may resume it.
	SeverityWarning Severity = "warning"
)

// Action is the runner-facing handling instruction for a condition.
type Action string

const (
	ActionHalt  Action = "halt"
	ActionPause Action = "pause"
)

// Condition names in the fixed catalog.
const (
	CondLoginPage       = "login_page"
	CondPaymentPage     = "payment_page"
	CondPIIForm         = "pii_form"
	CondCaptcha         = "captcha"
	CondErrorPage       = "error_page"
	CondOffsiteRedirect = "offsite_redirect"
)

// Triggered is one condition that fired during a scan. Multiple conditions
// may trigger on the same page; any critical one is authoritative.
type Triggered struct {
	Condition string   `json:"condition"`
	Severity  Severity `json:"severity"`
	Action    Action   `json:"action"`
	Detail    string   `json:"detail"`
}

// IsCritical reports whether the condition demands an immediate halt.
func (t Triggered) IsCritical() bool {
	return t.Severity == SeverityCritical
}

// catalogEntry is one pattern set in the fixed catalog.
type catalogEntry struct {
	name     string
	severity Severity
	action   Action
	patterns []string
}

// catalog is the fixed set of content-driven unsafe-state patterns. The
// offsite_redirect condition is URL-driven and handled separately.
var catalog = []catalogEntry{
	{
		name:     CondLoginPage,
		severity: SeverityCritical,
		action:   ActionHalt,
		patterns: []string{"sign in", "log in", "login", "username", "password", "forgot your password"},
	},
	{
		name:     CondPaymentPage,
		severity: SeverityCritical,
		action:   ActionHalt,
		patterns: []string{"credit card", "card number", "billing address", "cvv", "payment method", "checkout"},
	},
	{
		name:     CondPIIForm,
		severity: SeverityCritical,
		action:   ActionHalt,
		patterns: []string{"social security", "ssn", "date of birth", "passport number", "driver's license"},
	},
	{
		name:     CondCaptcha,
		severity: SeverityCritical,
		action:   ActionHalt,
		patterns: []string{"captcha", "i'm not a robot", "verify you are human", "recaptcha"},
	},
	{
		name:     CondErrorPage,
		severity: SeverityWarning,
		action:   ActionPause,
		patterns: []string{"404 not found", "500 internal server error", "access denied", "service unavailable", "page not found"},
	},
}

// Detector scans page content and URLs against the armed condition set.
// A Detector is immutable after construction and safe for concurrent use.
type Detector struct {
	validator *domains.Validator
	armed     map[string]bool // nil means the full catalog is armed
}

// NewDetector builds a detector. The validator carries the active pack's
// domain lists and backs the offsite_redirect condition. armed selects a
// subset of the catalog by name; empty arms everything.
func NewDetector(validator *domains.Validator, armed []string) *Detector {
	d := &Detector{validator: validator}
	if len(armed) > 0 {
		d.armed = make(map[string]bool, len(armed))
		for _, name := range armed {
			d.armed[name] = true
		}
	}
	return d
}

// isArmed reports whether a condition participates in scans.
func (d *Detector) isArmed(name string) bool {
	return d.armed == nil || d.armed[name]
}

// Detect scans page content and the current URL, returning every triggered
// condition. Content that parses as HTML is reduced to its visible text
// before pattern matching so markup never masks or fakes a hit.
func (d *Detector) Detect(content, currentURL string) []Triggered {
	var triggered []Triggered

	text := strings.ToLower(extractText(content))
	for _, entry := range catalog {
		if !d.isArmed(entry.name) {
			continue
		}
		for _, pattern := range entry.patterns {
			if strings.Contains(text, pattern) {
				triggered = append(triggered, Triggered{
					Condition: entry.name,
					Severity:  entry.severity,
					Action:    entry.action,
					Detail:    fmt.Sprintf("page content matched pattern '%s'", pattern),
				})
				break
			}
		}
	}

	if d.isArmed(CondOffsiteRedirect) && currentURL != "" && d.validator != nil {
		if verdict := d.validator.Validate(currentURL); !verdict.Allowed {
			triggered = append(triggered, Triggered{
				Condition: CondOffsiteRedirect,
				Severity:  SeverityCritical,
				Action:    ActionHalt,
				Detail:    verdict.Reason,
			})
		}
	}

	return triggered
}

// AnyCritical reports whether any triggered condition is critical. The
// runner treats one critical condition as authoritative regardless of how
// many warnings also fired.
func AnyCritical(triggered []Triggered) (Triggered, bool) {
	for _, t := range triggered {
		if t.IsCritical() {
			return t, true
		}
	}
	return Triggered{}, false
}

// extractText returns the visible text of an HTML document, skipping script
// and style elements. Content that does not parse as HTML is returned as-is.
func extractText(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var builder strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			builder.WriteString(n.Data)
			builder.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return builder.String()
}
