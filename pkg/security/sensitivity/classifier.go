// Package sensitivity maps action types to review tiers. The global table is
// deliberately asymmetric: a pack may widen the set of actions that require
// approval, but it can never downgrade an action the table already treats as
// must-approve. Packs add caution; they never remove it.
package sensitivity

import (
	"strings"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
)

// Tier is an action's need for human review.
type Tier string

const (
	// TierSafe actions execute without a gate.
	TierSafe Tier = "SAFE"
	// TierAdvisory actions should be reviewed; gates fail open without an
	// approver.
	TierAdvisory Tier = "ADVISORY"
	// TierMandatory actions must be approved; gates fail closed without an
	// approver.
	TierMandatory Tier = "MANDATORY"
)

// rank orders tiers so comparisons can enforce "raise only".
func rank(t Tier) int {
	switch t {
	case TierSafe:
		return 0
	case TierAdvisory:
		return 1
	case TierMandatory:
		return 2
	}
	return 2
}

// Max returns the higher of two tiers.
func Max(a, b Tier) Tier {
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// baseTiers is the global static table. Anything not listed defaults to
// MANDATORY — unknown actions are treated as the most dangerous kind.
var baseTiers = map[pack.ActionType]Tier{
	pack.ActionNavigate:   TierSafe,
	pack.ActionExtract:    TierSafe,
	pack.ActionRead:       TierSafe,
	pack.ActionWait:       TierSafe,
	pack.ActionScroll:     TierSafe,
	pack.ActionScreenshot: TierSafe,
	pack.ActionClick:      TierAdvisory,
	pack.ActionDownload:   TierAdvisory,
}

// BaseTier returns the global tier for an action type, ignoring pack
// configuration.
func BaseTier(action pack.ActionType) Tier {
	if tier, ok := baseTiers[action]; ok {
		return tier
	}
	return TierMandatory
}

// Classify returns the effective tier for an action under a pack. The pack's
// sensitive-action list and the step's declared sensitivity can each raise
// the tier above the global table; neither can lower it.
func Classify(action pack.ActionType, p *pack.Pack, declared string) Tier {
	tier := BaseTier(action)
	if p != nil && p.IsSensitiveAction(action) {
		tier = Max(tier, TierMandatory)
	}
	if declared != "" {
		tier = Max(tier, ParseTier(declared))
	}
	return tier
}

// ParseTier converts a step's declared sensitivity string to a tier.
// Unrecognized values parse as SAFE so a typo cannot silently promote a
// step past review — promotion comes only from recognized declarations.
func ParseTier(s string) Tier {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(TierMandatory):
		return TierMandatory
	case string(TierAdvisory):
		return TierAdvisory
	default:
		return TierSafe
	}
}
