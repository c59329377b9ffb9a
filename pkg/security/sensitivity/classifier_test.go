package sensitivity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
)

func TestBaseTier(t *testing.T) {
	tests := []struct {
		action pack.ActionType
		want   Tier
	}{
		{pack.ActionNavigate, TierSafe},
		{pack.ActionExtract, TierSafe},
		{pack.ActionClick, TierAdvisory},
		{pack.ActionDownload, TierAdvisory},
		{pack.ActionFill, TierMandatory},
		{pack.ActionSubmit, TierMandatory},
		{pack.ActionType("teleport"), TierMandatory}, // unknown defaults to must-approve
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, BaseTier(tt.action))
		})
	}
}

func TestClassify_PackWidensOnly(t *testing.T) {
	p := &pack.Pack{
		SensitiveActions: []pack.ActionType{pack.ActionClick},
	}

	// Pack marks click sensitive: raised to MANDATORY.
	assert.Equal(t, TierMandatory, Classify(pack.ActionClick, p, ""))

	// Unlisted actions keep their base tier.
	assert.Equal(t, TierSafe, Classify(pack.ActionNavigate, p, ""))
}

func TestClassify_DeclaredSensitivityRaises(t *testing.T) {
	assert.Equal(t, TierMandatory, Classify(pack.ActionNavigate, nil, "MANDATORY"))
	assert.Equal(t, TierAdvisory, Classify(pack.ActionNavigate, nil, "advisory"))
}

func TestClassify_NeverDowngrades(t *testing.T) {
	// A SAFE declaration cannot lower a must-approve action.
	assert.Equal(t, TierMandatory, Classify(pack.ActionSubmit, nil, "SAFE"))

	// Nor can it lower a review-tier action.
	assert.Equal(t, TierAdvisory, Classify(pack.ActionClick, nil, "SAFE"))
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierMandatory, ParseTier("mandatory"))
	assert.Equal(t, TierAdvisory, ParseTier(" ADVISORY "))
	assert.Equal(t, TierSafe, ParseTier("safe"))
	assert.Equal(t, TierSafe, ParseTier("bogus"))
}

func TestMax(t *testing.T) {
	assert.Equal(t, TierMandatory, Max(TierSafe, TierMandatory))
	assert.Equal(t, TierAdvisory, Max(TierAdvisory, TierSafe))
	assert.Equal(t, TierMandatory, Max(TierMandatory, TierMandatory))
}
