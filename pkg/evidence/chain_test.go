package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledgepa3/VA-Governance-Project2-sub004/pkg/pack"
)

func TestChain_Append(t *testing.T) {
	chain := NewChain()

	record := chain.Append("step-1", pack.EvidenceScreenshot, "sam.gov", []byte("png-bytes"))

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "step-1", record.StepID)
	assert.Equal(t, pack.EvidenceScreenshot, record.Type)
	assert.Equal(t, "sam.gov", record.Domain)
	assert.False(t, record.CapturedAt.IsZero())

	expected := sha256.Sum256([]byte("png-bytes"))
	assert.Equal(t, hex.EncodeToString(expected[:]), record.Hash)

	require.Equal(t, 1, chain.Len())
	assert.Equal(t, record, chain.Records()[0])
}

func TestChain_RecordsAreCopies(t *testing.T) {
	chain := NewChain()
	chain.Append("s", pack.EvidenceDOMSnapshot, "sam.gov", []byte("<html/>"))

	records := chain.Records()
	records[0].Hash = "tampered"

	assert.NotEqual(t, "tampered", chain.Records()[0].Hash)
}

func TestPackageHash_DetectsTampering(t *testing.T) {
	chain := NewChain()
	chain.Append("s1", pack.EvidenceScreenshot, "sam.gov", []byte("one"))
	base := chain.PackageHash(nil)

	// Adding a record changes the package hash.
	chain.Append("s2", pack.EvidenceScreenshot, "sam.gov", []byte("two"))
	assert.NotEqual(t, base, chain.PackageHash(nil))

	// Captured data participates too.
	withData := chain.PackageHash(map[string]string{"k": "v"})
	assert.NotEqual(t, chain.PackageHash(nil), withData)
}

func TestPackageHash_Deterministic(t *testing.T) {
	chain := NewChain()
	chain.Append("s1", pack.EvidenceExtractedData, "sam.gov", []byte("data"))

	data := map[string]string{"b": "2", "a": "1"}
	assert.Equal(t, chain.PackageHash(data), chain.PackageHash(data))
}

func TestPolicyLinkageHash(t *testing.T) {
	h1 := PolicyLinkageHash("pack-a", "1.0.0", "abc")
	h2 := PolicyLinkageHash("pack-a", "1.0.1", "abc")
	h3 := PolicyLinkageHash("pack-a", "1.0.0", "abc")

	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, h2, "a different pack version must produce a different linkage")
	assert.Equal(t, h1, h3)
}
