package adaptation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/lead-personalizer/internal/types"
)

func TestCompanyContext_Full(t *testing.T) {
	profile := testProfile()
	intent := types.IntentLate
	profile.IntentSignal = &intent
	profile.Technology = []string{"a", "b", "c", "d", "e", "f", "g"}

	got := CompanyContext(profile, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, got, "- Name: Acme Logistics")
	assert.Contains(t, got, "- Industry: Logistics")
	assert.Contains(t, got, "- Size: mid-market (4200 employees)")
	assert.Contains(t, got, "- Location: Chicago, IL")
	assert.Contains(t, got, "- Founded: 1998 (28 years ago)")
	assert.Contains(t, got, "- Technology Stack: a, b, c, d, e\n")
	assert.NotContains(t, got, "f, g")
	assert.Contains(t, got, "- Recent News: Acme opened two new distribution centers.")
	assert.Contains(t, got, "- Buying Intent: late stage")
	assert.Contains(t, got, "- Data Confidence: 90%")
}

func TestCompanyContext_OptionalFieldsOmitted(t *testing.T) {
	profile := &types.CompanyProfile{
		CompanyName:     "Company (foo.io)",
		Industry:        "Technology",
		EmployeeCount:   types.EmployeeLabel("Unknown"),
		CompanySize:     types.SizeSMB,
		Headquarters:    "Unknown",
		ConfidenceScore: 0.5,
	}

	got := CompanyContext(profile, time.Now())

	assert.Contains(t, got, "(Unknown employees)")
	assert.Contains(t, got, "- Data Confidence: 50%")
	for _, absent := range []string{"Founded", "Technology Stack", "Recent News", "Buying Intent"} {
		assert.NotContains(t, got, absent)
	}
}

func TestPersonaContext(t *testing.T) {
	got := PersonaContext(types.PersonaBusinessLeader, types.StageDecision)
	assert.Contains(t, got, "- Persona: Business Leader\n  Executive decision-maker")
	assert.Contains(t, got, "- Buyer Stage: decision\n  Late stage")
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Intro for Acme", "See it work", testProfile(), types.PersonaFinance, types.StageAwareness, time.Now())

	assert.Contains(t, got, `Introduction inspiration: "Intro for Acme"`)
	assert.Contains(t, got, `CTA inspiration: "See it work"`)
	assert.Contains(t, got, "COMPANY CONTEXT:")
	assert.Contains(t, got, "PERSONA & STAGE:")
	assert.Contains(t, got, "Headline: 6-12 words")
	assert.Contains(t, got, "Subheadline: 15-25 words")
	assert.Contains(t, got, "CTA: 3-6 words")
	assert.Contains(t, got, "Each 8-15 words")
	assert.Contains(t, got, "Match urgency to buyer stage (awareness)")
	assert.Contains(t, got, "Speak to persona pain points (Finance)")
	assert.Contains(t, got, "feels personal to Acme Logistics")
	assert.NotContains(t, got, "{{.")
}

func TestFixPrompt(t *testing.T) {
	got := FixPrompt(errors.New("unexpected EOF"), "ORIGINAL")
	assert.Contains(t, got, "Your previous output had a JSON syntax error: unexpected EOF")
	assert.Contains(t, got, "strictly valid JSON")
	assert.Contains(t, got, "ORIGINAL")
}

func TestSystemPrompt(t *testing.T) {
	got := SystemPrompt()
	assert.Contains(t, got, "B2B marketing content adapter")
	assert.Contains(t, got, `"headline": string (required)`)
	assert.NotContains(t, got, "{{.Schema}}")
}
