package observability

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lead-personalizer/internal/types"
)

func TestPrintEnrichment(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEnrichment(&types.EnrichmentSummary{
		CompanyName:     "Acme Corp",
		Industry:        "Retail",
		CompanySize:     types.SizeMidMarket,
		EmployeeCount:   types.Employees(2500),
		ConfidenceScore: 0.82,
		SourcesUsed:     []string{"apollo", "peopledatalabs"},
	})
	output := buf.String()

	assert.Contains(t, output, "COMPANY ENRICHMENT")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "mid-market (2500 employees)")
	assert.Contains(t, output, "82%")
	assert.Contains(t, output, "apollo, peopledatalabs")
}

func TestPrintEnrichment_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintEnrichment(nil)
	assert.Empty(t, buf.String())
}

func TestPrintContent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintContent(&types.AdaptedContent{
		Headline:    "Acme security teams move faster",
		Subheadline: "A short subheadline",
		CTAText:     "Compare security capabilities",
		ValueProps:  [3]string{"first", "second", "third"},
	})
	output := buf.String()

	assert.Contains(t, output, "PERSONALIZED CONTENT")
	assert.Contains(t, output, "Acme security teams move faster")
	assert.Contains(t, output, "• second")
	assert.Contains(t, output, "CTA: Compare security capabilities")
}

func TestPrintContent_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := "word word word word word word word word word word word word word word"
	p.PrintContent(&types.AdaptedContent{Headline: long})

	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), long)
}

func TestPrintValidation(t *testing.T) {
	t.Run("no violations", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf).PrintValidation(&types.ValidationReport{Valid: true})
		assert.Contains(t, buf.String(), "NO VIOLATIONS FOUND")
	})

	t.Run("with violations", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf).PrintValidation(&types.ValidationReport{
			Violations: []types.Violation{
				{Rule: types.RuleWordCount, Field: "headline", Message: "headline has 3 words (expected 6-12)"},
				{Rule: types.RuleSuperlative, Message: "contains superlative claim"},
			},
		})
		output := buf.String()
		assert.Contains(t, output, "Found 2 violations")
		assert.Contains(t, output, "word_count")
		assert.Contains(t, output, "superlative")
	})
}

func TestPrintTemplate(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTemplate("security-evaluation", "Security Evaluation", 4.25)
	assert.Contains(t, buf.String(), "SELECTED TEMPLATE")
	assert.Contains(t, buf.String(), "Score: 4.25")

	buf.Reset()
	p.PrintTemplate("ultimate", "Ultimate Fallback", 0)
	assert.Contains(t, buf.String(), "Ultimate Fallback")
	assert.NotContains(t, buf.String(), "Score:")
}

func TestPrintDurations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	stages := map[string]time.Duration{
		"enrichment": 1200 * time.Millisecond,
		"adaptation": 4 * time.Second,
	}
	p.PrintDurations(stages, []string{"enrichment", "adaptation"}, 70*time.Second, 60*time.Second)

	output := buf.String()
	assert.Contains(t, output, "enrichment")
	assert.Contains(t, output, "1.2s")
	assert.Contains(t, output, "SLA exceeded")
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"john@example.com", "jo***@example.com"},
		{"jo@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactEmail(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger("", "console")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
}
