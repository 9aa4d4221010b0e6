package enrichment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lead-personalizer/internal/types"
)

func TestInferCompanySize(t *testing.T) {
	tests := []struct {
		name  string
		count types.EmployeeCount
		want  types.CompanySize
	}{
		{"enterprise", types.Employees(15000), types.SizeEnterprise},
		{"enterprise boundary", types.Employees(10000), types.SizeEnterprise},
		{"mid-market", types.Employees(5000), types.SizeMidMarket},
		{"mid-market boundary", types.Employees(1000), types.SizeMidMarket},
		{"smb", types.Employees(200), types.SizeSMB},
		{"smb boundary", types.Employees(50), types.SizeSMB},
		{"startup", types.Employees(10), types.SizeStartup},
		{"thousands separator", types.EmployeeLabel("156,500"), types.SizeEnterprise},
		{"not a number", types.EmployeeLabel("not a number"), types.SizeSMB},
		{"unknown", types.EmployeeLabel("Unknown"), types.SizeSMB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCompanySize(tt.count))
		})
	}
}

func TestNormalizeProfile_FullPayload(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	data := map[string]any{
		"company_name":     "Acme Corp",
		"domain":           "acme.io",
		"industry":         "Manufacturing",
		"employee_count":   float64(12000),
		"headquarters":     "Detroit, MI",
		"founded_year":     float64(1950),
		"technology":       []any{"SAP", "Azure"},
		"news_summary":     "Acme opened a new plant.",
		"intent_signal":    "late",
		"confidence_score": 0.92,
		"sources_used":     []any{"apollo"},
	}

	p, err := NormalizeProfile(data, "requested.io", now)
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", p.CompanyName)
	assert.Equal(t, "acme.io", p.Domain)
	assert.Equal(t, "Manufacturing", p.Industry)
	assert.Equal(t, types.SizeEnterprise, p.CompanySize)
	assert.Equal(t, "Detroit, MI", p.Headquarters)
	require.NotNil(t, p.FoundedYear)
	assert.Equal(t, 1950, *p.FoundedYear)
	assert.Equal(t, []string{"SAP", "Azure"}, p.Technology)
	require.NotNil(t, p.NewsSummary)
	require.NotNil(t, p.IntentSignal)
	assert.Equal(t, types.IntentLate, *p.IntentSignal)
	assert.Equal(t, 0.92, p.ConfidenceScore)
	assert.Equal(t, []string{"apollo"}, p.SourcesUsed)
	assert.Equal(t, now, p.ResolvedAt)
}

func TestNormalizeProfile_Fallbacks(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		check func(t *testing.T, p *types.CompanyProfile)
	}{
		{
			name: "display_name before name",
			data: map[string]any{"display_name": "Display", "name": "Name"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, "Display", p.CompanyName)
			},
		},
		{
			name: "name when nothing else",
			data: map[string]any{"name": "Name"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, "Name", p.CompanyName)
			},
		},
		{
			name: "unknown company",
			data: map[string]any{"industry": "Retail"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, DefaultCompanyName, p.CompanyName)
				assert.Equal(t, "requested.io", p.Domain)
			},
		},
		{
			name: "website as domain",
			data: map[string]any{"website": "acme.com"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, "acme.com", p.Domain)
			},
		},
		{
			name: "estimated employees string",
			data: map[string]any{"estimated_num_employees": "2,300"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, types.SizeMidMarket, p.CompanySize)
			},
		},
		{
			name: "missing employees is unknown and SMB",
			data: map[string]any{"name": "X"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, "Unknown", p.EmployeeCount.String())
				assert.Equal(t, types.SizeSMB, p.CompanySize)
				assert.Equal(t, DefaultIndustry, p.Industry)
			},
		},
		{
			name: "location locality then city",
			data: map[string]any{"location": map[string]any{"locality": "Berlin"}, "city": "Munich"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, "Berlin", p.Headquarters)
			},
		},
		{
			name: "city",
			data: map[string]any{"city": "Munich"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, "Munich", p.Headquarters)
			},
		},
		{
			name: "founded as string",
			data: map[string]any{"founded": "2011"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				require.NotNil(t, p.FoundedYear)
				assert.Equal(t, 2011, *p.FoundedYear)
			},
		},
		{
			name: "tags when technology is not an array",
			data: map[string]any{"technology": "Go", "tags": []any{"b2b", "saas"}},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, []string{"b2b", "saas"}, p.Technology)
			},
		},
		{
			name: "invalid intent is dropped",
			data: map[string]any{"intent_signal": "hot"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Nil(t, p.IntentSignal)
			},
		},
		{
			name: "defaults for confidence and sources",
			data: map[string]any{"name": "X"},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, DefaultConfidence, p.ConfidenceScore)
				assert.Equal(t, []string{"apollo", "peopledatalabs"}, p.SourcesUsed)
				assert.NotNil(t, p.Technology)
			},
		},
		{
			name: "confidence clamped",
			data: map[string]any{"confidence_score": 1.7},
			check: func(t *testing.T, p *types.CompanyProfile) {
				assert.Equal(t, 1.0, p.ConfidenceScore)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NormalizeProfile(tt.data, "requested.io", time.Now())
			require.NoError(t, err)
			tt.check(t, p)
			assert.Equal(t, InferCompanySize(p.EmployeeCount), p.CompanySize)
		})
	}
}

func TestNormalizeProfile_EmptyPayload(t *testing.T) {
	_, err := NormalizeProfile(nil, "acme.io", time.Now())
	var payloadErr *PayloadError
	assert.ErrorAs(t, err, &payloadErr)

	_, err = NormalizeProfile(map[string]any{}, "acme.io", time.Now())
	assert.ErrorAs(t, err, &payloadErr)
}

func TestNormalizeProfile_DoesNotAliasDefaultSources(t *testing.T) {
	p, err := NormalizeProfile(map[string]any{"name": "X"}, "x.io", time.Now())
	require.NoError(t, err)
	p.SourcesUsed[0] = "mutated"
	assert.Equal(t, "apollo", DefaultSources[0])
}

func TestOfflineProfile(t *testing.T) {
	now := time.Now()

	t.Run("known domain", func(t *testing.T) {
		p := OfflineProfile("Google.com", now)
		assert.Equal(t, "Google LLC", p.CompanyName)
		assert.Equal(t, types.SizeEnterprise, p.CompanySize)
		assert.Equal(t, OfflineConfidence, p.ConfidenceScore)
		assert.Equal(t, []string{OfflineSource}, p.SourcesUsed)
		require.NotNil(t, p.FoundedYear)
		assert.Equal(t, 1998, *p.FoundedYear)
		assert.True(t, IsOffline(p))
	})

	t.Run("unknown domain", func(t *testing.T) {
		p := OfflineProfile("unknown-startup.io", now)
		assert.Equal(t, "Company (unknown-startup.io)", p.CompanyName)
		assert.Equal(t, "Technology", p.Industry)
		assert.Equal(t, "500", p.EmployeeCount.String())
		assert.Equal(t, types.SizeSMB, p.CompanySize)
		assert.Equal(t, "Unknown", p.Headquarters)
		assert.Nil(t, p.FoundedYear)
		assert.Nil(t, p.NewsSummary)
		assert.Equal(t, 0.5, p.ConfidenceScore)
		assert.Equal(t, []string{"offline"}, p.SourcesUsed)
	})

	t.Run("size always derived", func(t *testing.T) {
		for domain := range offlineTable {
			p := OfflineProfile(domain, now)
			assert.Equal(t, InferCompanySize(p.EmployeeCount), p.CompanySize, domain)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := OfflineProfile("acme.io", now)
		b := OfflineProfile("acme.io", now)
		assert.Equal(t, a, b)
	})
}

func TestParseJobState(t *testing.T) {
	assert.Equal(t, StateCompleted, ParseJobState("completed"))
	assert.Equal(t, StateCompleted, ParseJobState("success"))
	assert.Equal(t, StateFailed, ParseJobState("failed"))
	assert.Equal(t, StateFailed, ParseJobState("ERROR"))
	assert.Equal(t, StateProcessing, ParseJobState("processing"))
	assert.Equal(t, StatePending, ParseJobState("queued"))
}
