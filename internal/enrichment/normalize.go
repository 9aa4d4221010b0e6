package enrichment

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// Normalization defaults applied when a provider omits a field
const (
	DefaultCompanyName  = "Unknown Company"
	DefaultIndustry     = "Technology"
	DefaultHeadquarters = "Unknown"
	DefaultConfidence   = 0.75
	UnknownEmployees    = "Unknown"
)

// DefaultSources is reported when the provider does not list its sources
var DefaultSources = []string{"apollo", "peopledatalabs"}

// Company size thresholds by employee count
const (
	EnterpriseMinEmployees = 10000
	MidMarketMinEmployees  = 1000
	SMBMinEmployees        = 50
)

// InferCompanySize buckets an employee count. Unknown counts are SMB.
func InferCompanySize(count types.EmployeeCount) types.CompanySize {
	n, ok := count.Int()
	if !ok {
		return types.SizeSMB
	}
	switch {
	case n >= EnterpriseMinEmployees:
		return types.SizeEnterprise
	case n >= MidMarketMinEmployees:
		return types.SizeMidMarket
	case n >= SMBMinEmployees:
		return types.SizeSMB
	default:
		return types.SizeStartup
	}
}

// NormalizeProfile maps a provider payload onto the canonical profile shape.
// Field fallbacks are tried in a fixed order; requestedDomain is used when
// the payload carries no domain of its own.
func NormalizeProfile(data map[string]any, requestedDomain string, now time.Time) (*types.CompanyProfile, error) {
	if len(data) == 0 {
		return nil, &PayloadError{Message: "provider returned no profile data"}
	}

	employees := types.EmployeeLabel(UnknownEmployees)
	if ec, ok := employeeCount(data, "employee_count", "estimated_num_employees"); ok {
		employees = ec
	}

	profile := &types.CompanyProfile{
		CompanyName:     firstString(data, DefaultCompanyName, "company_name", "display_name", "name"),
		Domain:          firstString(data, requestedDomain, "domain", "website"),
		Industry:        firstString(data, DefaultIndustry, "industry"),
		EmployeeCount:   employees,
		CompanySize:     InferCompanySize(employees),
		Headquarters:    headquarters(data),
		Technology:      technology(data),
		ConfidenceScore: confidence(data),
		SourcesUsed:     sources(data),
		ResolvedAt:      now.UTC(),
	}

	if year, ok := intField(data, "founded_year", "founded"); ok {
		profile.FoundedYear = &year
	}
	if news := firstString(data, "", "news_summary"); news != "" {
		profile.NewsSummary = &news
	}
	if raw := firstString(data, "", "intent_signal"); raw != "" {
		if sig, ok := types.ParseIntentSignal(raw); ok {
			profile.IntentSignal = &sig
		}
	}
	return profile, nil
}

func firstString(data map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}

func employeeCount(data map[string]any, keys ...string) (types.EmployeeCount, bool) {
	for _, key := range keys {
		switch v := data[key].(type) {
		case float64:
			if v > 0 {
				return types.Employees(int(v)), true
			}
		case int:
			if v > 0 {
				return types.Employees(v), true
			}
		case string:
			if strings.TrimSpace(v) != "" {
				return types.EmployeeLabel(v), true
			}
		}
	}
	return types.EmployeeCount{}, false
}

func intField(data map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		switch v := data[key].(type) {
		case float64:
			if v > 0 && v == math.Trunc(v) {
				return int(v), true
			}
		case int:
			if v > 0 {
				return v, true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

func headquarters(data map[string]any) string {
	if hq := firstString(data, "", "headquarters"); hq != "" {
		return hq
	}
	if loc, ok := data["location"].(map[string]any); ok {
		if locality := firstString(loc, "", "locality"); locality != "" {
			return locality
		}
	}
	return firstString(data, DefaultHeadquarters, "city")
}

func technology(data map[string]any) []string {
	if tech, ok := stringSlice(data["technology"]); ok {
		return tech
	}
	if tags, ok := stringSlice(data["tags"]); ok {
		return tags
	}
	return []string{}
}

func stringSlice(v any) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return append([]string(nil), items...), true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

func confidence(data map[string]any) float64 {
	v, ok := data["confidence_score"].(float64)
	if !ok || v <= 0 || math.IsNaN(v) {
		return DefaultConfidence
	}
	return math.Min(v, 1)
}

func sources(data map[string]any) []string {
	if s, ok := stringSlice(data["sources_used"]); ok && len(s) > 0 {
		return s
	}
	return append([]string(nil), DefaultSources...)
}
