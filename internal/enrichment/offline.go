package enrichment

import (
	"fmt"
	"time"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// Offline profile markers
const (
	OfflineConfidence = 0.5
	OfflineSource     = "offline"
)

type offlineRecord struct {
	name         string
	industry     string
	employees    string
	headquarters string
	founded      int
	technology   []string
	news         string
}

var offlineTable = map[string]offlineRecord{
	"google.com": {
		name:         "Google LLC",
		industry:     "Technology",
		employees:    "156,500",
		headquarters: "Mountain View, CA",
		founded:      1998,
		technology:   []string{"Cloud", "AI", "Search"},
		news:         "Google continues to expand its AI capabilities with new product launches.",
	},
	"microsoft.com": {
		name:         "Microsoft Corporation",
		industry:     "Technology",
		employees:    "221,000",
		headquarters: "Redmond, WA",
		founded:      1975,
		technology:   []string{"Azure", "Windows", "Office 365"},
		news:         "Microsoft reports strong cloud revenue growth in latest quarterly earnings.",
	},
	"amazon.com": {
		name:         "Amazon.com, Inc.",
		industry:     "E-commerce",
		employees:    "1,541,000",
		headquarters: "Seattle, WA",
		founded:      1994,
		technology:   []string{"AWS", "E-commerce", "Logistics"},
		news:         "Amazon announces new sustainability initiatives for its delivery network.",
	},
	"apple.com": {
		name:         "Apple Inc.",
		industry:     "Technology",
		employees:    "164,000",
		headquarters: "Cupertino, CA",
		founded:      1976,
		technology:   []string{"iOS", "macOS", "Hardware"},
		news:         "Apple unveils new product lineup with focus on AI integration.",
	},
	"salesforce.com": {
		name:         "Salesforce, Inc.",
		industry:     "Software",
		employees:    "73,541",
		headquarters: "San Francisco, CA",
		founded:      1999,
		technology:   []string{"CRM", "Cloud", "Sales"},
		news:         "Salesforce expands its AI platform with new Einstein features.",
	},
	"example.com": {
		name:         "Example Corp",
		industry:     "General",
		employees:    "2,500",
		headquarters: "Unknown",
	},
}

// OfflineProfile returns the static profile for a domain. Well-known domains
// come from a built-in table; anything else gets a generic placeholder.
// The result is deterministic apart from its timestamp.
func OfflineProfile(domain string, now time.Time) *types.CompanyProfile {
	key := NormalizeDomain(domain)
	rec, ok := offlineTable[key]
	if !ok {
		rec = offlineRecord{
			name:         fmt.Sprintf("Company (%s)", key),
			industry:     DefaultIndustry,
			employees:    "500",
			headquarters: DefaultHeadquarters,
		}
	}

	employees := types.EmployeeLabel(rec.employees)
	profile := &types.CompanyProfile{
		CompanyName:     rec.name,
		Domain:          key,
		Industry:        rec.industry,
		EmployeeCount:   employees,
		CompanySize:     InferCompanySize(employees),
		Headquarters:    rec.headquarters,
		Technology:      append([]string{}, rec.technology...),
		ConfidenceScore: OfflineConfidence,
		SourcesUsed:     []string{OfflineSource},
		ResolvedAt:      now.UTC(),
	}
	if rec.founded > 0 {
		year := rec.founded
		profile.FoundedYear = &year
	}
	if rec.news != "" {
		news := rec.news
		profile.NewsSummary = &news
	}
	return profile
}

// IsOffline reports whether a profile came from the static table
func IsOffline(p *types.CompanyProfile) bool {
	return p != nil && len(p.SourcesUsed) == 1 && p.SourcesUsed[0] == OfflineSource
}
