// Package types provides type definitions for structured data used throughout the lead personalization system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EmployeeCount is either a known head count or an opaque label such as "Unknown".
// Providers report it as a number or as a formatted string ("156,500").
type EmployeeCount struct {
	n     int
	known bool
	label string
}

// Employees returns a known employee count
func Employees(n int) EmployeeCount {
	return EmployeeCount{n: n, known: true}
}

// EmployeeLabel parses a provider string; "156,500" is numeric, "Unknown" is not.
func EmployeeLabel(s string) EmployeeCount {
	s = strings.TrimSpace(s)
	cleaned := strings.ReplaceAll(s, ",", "")
	if n, err := strconv.Atoi(cleaned); err == nil {
		return EmployeeCount{n: n, known: true}
	}
	return EmployeeCount{label: s}
}

// Int returns the numeric count and whether it is known
func (e EmployeeCount) Int() (int, bool) {
	return e.n, e.known
}

// String renders the count for prompts and logs
func (e EmployeeCount) String() string {
	if e.known {
		return strconv.Itoa(e.n)
	}
	if e.label == "" {
		return "Unknown"
	}
	return e.label
}

// MarshalJSON writes a number when known, otherwise the label
func (e EmployeeCount) MarshalJSON() ([]byte, error) {
	if e.known {
		return []byte(strconv.Itoa(e.n)), nil
	}
	return json.Marshal(e.String())
}

// UnmarshalJSON accepts numbers and strings
func (e *EmployeeCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = EmployeeCount{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = EmployeeLabel(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("employee_count must be a number or string: %w", err)
	}
	*e = Employees(int(f))
	return nil
}

// CompanyProfile is a resolved enrichment result for one domain.
// Profiles are treated as immutable once returned; use Clone before changing fields.
type CompanyProfile struct {
	CompanyName        string        `json:"company_name"`
	Domain             string        `json:"domain"`
	Industry           string        `json:"industry"`
	EmployeeCount      EmployeeCount `json:"employee_count"`
	CompanySize        CompanySize   `json:"company_size"`
	Headquarters       string        `json:"headquarters"`
	FoundedYear        *int          `json:"founded_year,omitempty"`
	Technology         []string      `json:"technology"`
	NewsSummary        *string       `json:"news_summary,omitempty"`
	IntentSignal       *IntentSignal `json:"intent_signal,omitempty"`
	ConfidenceScore    float64       `json:"confidence_score"`
	SourcesUsed        []string      `json:"sources_used"`
	ResolvedAt         time.Time     `json:"enrichment_timestamp"`
	ResolutionDuration time.Duration `json:"enrichment_duration_ns"`
}

// Clone returns a deep copy so callers never alias cached slices or pointers
func (p *CompanyProfile) Clone() *CompanyProfile {
	if p == nil {
		return nil
	}
	c := *p
	if p.FoundedYear != nil {
		y := *p.FoundedYear
		c.FoundedYear = &y
	}
	if p.NewsSummary != nil {
		s := *p.NewsSummary
		c.NewsSummary = &s
	}
	if p.IntentSignal != nil {
		i := *p.IntentSignal
		c.IntentSignal = &i
	}
	c.Technology = append([]string(nil), p.Technology...)
	c.SourcesUsed = append([]string(nil), p.SourcesUsed...)
	return &c
}

// EnrichmentSummary is the subset of a profile exposed to callers
type EnrichmentSummary struct {
	CompanyName     string        `json:"company_name"`
	Industry        string        `json:"industry"`
	CompanySize     CompanySize   `json:"company_size"`
	EmployeeCount   EmployeeCount `json:"employee_count"`
	ConfidenceScore float64       `json:"confidence_score"`
	SourcesUsed     []string      `json:"sources_used"`
}

// Summary returns the caller-facing subset of the profile
func (p *CompanyProfile) Summary() EnrichmentSummary {
	return EnrichmentSummary{
		CompanyName:     p.CompanyName,
		Industry:        p.Industry,
		CompanySize:     p.CompanySize,
		EmployeeCount:   p.EmployeeCount,
		ConfidenceScore: p.ConfidenceScore,
		SourcesUsed:     append([]string(nil), p.SourcesUsed...),
	}
}
