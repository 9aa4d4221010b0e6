package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// Mode controls whether a failed report blocks the result
type Mode string

// Validation modes
const (
	ModeAdvisory Mode = "advisory"
	ModeBlocking Mode = "blocking"
)

// ParseMode accepts "advisory" (or empty) and "blocking" (or "strict")
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeAdvisory):
		return ModeAdvisory, nil
	case string(ModeBlocking), "strict":
		return ModeBlocking, nil
	default:
		return "", &ModeError{Value: s}
	}
}

// Validate checks word counts and then scans all copy for blocked content.
// Every violation is collected; nothing short-circuits.
func Validate(content *types.AdaptedContent) types.ValidationReport {
	violations := []types.Violation{}
	if content == nil {
		violations = append(violations, types.Violation{Rule: types.RuleWordCount, Message: "content is missing"})
		return types.ValidationReport{Valid: false, Violations: violations}
	}

	checks := []*types.Violation{
		checkWords("headline", "Headline", content.Headline, HeadlineBand),
		checkWords("subheadline", "Subheadline", content.Subheadline, SubheadlineBand),
		checkWords("cta_text", "CTA", content.CTAText, CTABand),
	}
	for i, prop := range content.ValueProps {
		checks = append(checks, checkWords(
			fmt.Sprintf("value_prop_%d", i+1),
			fmt.Sprintf("Value prop %d", i+1),
			prop, ValuePropBand,
		))
	}
	for _, v := range checks {
		if v != nil {
			violations = append(violations, *v)
		}
	}

	all := strings.Join([]string{
		content.Headline,
		content.Subheadline,
		content.CTAText,
		content.ValueProps[0],
		content.ValueProps[1],
		content.ValueProps[2],
	}, " ")
	for _, rule := range blocklist {
		if m, ok := rule.match(all); ok {
			violations = append(violations, types.Violation{
				Rule:    rule.rule,
				Message: fmt.Sprintf("%s (%q)", rule.message, m),
			})
		}
	}

	return types.ValidationReport{Valid: len(violations) == 0, Violations: violations}
}

// Enforce returns an error only in blocking mode with an invalid report
func Enforce(report types.ValidationReport, mode Mode) error {
	if mode == ModeBlocking && !report.Valid {
		return &ValidationFailedError{Report: report}
	}
	return nil
}
