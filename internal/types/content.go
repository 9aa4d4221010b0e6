// Package types provides type definitions for structured data used throughout the lead personalization system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// AdaptedContent is the personalized copy produced for one lead
type AdaptedContent struct {
	Headline    string    `json:"headline" validate:"required"`
	Subheadline string    `json:"subheadline" validate:"required"`
	CTAText     string    `json:"cta_text" validate:"required"`
	ValueProps  [3]string `json:"value_props" validate:"dive,required"`
	Rationale   string    `json:"personalization_rationale,omitempty"`
}

// Validate checks that every copy field is present
func (c *AdaptedContent) Validate() error {
	return requestValidator.Struct(c)
}

// Violation is a single content rule failure
type Violation struct {
	Rule    string `json:"rule"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Rule identifiers used in violations
const (
	RuleWordCount   = "word_count"
	RuleSuperlative = "superlative"
	RuleCompetitor  = "competitor_mention"
	RuleEmphasis    = "emoji_or_exclamation"
	RuleJargon      = "marketing_jargon"
)

// ValidationReport is the outcome of checking adapted content
type ValidationReport struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

// Messages returns the human-readable violation list in order
func (r ValidationReport) Messages() []string {
	msgs := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		msgs = append(msgs, v.Message)
	}
	return msgs
}
