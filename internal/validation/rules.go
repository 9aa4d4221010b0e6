package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// WordBand is an inclusive word-count range
type WordBand struct {
	Min int
	Max int
}

// Word-count bands for each copy field
var (
	HeadlineBand    = WordBand{Min: 6, Max: 12}
	SubheadlineBand = WordBand{Min: 15, Max: 25}
	CTABand         = WordBand{Min: 3, Max: 6}
	ValuePropBand   = WordBand{Min: 8, Max: 15}
)

// Contains reports whether n falls inside the band
func (b WordBand) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// WordCount counts whitespace-delimited tokens
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func checkWords(field, label, text string, band WordBand) *types.Violation {
	n := WordCount(text)
	if band.Contains(n) {
		return nil
	}
	return &types.Violation{
		Rule:    types.RuleWordCount,
		Field:   field,
		Message: fmt.Sprintf("%s has %d words, expected %d-%d", label, n, band.Min, band.Max),
	}
}

type blockRule struct {
	rule     string
	message  string
	patterns []*regexp.Regexp
}

// Checked in order; each rule reports at most one violation.
var blocklist = []blockRule{
	{
		rule:    types.RuleSuperlative,
		message: "Contains superlative claim",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bbest\b`),
			regexp.MustCompile(`#1\b`),
			regexp.MustCompile(`(?i)\bnumber one\b`),
		},
	},
	{
		rule:    types.RuleCompetitor,
		message: "Mentions competitors",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bunlike (our|other) competitors\b`),
			regexp.MustCompile(`(?i)\bcompetitors?\b`),
			regexp.MustCompile(`(?i)\bbetter than\b`),
		},
	},
	{
		rule:    types.RuleEmphasis,
		message: "Contains emoji or multiple exclamation marks",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`!!`),
			regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}\x{1F1E6}-\x{1F1FF}\x{FE0F}]`),
		},
	},
	{
		rule:    types.RuleJargon,
		message: "Contains marketing jargon",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bsynerg(y|ies|istic)\b`),
			regexp.MustCompile(`(?i)\bdisrupt\w*`),
			regexp.MustCompile(`(?i)\bparadigm shift\b`),
		},
	},
}

func (r blockRule) match(text string) (string, bool) {
	for _, p := range r.patterns {
		if m := p.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}
