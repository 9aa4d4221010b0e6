// Package templates holds the content template catalog and the rule-scored
// selector that picks one template per lead.
package templates

import (
	"slices"
	"strings"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// FallbackPrefix marks catch-all templates that are penalized in scoring
const FallbackPrefix = "fallback"

// Template is a placeholder-bearing content skeleton scoped to personas,
// buyer stages and optionally industries and company sizes.
type Template struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Personas            []types.Persona     `json:"personas"`
	BuyerStages         []types.BuyerStage  `json:"buyer_stages"`
	Industries          []string            `json:"industries,omitempty"`
	CompanySizes        []types.CompanySize `json:"company_sizes,omitempty"`
	IntroTemplate       string              `json:"intro_template"`
	CTATemplate         string              `json:"cta_template"`
	Priority            int                 `json:"priority"`
	ConfidenceThreshold float64             `json:"confidence_threshold"`
}

// IsFallback reports whether the template is a catch-all
func (t Template) IsFallback() bool {
	return strings.HasPrefix(t.ID, FallbackPrefix)
}

// Unfiltered reports whether the template has no industry or size filter
func (t Template) Unfiltered() bool {
	return len(t.Industries) == 0 && len(t.CompanySizes) == 0
}

// AppliesTo reports whether the template covers a persona and stage
func (t Template) AppliesTo(persona types.Persona, stage types.BuyerStage) bool {
	return slices.Contains(t.Personas, persona) && slices.Contains(t.BuyerStages, stage)
}

func (t Template) matchesIndustry(industry string) bool {
	for _, candidate := range t.Industries {
		if strings.EqualFold(candidate, industry) {
			return true
		}
	}
	return false
}

func (t Template) matchesSize(size types.CompanySize) bool {
	return slices.Contains(t.CompanySizes, size)
}

func (t Template) clone() Template {
	c := t
	c.Personas = slices.Clone(t.Personas)
	c.BuyerStages = slices.Clone(t.BuyerStages)
	c.Industries = slices.Clone(t.Industries)
	c.CompanySizes = slices.Clone(t.CompanySizes)
	return c
}
