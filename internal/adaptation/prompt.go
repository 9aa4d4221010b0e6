package adaptation

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/lead-personalizer/internal/llm"
	"github.com/jonathan/lead-personalizer/internal/prompts"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// maxTechnologies caps how many technology tags reach the prompt
const maxTechnologies = 5

// ContentSchema is the JSON structure requested from the generator
func ContentSchema() llm.OutputSchema {
	return llm.OutputSchema{
		Name: "AdaptedContent",
		Fields: []llm.SchemaField{
			{Name: "headline", Description: "6-12 words", Required: true},
			{Name: "subheadline", Description: "15-25 words", Required: true},
			{Name: "cta_text", Description: "3-6 words", Required: true},
			{Name: "value_prop_1", Description: "8-15 words", Required: true},
			{Name: "value_prop_2", Description: "8-15 words", Required: true},
			{Name: "value_prop_3", Description: "8-15 words", Required: true},
			{Name: "personalization_rationale", Description: "one sentence on what was personalized"},
		},
	}
}

// SystemPrompt returns the system instruction sent with every attempt
func SystemPrompt() string {
	return prompts.AdaptationSet().MustRender(prompts.KeySystem, map[string]string{
		"Schema": ContentSchema().Instruction(),
	})
}

// CompanyContext renders the company block of the prompt
func CompanyContext(profile *types.CompanyProfile, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("COMPANY CONTEXT:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", profile.CompanyName)
	fmt.Fprintf(&sb, "- Industry: %s\n", profile.Industry)
	fmt.Fprintf(&sb, "- Size: %s (%s employees)\n", profile.CompanySize, profile.EmployeeCount)
	fmt.Fprintf(&sb, "- Location: %s", profile.Headquarters)

	if profile.FoundedYear != nil {
		age := now.Year() - *profile.FoundedYear
		fmt.Fprintf(&sb, "\n- Founded: %d (%d years ago)", *profile.FoundedYear, age)
	}
	if len(profile.Technology) > 0 {
		tech := profile.Technology
		if len(tech) > maxTechnologies {
			tech = tech[:maxTechnologies]
		}
		fmt.Fprintf(&sb, "\n- Technology Stack: %s", strings.Join(tech, ", "))
	}
	if profile.NewsSummary != nil && *profile.NewsSummary != "" {
		fmt.Fprintf(&sb, "\n- Recent News: %s", *profile.NewsSummary)
	}
	if profile.IntentSignal != nil {
		fmt.Fprintf(&sb, "\n- Buying Intent: %s stage", *profile.IntentSignal)
	}
	fmt.Fprintf(&sb, "\n- Data Confidence: %.0f%%", profile.ConfidenceScore*100)

	return sb.String()
}

// PersonaContext renders the persona and stage block of the prompt
func PersonaContext(persona types.Persona, stage types.BuyerStage) string {
	set := prompts.AdaptationSet()
	personaDetail := set.Describe("persona", string(persona))
	stageDetail := set.Describe("stage", string(stage))

	return fmt.Sprintf("PERSONA & STAGE:\n- Persona: %s\n  %s\n- Buyer Stage: %s\n  %s",
		persona, personaDetail, stage, stageDetail)
}

// BuildPrompt assembles the first-attempt user prompt from filled template text
func BuildPrompt(intro, cta string, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage, now time.Time) string {
	return prompts.AdaptationSet().MustRender(prompts.KeyAdapt, map[string]string{
		"Intro":          intro,
		"CTA":            cta,
		"CompanyContext": CompanyContext(profile, now),
		"PersonaContext": PersonaContext(persona, stage),
		"Stage":          string(stage),
		"Persona":        string(persona),
		"CompanyName":    profile.CompanyName,
	})
}

// FixPrompt asks the generator to resend its content as valid JSON
func FixPrompt(parseErr error, original string) string {
	return prompts.AdaptationSet().MustRender(prompts.KeyFix, map[string]string{
		"Error":    parseErr.Error(),
		"Original": original,
	})
}
