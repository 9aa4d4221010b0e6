// Package leads turns raw lead intake into a complete personalization request.
package leads

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// EmailError represents an email that cannot yield a company domain
type EmailError struct {
	Email string
}

func (e *EmailError) Error() string {
	return fmt.Sprintf("invalid email format: %q", e.Email)
}

// personaHints are checked in order against tokens of the email local part
var personaHints = []struct {
	token   string
	persona types.Persona
}{
	{"ops", types.PersonaOperations},
	{"operations", types.PersonaOperations},
	{"coo", types.PersonaOperations},
	{"security", types.PersonaSecurity},
	{"sec", types.PersonaSecurity},
	{"ciso", types.PersonaSecurity},
	{"it", types.PersonaIT},
	{"tech", types.PersonaIT},
	{"cto", types.PersonaIT},
	{"finance", types.PersonaFinance},
	{"fin", types.PersonaFinance},
	{"cfo", types.PersonaFinance},
}

var stageHints = map[string]types.BuyerStage{
	"compare":  types.StageEvaluation,
	"evaluate": types.StageEvaluation,
	"learn":    types.StageAwareness,
	"discover": types.StageAwareness,
	"explore":  types.StageAwareness,
	"demo":     types.StageDecision,
	"buy":      types.StageDecision,
	"purchase": types.StageDecision,
	"trial":    types.StageDecision,
}

// DomainFromEmail returns the lower-cased domain part of an email
func DomainFromEmail(email string) (string, error) {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", &EmailError{Email: email}
	}
	return strings.ToLower(parts[1]), nil
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// InferPersona guesses a persona from role words in the email local part.
// "ops.lead@" is Operations; anything unrecognised is Business Leader.
func InferPersona(email string) types.Persona {
	local, _, _ := strings.Cut(email, "@")
	words := tokens(local)
	for _, hint := range personaHints {
		for _, w := range words {
			if w == hint.token {
				return hint.persona
			}
		}
	}
	return types.PersonaBusinessLeader
}

// InferBuyerStage maps CTA wording to a buyer stage, defaulting to evaluation
func InferBuyerStage(cta string) types.BuyerStage {
	for _, w := range tokens(cta) {
		if stage, ok := stageHints[w]; ok {
			return stage
		}
	}
	return types.StageEvaluation
}

// Normalize fills in the domain, persona and buyer stage a request omits,
// canonicalises the values it has, and validates the result.
func Normalize(req types.PersonalizationRequest) (types.PersonalizationRequest, error) {
	req.Email = strings.TrimSpace(req.Email)

	if req.Domain == "" {
		domain, err := DomainFromEmail(req.Email)
		if err != nil {
			return req, err
		}
		req.Domain = domain
	} else {
		req.Domain = strings.ToLower(strings.TrimSpace(req.Domain))
	}

	if req.Persona == "" {
		req.Persona = InferPersona(req.Email)
	} else {
		p, err := types.ParsePersona(string(req.Persona))
		if err != nil {
			return req, err
		}
		req.Persona = p
	}

	if req.BuyerStage == "" {
		req.BuyerStage = InferBuyerStage(req.CTA)
	} else {
		s, err := types.ParseBuyerStage(string(req.BuyerStage))
		if err != nil {
			return req, err
		}
		req.BuyerStage = s
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}
