package leads

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/lead-personalizer/internal/types"
)

func TestDomainFromEmail(t *testing.T) {
	tests := []struct {
		email   string
		want    string
		wantErr bool
	}{
		{"jane@Acme.COM", "acme.com", false},
		{"  ops@example.com ", "example.com", false},
		{"no-at-sign", "", true},
		{"two@@signs.com", "", true},
		{"@acme.com", "", true},
		{"jane@", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got, err := DomainFromEmail(tt.email)
			if tt.wantErr {
				var emailErr *EmailError
				assert.ErrorAs(t, err, &emailErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferPersona(t *testing.T) {
	tests := []struct {
		email string
		want  types.Persona
	}{
		{"ops@acme.com", types.PersonaOperations},
		{"head.of.operations@acme.com", types.PersonaOperations},
		{"ciso@acme.com", types.PersonaSecurity},
		{"sec-team@acme.com", types.PersonaSecurity},
		{"it.support@acme.com", types.PersonaIT},
		{"cto@acme.com", types.PersonaIT},
		{"cfo@acme.com", types.PersonaFinance},
		{"finance_ap@acme.com", types.PersonaFinance},
		{"keith@acme.com", types.PersonaBusinessLeader},
		{"jane.doe@acme.com", types.PersonaBusinessLeader},
		{"", types.PersonaBusinessLeader},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, InferPersona(tt.email))
		})
	}
}

func TestInferBuyerStage(t *testing.T) {
	tests := []struct {
		cta  string
		want types.BuyerStage
	}{
		{"learn", types.StageAwareness},
		{"Explore the platform", types.StageAwareness},
		{"compare", types.StageEvaluation},
		{"Book a demo", types.StageDecision},
		{"start a trial", types.StageDecision},
		{"", types.StageEvaluation},
		{"contact us", types.StageEvaluation},
	}
	for _, tt := range tests {
		t.Run(tt.cta, func(t *testing.T) {
			assert.Equal(t, tt.want, InferBuyerStage(tt.cta))
		})
	}
}

func TestNormalize_FillsMissingFields(t *testing.T) {
	got, err := Normalize(types.PersonalizationRequest{Email: " cfo@Acme.com ", CTA: "book a demo"})
	require.NoError(t, err)

	assert.Equal(t, "cfo@Acme.com", got.Email)
	assert.Equal(t, "acme.com", got.Domain)
	assert.Equal(t, types.PersonaFinance, got.Persona)
	assert.Equal(t, types.StageDecision, got.BuyerStage)
}

func TestNormalize_CanonicalisesProvidedValues(t *testing.T) {
	got, err := Normalize(types.PersonalizationRequest{
		Email:      "jane@acme.com",
		Domain:     " Acme.IO ",
		Persona:    "security",
		BuyerStage: "Awareness",
	})
	require.NoError(t, err)

	assert.Equal(t, "acme.io", got.Domain)
	assert.Equal(t, types.PersonaSecurity, got.Persona)
	assert.Equal(t, types.StageAwareness, got.BuyerStage)
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  types.PersonalizationRequest
	}{
		{"bad email", types.PersonalizationRequest{Email: "nope"}},
		{"unknown persona", types.PersonalizationRequest{Email: "a@b.com", Persona: "Wizard"}},
		{"unknown stage", types.PersonalizationRequest{Email: "a@b.com", BuyerStage: "later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.req)
			assert.Error(t, err)
		})
	}
}

func TestNormalize_ValidatesEmailWhenDomainGiven(t *testing.T) {
	_, err := Normalize(types.PersonalizationRequest{Email: "not-an-email", Domain: "acme.com"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}
