package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validContent = `{
  "headline": "Acme ships faster with governed automation",
  "subheadline": "More detail here",
  "cta_text": "Book a demo",
  "value_prop_1": "one",
  "value_prop_2": "two",
  "value_prop_3": "three"
}`

func TestValidate_AdaptedContent(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{name: "valid", doc: validContent},
		{name: "valid with rationale", doc: `{"headline":"a","subheadline":"b","cta_text":"c","value_prop_1":"d","value_prop_2":"e","value_prop_3":"f","personalization_rationale":"why"}`},
		{name: "missing value prop", doc: `{"headline":"a","subheadline":"b","cta_text":"c","value_prop_1":"d","value_prop_2":"e"}`, wantField: "(root)"},
		{name: "empty headline", doc: `{"headline":"","subheadline":"b","cta_text":"c","value_prop_1":"d","value_prop_2":"e","value_prop_3":"f"}`, wantField: "headline"},
		{name: "blank cta", doc: `{"headline":"a","subheadline":"b","cta_text":"   ","value_prop_1":"d","value_prop_2":"e","value_prop_3":"f"}`, wantField: "cta_text"},
		{name: "wrong type", doc: `{"headline":7,"subheadline":"b","cta_text":"c","value_prop_1":"d","value_prop_2":"e","value_prop_3":"f"}`, wantField: "headline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(AdaptedContent, []byte(tt.doc))
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			fields := make([]string, 0, len(validationErr.Errors))
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(AdaptedContent, []byte("{ invalid json }"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope.json", []byte(`{}`))
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "nope.json", loadErr.Path)
}

func TestSchema_Raw(t *testing.T) {
	data, err := Schema(AdaptedContent)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"required"`)
}

func TestValidate_NotJSON(t *testing.T) {
	err := Validate(AdaptedContent, []byte(`{not json`))
	assert.ErrorContains(t, err, "document is not valid JSON")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "headline", Message: "is required"},
		{Field: "cta_text", Message: "too short"},
	}}
	assert.Equal(t, "validation failed: headline: is required; cta_text: too short", err.Error())
}
