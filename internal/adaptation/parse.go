package adaptation

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/jonathan/lead-personalizer/internal/llm"
	"github.com/jonathan/lead-personalizer/internal/schemas"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// wireContent is the flat JSON object exchanged with the generator
type wireContent struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	CTAText     string `json:"cta_text"`
	ValueProp1  string `json:"value_prop_1"`
	ValueProp2  string `json:"value_prop_2"`
	ValueProp3  string `json:"value_prop_3"`
	Rationale   string `json:"personalization_rationale"`
}

func (w wireContent) content() *types.AdaptedContent {
	return &types.AdaptedContent{
		Headline:    strings.TrimSpace(w.Headline),
		Subheadline: strings.TrimSpace(w.Subheadline),
		CTAText:     strings.TrimSpace(w.CTAText),
		ValueProps: [3]string{
			strings.TrimSpace(w.ValueProp1),
			strings.TrimSpace(w.ValueProp2),
			strings.TrimSpace(w.ValueProp3),
		},
		Rationale: strings.TrimSpace(w.Rationale),
	}
}

// ParseContent turns raw generator text into AdaptedContent.
// Syntax failures and shape mismatches are both reported as *ParseError.
func ParseContent(text string) (*types.AdaptedContent, error) {
	cleaned := llm.CleanJSONBlock(text)
	if cleaned == "" {
		return nil, &ParseError{Stage: "syntax", Cause: errors.New("empty response")}
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	var wire wireContent
	if err := dec.Decode(&wire); err != nil {
		return nil, &ParseError{Stage: "syntax", Cause: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Stage: "syntax", Cause: errors.New("unexpected data after JSON object")}
	}

	if err := schemas.Validate(schemas.AdaptedContent, []byte(cleaned)); err != nil {
		return nil, &ParseError{Stage: "shape", Cause: err}
	}

	content := wire.content()
	if err := content.Validate(); err != nil {
		return nil, &ParseError{Stage: "shape", Cause: err}
	}
	return content, nil
}

// MarshalContent renders content in the generator's flat wire shape
func MarshalContent(c *types.AdaptedContent) ([]byte, error) {
	return json.MarshalIndent(wireContent{
		Headline:    c.Headline,
		Subheadline: c.Subheadline,
		CTAText:     c.CTAText,
		ValueProp1:  c.ValueProps[0],
		ValueProp2:  c.ValueProps[1],
		ValueProp3:  c.ValueProps[2],
		Rationale:   c.Rationale,
	}, "", "  ")
}
