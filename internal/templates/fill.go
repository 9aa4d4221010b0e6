package templates

import (
	"sync"

	"github.com/osteele/liquid"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// NewsFallback stands in for {{news}} when the profile has no summary
const NewsFallback = "recent developments"

// Filler renders template placeholders through a Liquid engine with strict
// variables, caching parsed templates by source text.
type Filler struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewFiller creates a filler with a fresh engine
func NewFiller() *Filler {
	engine := liquid.NewEngine()
	engine.StrictVariables()
	return &Filler{engine: engine}
}

var defaultFiller = NewFiller()

func (f *Filler) parse(text string) (*liquid.Template, error) {
	if cached, ok := f.cache.Load(text); ok {
		return cached.(*liquid.Template), nil
	}
	tpl, err := f.engine.ParseString(text)
	if err != nil {
		return nil, err
	}
	f.cache.Store(text, tpl)
	return tpl, nil
}

// Bindings returns the fixed placeholder set for a profile and lead
func Bindings(profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) liquid.Bindings {
	news := NewsFallback
	if profile.NewsSummary != nil && *profile.NewsSummary != "" {
		news = *profile.NewsSummary
	}
	return liquid.Bindings{
		"company_name": profile.CompanyName,
		"industry":     profile.Industry,
		"news":         news,
		"persona":      string(persona),
		"buyer_stage":  string(stage),
		"company_size": string(profile.CompanySize),
	}
}

// Fill renders text with the profile bindings. A token outside the fixed set
// is a FillError.
func (f *Filler) Fill(text string, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (string, error) {
	tpl, err := f.parse(text)
	if err != nil {
		return "", &FillError{Text: text, Cause: err}
	}
	out, err := tpl.RenderString(Bindings(profile, persona, stage))
	if err != nil {
		return "", &FillError{Text: text, Cause: err}
	}
	return out, nil
}

// Fill renders text with the shared default filler
func Fill(text string, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (string, error) {
	return defaultFiller.Fill(text, profile, persona, stage)
}
