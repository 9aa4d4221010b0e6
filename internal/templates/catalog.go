package templates

import (
	"fmt"
	"sync"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// UltimateFallbackID is the template returned when nothing else is eligible
const UltimateFallbackID = "fallback-generic"

// Catalog is an immutable, validated set of templates in declaration order
type Catalog struct {
	templates []Template
	byID      map[string]int
	ultimate  int
}

// NewCatalog validates templates and builds a catalog. Every persona and
// buyer stage pair must be covered by an unfiltered template with a zero
// confidence threshold, so selection always has an eligible candidate.
func NewCatalog(templates []Template, ultimateID string) (*Catalog, error) {
	if len(templates) == 0 {
		return nil, &CatalogError{Message: "catalog is empty"}
	}

	c := &Catalog{
		templates: make([]Template, 0, len(templates)),
		byID:      make(map[string]int, len(templates)),
		ultimate:  -1,
	}

	for _, t := range templates {
		if err := validateTemplate(t); err != nil {
			return nil, err
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, &CatalogError{TemplateID: t.ID, Message: "duplicate id"}
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t.clone())
	}

	idx, ok := c.byID[ultimateID]
	if !ok {
		return nil, &CatalogError{TemplateID: ultimateID, Message: "ultimate fallback not found"}
	}
	if !c.templates[idx].Unfiltered() || c.templates[idx].ConfidenceThreshold > 0 {
		return nil, &CatalogError{TemplateID: ultimateID, Message: "ultimate fallback must be unfiltered with zero threshold"}
	}
	c.ultimate = idx

	if missing := c.uncovered(); len(missing) > 0 {
		return nil, &CatalogError{Message: fmt.Sprintf("no fallback covers %v", missing)}
	}
	return c, nil
}

func validateTemplate(t Template) error {
	switch {
	case t.ID == "":
		return &CatalogError{Message: "template id is required"}
	case t.Name == "":
		return &CatalogError{TemplateID: t.ID, Message: "name is required"}
	case len(t.Personas) == 0:
		return &CatalogError{TemplateID: t.ID, Message: "at least one persona is required"}
	case len(t.BuyerStages) == 0:
		return &CatalogError{TemplateID: t.ID, Message: "at least one buyer stage is required"}
	case t.ConfidenceThreshold < 0 || t.ConfidenceThreshold > 1:
		return &CatalogError{TemplateID: t.ID, Message: "confidence threshold must be in [0,1]"}
	}
	for _, text := range []string{t.IntroTemplate, t.CTATemplate} {
		if text == "" {
			return &CatalogError{TemplateID: t.ID, Message: "intro and cta templates are required"}
		}
		if _, err := defaultFiller.parse(text); err != nil {
			return &CatalogError{TemplateID: t.ID, Message: "invalid placeholder syntax", Cause: err}
		}
		if _, err := defaultFiller.Fill(text, &types.CompanyProfile{}, t.Personas[0], t.BuyerStages[0]); err != nil {
			return &CatalogError{TemplateID: t.ID, Message: "unknown placeholder", Cause: err}
		}
	}
	return nil
}

// uncovered lists persona/stage pairs that no unfiltered, zero-threshold
// template serves
func (c *Catalog) uncovered() []string {
	var missing []string
	for _, persona := range types.AllPersonas() {
		for _, stage := range types.AllBuyerStages() {
			covered := false
			for _, t := range c.templates {
				if t.Unfiltered() && t.ConfidenceThreshold == 0 && t.AppliesTo(persona, stage) {
					covered = true
					break
				}
			}
			if !covered {
				missing = append(missing, fmt.Sprintf("%s/%s", persona, stage))
			}
		}
	}
	return missing
}

// Templates returns a copy of the templates in declaration order
func (c *Catalog) Templates() []Template {
	out := make([]Template, len(c.templates))
	for i, t := range c.templates {
		out[i] = t.clone()
	}
	return out
}

// Len returns the number of templates
func (c *Catalog) Len() int {
	return len(c.templates)
}

// ByID looks up a template
func (c *Catalog) ByID(id string) (Template, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[idx].clone(), true
}

// UltimateFallback returns the designated catch-all template
func (c *Catalog) UltimateFallback() Template {
	return c.templates[c.ultimate].clone()
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the built-in catalog, built once per process.
// It panics if the built-in data is invalid, which tests guard against.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := NewCatalog(builtinTemplates(), UltimateFallbackID)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
