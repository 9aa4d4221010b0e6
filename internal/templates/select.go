package templates

import (
	"sort"

	"go.uber.org/zap"

	"github.com/jonathan/lead-personalizer/internal/types"
)

// Scoring weights
const (
	industryMatchBonus = 5.0
	sizeMatchBonus     = 3.0
	confidenceWeight   = 2.0
	specificityWeight  = 2.0
	fallbackPenalty    = 5.0
)

// Candidate is an eligible template paired with its score
type Candidate struct {
	Template Template `json:"template"`
	Score    float64  `json:"score"`
}

// Selector picks the best-fit template for a profile and lead
type Selector struct {
	catalog *Catalog
	logger  *zap.Logger
}

// NewSelector creates a selector over catalog. A nil catalog uses DefaultCatalog.
func NewSelector(catalog *Catalog, logger *zap.Logger) *Selector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{catalog: catalog, logger: logger.Named("templates")}
}

// Catalog returns the catalog the selector draws from
func (s *Selector) Catalog() *Catalog {
	return s.catalog
}

// Eligible reports whether a template may be used for the profile and lead
func Eligible(t Template, profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) bool {
	if !t.AppliesTo(persona, stage) {
		return false
	}
	if t.ConfidenceThreshold > profile.ConfidenceScore {
		return false
	}
	if len(t.Industries) > 0 && !t.matchesIndustry(profile.Industry) {
		return false
	}
	if len(t.CompanySizes) > 0 && !t.matchesSize(profile.CompanySize) {
		return false
	}
	return true
}

// Score rates how well an eligible template fits the profile. Narrow
// templates outrank broad ones and fallbacks are penalized.
func Score(t Template, profile *types.CompanyProfile) float64 {
	score := float64(t.Priority)
	if t.matchesIndustry(profile.Industry) {
		score += industryMatchBonus
	}
	if t.matchesSize(profile.CompanySize) {
		score += sizeMatchBonus
	}
	score += profile.ConfidenceScore * confidenceWeight
	score += specificityWeight / float64(len(t.Personas)*len(t.BuyerStages))
	if t.IsFallback() {
		score -= fallbackPenalty
	}
	return score
}

// Candidates returns every eligible template with its score, best first.
// Equal scores keep catalog order.
func (s *Selector) Candidates(profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) []Candidate {
	var out []Candidate
	for _, t := range s.catalog.templates {
		if Eligible(t, profile, persona, stage) {
			out = append(out, Candidate{Template: t.clone(), Score: Score(t, profile)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// SelectScored returns the winning template and its score. It always
// returns a template; with no eligible candidate the ultimate fallback wins.
func (s *Selector) SelectScored(profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) (Template, float64) {
	var (
		best      Template
		bestScore float64
		found     bool
	)
	for _, t := range s.catalog.templates {
		if !Eligible(t, profile, persona, stage) {
			continue
		}
		score := Score(t, profile)
		if !found || score > bestScore {
			best, bestScore, found = t, score, true
		}
	}

	if !found {
		fallback := s.catalog.UltimateFallback()
		s.logger.Warn("no eligible template, using ultimate fallback",
			zap.String("persona", string(persona)),
			zap.String("buyer_stage", string(stage)),
			zap.String("template_id", fallback.ID))
		return fallback, Score(fallback, profile)
	}

	s.logger.Debug("template selected",
		zap.String("template_id", best.ID),
		zap.Float64("score", bestScore))
	return best.clone(), bestScore
}

// Select returns the best-fit template
func (s *Selector) Select(profile *types.CompanyProfile, persona types.Persona, stage types.BuyerStage) Template {
	t, _ := s.SelectScored(profile, persona, stage)
	return t
}
