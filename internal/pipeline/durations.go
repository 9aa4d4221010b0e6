package pipeline

import (
	"encoding/json"
	"time"
)

// DefaultSLA is the end-to-end target for one job
const DefaultSLA = 60 * time.Second

// Durations records wall-clock time per stage
type Durations struct {
	Enrichment time.Duration
	Selection  time.Duration
	Adaptation time.Duration
	Validation time.Duration
	Total      time.Duration
	SLAMet     bool
}

// MarshalJSON reports durations in milliseconds
func (d Durations) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Enrichment int64 `json:"enrichment_ms"`
		Selection  int64 `json:"selection_ms"`
		Adaptation int64 `json:"adaptation_ms"`
		Validation int64 `json:"validation_ms"`
		Total      int64 `json:"total_ms"`
		SLAMet     bool  `json:"sla_met"`
	}{
		Enrichment: d.Enrichment.Milliseconds(),
		Selection:  d.Selection.Milliseconds(),
		Adaptation: d.Adaptation.Milliseconds(),
		Validation: d.Validation.Milliseconds(),
		Total:      d.Total.Milliseconds(),
		SLAMet:     d.SLAMet,
	})
}

// Ordered returns stage names and durations in pipeline order
func (d Durations) Ordered() ([]string, map[string]time.Duration) {
	order := []string{"enrichment", "selection", "adaptation", "validation"}
	return order, map[string]time.Duration{
		"enrichment": d.Enrichment,
		"selection":  d.Selection,
		"adaptation": d.Adaptation,
		"validation": d.Validation,
	}
}
