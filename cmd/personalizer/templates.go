package main

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/lead-personalizer/internal/enrichment"
	"github.com/jonathan/lead-personalizer/internal/observability"
	"github.com/jonathan/lead-personalizer/internal/templates"
	"github.com/jonathan/lead-personalizer/internal/types"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the template catalog",
	Long: `Lists the built-in templates. With both --persona and --stage, shows the
eligible candidates for the offline profile of --domain and which one wins.`,
	RunE: runTemplates,
}

var (
	templatesPersona string
	templatesStage   string
	templatesDomain  string
)

func init() {
	templatesCmd.Flags().StringVarP(&templatesPersona, "persona", "p", "", "Filter by persona")
	templatesCmd.Flags().StringVarP(&templatesStage, "stage", "s", "", "Filter by buyer stage")
	templatesCmd.Flags().StringVar(&templatesDomain, "domain", "example.com", "Domain whose offline profile drives selection")
	rootCmd.AddCommand(templatesCmd)
}

type templateSummary struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Personas    []types.Persona    `json:"personas"`
	BuyerStages []types.BuyerStage `json:"buyer_stages"`
	Industries  []string           `json:"industries,omitempty"`
	Priority    int                `json:"priority"`
	Fallback    bool               `json:"fallback"`
}

func summarize(t templates.Template) templateSummary {
	return templateSummary{
		ID:          t.ID,
		Name:        t.Name,
		Personas:    t.Personas,
		BuyerStages: t.BuyerStages,
		Industries:  t.Industries,
		Priority:    t.Priority,
		Fallback:    t.IsFallback(),
	}
}

type scoredSummary struct {
	templateSummary
	Score float64 `json:"score"`
}

type selectionOutput struct {
	Domain     string           `json:"domain"`
	Company    string           `json:"company"`
	Persona    types.Persona    `json:"persona"`
	BuyerStage types.BuyerStage `json:"buyer_stage"`
	Selected   scoredSummary    `json:"selected"`
	Candidates []scoredSummary  `json:"candidates"`
}

func runTemplates(cmd *cobra.Command, _ []string) error {
	var (
		persona types.Persona
		stage   types.BuyerStage
		err     error
	)
	if templatesPersona != "" {
		if persona, err = types.ParsePersona(templatesPersona); err != nil {
			return err
		}
	}
	if templatesStage != "" {
		if stage, err = types.ParseBuyerStage(templatesStage); err != nil {
			return err
		}
	}

	catalog := templates.DefaultCatalog()

	if persona == "" || stage == "" {
		items := []templateSummary{}
		for _, t := range catalog.Templates() {
			if persona != "" && !slices.Contains(t.Personas, persona) {
				continue
			}
			if stage != "" && !slices.Contains(t.BuyerStages, stage) {
				continue
			}
			items = append(items, summarize(t))
		}
		return writeJSON(cmd.OutOrStdout(), "", map[string]any{
			"templates": items,
			"count":     len(items),
		})
	}

	profile := enrichment.OfflineProfile(templatesDomain, time.Now())
	selector := templates.NewSelector(catalog, nil)
	winner, score := selector.SelectScored(profile, persona, stage)

	out := selectionOutput{
		Domain:     profile.Domain,
		Company:    profile.CompanyName,
		Persona:    persona,
		BuyerStage: stage,
		Selected:   scoredSummary{summarize(winner), score},
	}
	for _, c := range selector.Candidates(profile, persona, stage) {
		out.Candidates = append(out.Candidates, scoredSummary{summarize(c.Template), c.Score})
	}

	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintTemplate(winner.ID, winner.Name, score)
	}
	if err := writeJSON(cmd.OutOrStdout(), "", out); err != nil {
		return fmt.Errorf("failed to write selection: %w", err)
	}
	return nil
}
