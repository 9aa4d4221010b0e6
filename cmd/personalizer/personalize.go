package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/lead-personalizer/internal/observability"
	"github.com/jonathan/lead-personalizer/internal/pipeline"
	"github.com/jonathan/lead-personalizer/internal/types"
	"github.com/jonathan/lead-personalizer/internal/validation"
)

var personalizeCmd = &cobra.Command{
	Use:   "personalize",
	Short: "Run one personalization job",
	Long:  "Enriches the lead's company, selects a template and adapts it, then prints the result or failure as JSON.",
	RunE:  runPersonalize,
}

var (
	personalizeEmail   string
	personalizeDomain  string
	personalizeName    string
	personalizeCompany string
	personalizePersona string
	personalizeStage   string
	personalizeCTA     string
	personalizeStrict  bool
	personalizeOutput  string
)

func init() {
	personalizeCmd.Flags().StringVarP(&personalizeEmail, "email", "e", "", "Lead email address (required)")
	personalizeCmd.Flags().StringVar(&personalizeDomain, "domain", "", "Company domain (default from email)")
	personalizeCmd.Flags().StringVar(&personalizeName, "name", "", "Lead name")
	personalizeCmd.Flags().StringVar(&personalizeCompany, "company", "", "Company name as entered by the lead")
	personalizeCmd.Flags().StringVarP(&personalizePersona, "persona", "p", "", "Persona (inferred from email when empty)")
	personalizeCmd.Flags().StringVarP(&personalizeStage, "stage", "s", "", "Buyer stage: awareness, evaluation or decision (inferred from CTA when empty)")
	personalizeCmd.Flags().StringVar(&personalizeCTA, "cta", "", "CTA the lead clicked")
	personalizeCmd.Flags().BoolVar(&personalizeStrict, "strict", false, "Fail the job when content violates copy rules")
	personalizeCmd.Flags().StringVarP(&personalizeOutput, "out", "o", "", "Path to output JSON file (default stdout)")

	if err := personalizeCmd.MarkFlagRequired("email"); err != nil {
		panic(fmt.Sprintf("failed to mark email flag as required: %v", err))
	}

	rootCmd.AddCommand(personalizeCmd)
}

func runPersonalize(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if personalizeStrict {
		cfg.Pipeline.ValidationMode = string(validation.ModeBlocking)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	resp := a.pipeline.Personalize(ctx, types.PersonalizationRequest{
		Email:      personalizeEmail,
		Domain:     personalizeDomain,
		Name:       personalizeName,
		Company:    personalizeCompany,
		Persona:    types.Persona(personalizePersona),
		BuyerStage: types.BuyerStage(personalizeStage),
		CTA:        personalizeCTA,
	})

	if verbose && resp.Result != nil {
		printResult(cmd.ErrOrStderr(), resp.Result, cfg.Pipeline.SLA.Std())
	}

	if err := writeJSON(cmd.OutOrStdout(), personalizeOutput, resp); err != nil {
		return err
	}
	if resp.Failure != nil {
		return fmt.Errorf("personalization failed: %s: %s", resp.Failure.Kind, resp.Failure.Message)
	}
	return nil
}

func printResult(w io.Writer, result *pipeline.Result, sla time.Duration) {
	p := observability.NewPrinter(w)
	p.PrintEnrichment(&result.Enrichment)
	p.PrintTemplate(result.Metadata.TemplateID, result.Metadata.TemplateName, 0)
	p.PrintContent(result.Content)
	p.PrintValidation(&result.Validation)
	order, stages := result.Metadata.Durations.Ordered()
	p.PrintDurations(stages, order, result.Metadata.Durations.Total, sla)
}

// writeJSON writes indented JSON to path, or to w when path is empty
func writeJSON(w io.Writer, path string, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output to JSON: %w", err)
	}
	jsonBytes = append(jsonBytes, '\n')

	if path == "" {
		_, err := w.Write(jsonBytes)
		return err
	}

	// Ensure output directory exists
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
