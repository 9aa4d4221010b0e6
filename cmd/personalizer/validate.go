package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/lead-personalizer/internal/adaptation"
	"github.com/jonathan/lead-personalizer/internal/observability"
	"github.com/jonathan/lead-personalizer/internal/types"
	"github.com/jonathan/lead-personalizer/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check content against the copy rules",
	Long: `Validates a content JSON file for word limits and blocked phrases.
Accepts either generator output (value_prop_1..3) or result content (value_props).`,
	RunE: runValidate,
}

var (
	validateInput  string
	validateStrict bool
	validateOutput string
)

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to content JSON file (required)")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Exit non-zero when violations are found")
	validateCmd.Flags().StringVarP(&validateOutput, "out", "o", "", "Path to output report JSON file (default stdout)")

	if err := validateCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

// loadContent reads either content shape. Generator output goes through the
// same schema and shape checks the adapter applies.
func loadContent(path string) (*types.AdaptedContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse content JSON: %w", err)
	}
	if _, ok := probe["value_props"]; !ok {
		return adaptation.ParseContent(string(data))
	}

	var content types.AdaptedContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to parse content JSON: %w", err)
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("content is incomplete: %w", err)
	}
	return &content, nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	content, err := loadContent(validateInput)
	if err != nil {
		return err
	}

	report := validation.Validate(content)
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintValidation(&report)
	}
	if err := writeJSON(cmd.OutOrStdout(), validateOutput, report); err != nil {
		return err
	}

	mode := validation.ModeAdvisory
	if validateStrict {
		mode = validation.ModeBlocking
	}
	return validation.Enforce(report, mode)
}
