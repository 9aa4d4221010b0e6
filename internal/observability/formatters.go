// Package observability provides logging setup and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/lead-personalizer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintEnrichment outputs the resolved company summary.
func (p *Printer) PrintEnrichment(summary *types.EnrichmentSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:    %s\n", summary.CompanyName))
	sb.WriteString(fmt.Sprintf("Industry:   %s\n", summary.Industry))
	sb.WriteString(fmt.Sprintf("Size:       %s (%s employees)\n", summary.CompanySize, summary.EmployeeCount))
	sb.WriteString(fmt.Sprintf("Confidence: %.0f%%\n", summary.ConfidenceScore*100))
	if len(summary.SourcesUsed) > 0 {
		sb.WriteString(fmt.Sprintf("Sources:    %s", strings.Join(summary.SourcesUsed, ", ")))
	}

	p.printBox("COMPANY ENRICHMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTemplate outputs the selected template and, when positive, its score.
func (p *Printer) PrintTemplate(id, name string, score float64) {
	content := fmt.Sprintf("ID:    %s\nName:  %s", id, name)
	if score > 0 {
		content += fmt.Sprintf("\nScore: %.2f", score)
	}
	p.printBox("SELECTED TEMPLATE", content)
}

// PrintContent outputs the adapted content.
func (p *Printer) PrintContent(content *types.AdaptedContent) {
	if content == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Headline:    %s\n", content.Headline))
	sb.WriteString(fmt.Sprintf("Subheadline: %s\n", content.Subheadline))
	sb.WriteString("\nValue props:\n")
	for _, vp := range content.ValueProps {
		sb.WriteString(fmt.Sprintf("  • %s\n", vp))
	}
	sb.WriteString(fmt.Sprintf("\nCTA: %s", content.CTAText))

	p.printBox("PERSONALIZED CONTENT", sb.String())
}

// PrintDurations outputs per-stage latency against the SLA.
func (p *Printer) PrintDurations(stages map[string]time.Duration, order []string, total, sla time.Duration) {
	var sb strings.Builder
	for _, name := range order {
		sb.WriteString(fmt.Sprintf("%-12s %8s\n", name, stages[name].Round(time.Millisecond)))
	}
	status := "✓ within SLA"
	if total > sla {
		status = "⚠ SLA exceeded"
	}
	sb.WriteString(fmt.Sprintf("%-12s %8s  %s", "total", total.Round(time.Millisecond), status))

	p.printBox("STAGE DURATIONS", sb.String())
}

// PrintValidation outputs any content rule violations found.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(report *types.ValidationReport) {
	if report == nil || len(report.Violations) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ NO VIOLATIONS FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d violations:\n\n", len(report.Violations)))

	count := min(len(report.Violations), maxItemsToShow*2)
	for i := 0; i < count; i++ {
		v := report.Violations[i]
		sb.WriteString(fmt.Sprintf("⚠ %s\n", v.Rule))
		sb.WriteString(fmt.Sprintf("  %s\n", v.Message))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(report.Violations) > count {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(report.Violations)-count))
	}

	p.printBox("CONTENT VIOLATIONS", sb.String())
}
