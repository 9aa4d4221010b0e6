// Package llm - schema.go describes the JSON shape a prompt asks the model to return.
package llm

import (
	"fmt"
	"strings"
)

// OutputSchema names the fields a model must return as one JSON object.
type OutputSchema struct {
	Name   string        // Schema name (e.g., "AdaptedContent")
	Fields []SchemaField // Expected output fields
}

// SchemaField defines a single field in the model output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model, defaults to "string"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// RequiredFields returns the names of required fields in declaration order
func (s OutputSchema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Instruction renders the structure block appended to a prompt.
func (s OutputSchema) Instruction() string {
	var sb strings.Builder

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range s.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  %q: %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(s.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	sb.WriteString("Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	return sb.String()
}
