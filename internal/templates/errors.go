package templates

import "fmt"

// CatalogError represents an invalid template catalog
type CatalogError struct {
	TemplateID string
	Message    string
	Cause      error
}

func (e *CatalogError) Error() string {
	msg := e.Message
	if e.TemplateID != "" {
		msg = fmt.Sprintf("template %s: %s", e.TemplateID, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("catalog error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("catalog error: %s", msg)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// FillError represents a placeholder rendering failure
type FillError struct {
	Text  string
	Cause error
}

func (e *FillError) Error() string {
	return fmt.Sprintf("fill error for %q: %v", e.Text, e.Cause)
}

func (e *FillError) Unwrap() error {
	return e.Cause
}
