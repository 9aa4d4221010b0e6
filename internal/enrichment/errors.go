// Package enrichment resolves company domains into normalized company profiles.
package enrichment

import "fmt"

// ProviderError represents a failed call to the enrichment provider
type ProviderError struct {
	Message string
	JobID   string
	Cause   error
}

func (e *ProviderError) Error() string {
	prefix := "provider error"
	if e.JobID != "" {
		prefix = fmt.Sprintf("provider error (job %s)", e.JobID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// PayloadError represents a provider payload that could not be normalized
type PayloadError struct {
	Message string
	Cause   error
}

func (e *PayloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("payload error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("payload error: %s", e.Message)
}

func (e *PayloadError) Unwrap() error {
	return e.Cause
}

// CacheError represents a failed cache read or write
type CacheError struct {
	Op     string
	Domain string
	Cause  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s failed for %s: %v", e.Op, e.Domain, e.Cause)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}
