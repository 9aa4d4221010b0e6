package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds a single provider HTTP call
const DefaultRequestTimeout = 30 * time.Second

// HTTPProvider talks to a RAD-style enrichment service:
// POST {base}/profile-request submits and GET {base}/job-status/{id} polls.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPProvider creates a provider. A nil client gets DefaultRequestTimeout.
func NewHTTPProvider(baseURL, apiKey string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type submitRequest struct {
	Domain      string `json:"domain"`
	RequestedBy string `json:"requested_by"`
}

type apiResponse struct {
	Status  string         `json:"status"`
	JobID   string         `json:"job_id,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
}

// Submit starts a lookup job and returns its id
func (p *HTTPProvider) Submit(ctx context.Context, domain, requester string) (string, error) {
	if requester == "" {
		requester = "system"
	}
	body, err := json.Marshal(submitRequest{Domain: domain, RequestedBy: requester})
	if err != nil {
		return "", &ProviderError{Message: "failed to encode request", Cause: err}
	}

	var resp apiResponse
	if err := p.do(ctx, http.MethodPost, "/profile-request", body, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", &ProviderError{Message: "response did not include job_id"}
	}
	return resp.JobID, nil
}

// Status polls a job once
func (p *HTTPProvider) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	var resp apiResponse
	if err := p.do(ctx, http.MethodGet, "/job-status/"+url.PathEscape(jobID), nil, &resp); err != nil {
		if pe, ok := err.(*ProviderError); ok {
			pe.JobID = jobID
		}
		return nil, err
	}
	return &JobStatus{
		State:   ParseJobState(resp.Status),
		Data:    resp.Data,
		Message: resp.Message,
	}, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body []byte, out *apiResponse) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return &ProviderError{Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Message: "failed to decode response", Cause: err}
	}
	return nil
}
