package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/lead-personalizer/internal/db"
	"github.com/jonathan/lead-personalizer/internal/pipeline"
	"github.com/jonathan/lead-personalizer/internal/templates"
	"github.com/jonathan/lead-personalizer/internal/types"
)

// PersonalizeRequest is the body of POST /personalize
type PersonalizeRequest struct {
	Email      string `json:"email"`
	Domain     string `json:"domain,omitempty"`
	Name       string `json:"name,omitempty"`
	Company    string `json:"company,omitempty"`
	Persona    string `json:"persona,omitempty"`
	BuyerStage string `json:"buyer_stage,omitempty"`
	CTA        string `json:"cta,omitempty"`
}

func (r PersonalizeRequest) toRequest() types.PersonalizationRequest {
	return types.PersonalizationRequest{
		Email:      r.Email,
		Domain:     r.Domain,
		Name:       r.Name,
		Company:    r.Company,
		Persona:    types.Persona(r.Persona),
		BuyerStage: types.BuyerStage(r.BuyerStage),
		CTA:        r.CTA,
	}
}

// TemplateItem is one entry of GET /templates
type TemplateItem struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Personas     []types.Persona     `json:"personas"`
	BuyerStages  []types.BuyerStage  `json:"buyer_stages"`
	Industries   []string            `json:"industries,omitempty"`
	CompanySizes []types.CompanySize `json:"company_sizes,omitempty"`
	Priority     int                 `json:"priority"`
	Fallback     bool                `json:"fallback"`
}

func (s *Server) decodePersonalize(w http.ResponseWriter, r *http.Request) (types.PersonalizationRequest, error) {
	var body PersonalizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return types.PersonalizationRequest{}, &ErrValidation{Field: "body", Message: "request body is required"}
		}
		return types.PersonalizationRequest{}, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if body.Email == "" {
		return types.PersonalizationRequest{}, &ErrValidation{Field: "email", Message: "email is required"}
	}
	return body.toRequest(), nil
}

func (s *Server) runContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.config.RequestTimeout)
}

// handlePersonalize runs one job and returns its result or a classified failure
func (s *Server) handlePersonalize(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodePersonalize(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if s.deps.Personalizer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "personalization is not configured")
		return
	}

	ctx, cancel := s.runContext(r)
	defer cancel()

	result, err := s.deps.Personalizer.Run(ctx, req)
	if err != nil {
		s.jsonResponse(w, HTTPStatus(err), pipeline.Response{Failure: pipeline.FailureFrom(err)})
		return
	}
	s.jsonResponse(w, http.StatusOK, pipeline.Response{Result: result})
}

// handlePersonalizeStream runs one job and streams stage events as Server-Sent Events
func (s *Server) handlePersonalizeStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodePersonalize(w, r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if s.deps.Personalizer == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "personalization is not configured")
		return
	}

	stream, err := newEventStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := s.runContext(r)
	defer cancel()
	ctx = pipeline.ContextWithProgress(ctx, func(event pipeline.ProgressEvent) {
		if err := stream.send("stage", event); err != nil {
			s.logger.Warn("failed to write stream event", zap.Error(err))
		}
	})

	result, err := s.deps.Personalizer.Run(ctx, req)
	if err != nil {
		_ = stream.send("failure", pipeline.FailureFrom(err))
		return
	}
	_ = stream.send("result", result)
}

// handleGetJob returns a recorded job
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}
	if s.deps.Jobs == nil {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	job, err := s.deps.Jobs.Get(r.Context(), id)
	if errors.Is(err, pipeline.ErrJobNotFound) {
		s.errorResponse(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		s.logger.Error("job lookup failed", zap.String("job_id", id.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load job")
		return
	}

	job.Request.Email = ""
	s.jsonResponse(w, http.StatusOK, job)
}

// handleListJobs lists recent jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := db.JobFilters{
		Status: types.JobStatus(q.Get("status")),
		Domain: q.Get("domain"),
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filters.Limit = limit
	}

	jobs, err := s.deps.Lister.List(r.Context(), filters)
	if err != nil {
		s.logger.Error("job listing failed", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	type JobItem struct {
		ID          string          `json:"id"`
		Domain      string          `json:"domain"`
		Persona     types.Persona   `json:"persona"`
		Status      types.JobStatus `json:"status"`
		FailureKind string          `json:"failure_kind,omitempty"`
		CreatedAt   string          `json:"created_at"`
	}
	items := make([]JobItem, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, JobItem{
			ID:          job.ID.String(),
			Domain:      job.Request.Domain,
			Persona:     job.Request.Persona,
			Status:      job.Status,
			FailureKind: job.FailureKind,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":  items,
		"count": len(items),
	})
}

// handleTemplates lists the catalog, optionally filtered by persona and stage
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		persona types.Persona
		stage   types.BuyerStage
		err     error
	)
	if v := q.Get("persona"); v != "" {
		if persona, err = types.ParsePersona(v); err != nil {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if v := q.Get("stage"); v != "" {
		if stage, err = types.ParseBuyerStage(v); err != nil {
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	all := s.deps.Catalog.Templates()
	items := make([]TemplateItem, 0, len(all))
	for _, t := range all {
		if !matchesFilter(t, persona, stage) {
			continue
		}
		items = append(items, TemplateItem{
			ID:           t.ID,
			Name:         t.Name,
			Personas:     t.Personas,
			BuyerStages:  t.BuyerStages,
			Industries:   t.Industries,
			CompanySizes: t.CompanySizes,
			Priority:     t.Priority,
			Fallback:     t.IsFallback(),
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"templates": items,
		"count":     len(items),
	})
}

func matchesFilter(t templates.Template, persona types.Persona, stage types.BuyerStage) bool {
	switch {
	case persona != "" && stage != "":
		return t.AppliesTo(persona, stage)
	case persona != "":
		return slices.Contains(t.Personas, persona)
	case stage != "":
		return slices.Contains(t.BuyerStages, stage)
	default:
		return true
	}
}

// handleHealth reports server and dependency health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.HealthChecks))
	for name, check := range s.deps.HealthChecks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	s.jsonResponse(w, status, body)
}
