// internal/api/previews.go
package api

import (
	"net/http"
	"net/url"
	"strings"

	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/models"
	generatepreviews "f1-previews/internal/workers/generation/generate-previews"

	"github.com/go-chi/chi/v5"
)

type driverPreviewResponse struct {
	Driver  string               `json:"driver"`
	Preview models.DriverPreview `json:"preview"`
}

// GenerateRequest is the body of POST /api/previews/generate. Model and
// Temperature override the saved settings when set.
type GenerateRequest struct {
	Mode        string   `json:"mode"`
	Driver      string   `json:"driver,omitempty"`
	Circuit     string   `json:"circuit,omitempty"`
	Date        string   `json:"date,omitempty"`
	Season      string   `json:"season,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Data   models.GeneratedData     `json:"data"`
	Report *generatepreviews.Report `json:"report"`
}

func (s *server) getPreviews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Previews.Load(r.Context()))
}

func (s *server) clearPreviews(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Previews.Clear(r.Context()); err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) getDriverPreview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	preview, ok := s.deps.Previews.Load(r.Context()).Preview(name)
	if !ok {
		s.errors.HandleHTTPError(w, r, apperrors.NewNoPreviewError(name))
		return
	}
	writeJSON(w, http.StatusOK, driverPreviewResponse{Driver: name, Preview: preview})
}

func (s *server) generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			s.errors.HandleHTTPError(w, r, err)
			return
		}
	}

	settings, err := s.deps.Prompts.LoadSettings(r.Context())
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	if strings.TrimSpace(settings.APIKey) == "" {
		s.errors.HandleHTTPError(w, r, apperrors.NewMissingCredentialError())
		return
	}

	req := generatepreviews.Request{
		APIKey:      settings.APIKey,
		Model:       settings.Model,
		Circuit:     body.Circuit,
		Date:        body.Date,
		Season:      body.Season,
		Temperature: settings.Temperature,
	}
	if body.Model != "" {
		req.Model = body.Model
	}
	if body.Temperature != nil {
		req.Temperature = *body.Temperature
	}

	if !s.running.TryLock() {
		s.errors.HandleHTTPError(w, r, apperrors.NewRunInProgressError())
		return
	}
	defer s.running.Unlock()

	state := s.deps.Previews.Load(r.Context())
	progress := func(p generatepreviews.Progress) {
		s.logger.Debug("generation progress", map[string]interface{}{
			"completed": p.Completed,
			"total":     p.Total,
			"message":   p.Message,
		})
	}

	data, report, err := s.deps.Pipeline.Run(r.Context(), body.Mode, req, state, body.Driver, progress)
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Data: data, Report: report})
}
