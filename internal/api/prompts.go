// internal/api/prompts.go
package api

import (
	"net/http"
	"strings"

	promptstore "f1-previews/internal/workers/prompts/prompt-store"

	"github.com/go-chi/chi/v5"
)

type promptResponse struct {
	ID       promptstore.PromptID `json:"id"`
	Template string               `json:"template"`
}

type promptUpdate struct {
	Template string `json:"template"`
}

// settingsUpdate leaves a field unchanged when it is omitted. A redacted key
// ("...1234") echoed back from GET is treated as omitted.
type settingsUpdate struct {
	APIKey      string   `json:"apiKey"`
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
}

func (s *server) listPrompts(w http.ResponseWriter, r *http.Request) {
	all, err := s.deps.Prompts.All(r.Context())
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptList(all))
}

func (s *server) getPrompt(w http.ResponseWriter, r *http.Request) {
	id := promptstore.PromptID(chi.URLParam(r, "id"))
	template, err := s.deps.Prompts.Get(r.Context(), id)
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{ID: id, Template: template})
}

func (s *server) putPrompt(w http.ResponseWriter, r *http.Request) {
	id := promptstore.PromptID(chi.URLParam(r, "id"))
	var body promptUpdate
	if err := decodeJSON(r, &body); err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := s.deps.Prompts.Set(r.Context(), id, body.Template); err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promptResponse{ID: id, Template: body.Template})
}

func (s *server) resetPrompts(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Prompts.Reset(r.Context()); err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	s.listPrompts(w, r)
}

func (s *server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.deps.Prompts.LoadSettings(r.Context())
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Redacted())
}

func (s *server) putSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsUpdate
	if err := decodeJSON(r, &body); err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}

	settings, err := s.deps.Prompts.LoadSettings(r.Context())
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	if key := strings.TrimSpace(body.APIKey); key != "" && !strings.HasPrefix(key, "...") {
		settings.APIKey = key
	}
	if body.Model != "" {
		settings.Model = body.Model
	}
	if body.Temperature != nil {
		settings.Temperature = *body.Temperature
	}

	if err := s.deps.Prompts.SaveSettings(r.Context(), settings); err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings.Redacted())
}

func promptList(all map[promptstore.PromptID]string) []promptResponse {
	out := make([]promptResponse, 0, len(promptstore.AllPrompts))
	for _, id := range promptstore.AllPrompts {
		out = append(out, promptResponse{ID: id, Template: all[id]})
	}
	return out
}
