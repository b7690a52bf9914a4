package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"careerquest-service/internal/app"
	"careerquest-service/internal/domain"
)

// DomainFilter is the catalog view the REST endpoints need.
type DomainFilter interface {
	FilterByCategory(c domain.Category) []domain.Domain
}

type domainView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    domain.Category `json:"category"`
	Icon        string          `json:"icon"`
	Theme       string          `json:"theme"`
}

func domainViews(domains []domain.Domain, lang string) []domainView {
	views := make([]domainView, 0, len(domains))
	for _, d := range domains {
		views = append(views, domainView{
			ID:          d.ID,
			Name:        d.DisplayName(lang),
			Description: d.Summary(lang),
			Category:    d.Category,
			Icon:        d.Icon,
			Theme:       d.Theme,
		})
	}
	return views
}

// NewRouter serves the health check, catalog and session endpoints plus the websocket.
func NewRouter(service *app.QuizService, catalog DomainFilter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /domains", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("category")
		if raw == "" {
			raw = string(domain.CategoryAll)
		}
		category, err := domain.ParseCategory(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, domainViews(catalog.FilterByCategory(category), languageParam(r)))
	})
	mux.HandleFunc("GET /sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		player, err := service.Player(r.PathValue("id"))
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, player.Snapshot())
	})
	mux.HandleFunc("GET /ws", NewWSHandler(service).ServeWS)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
