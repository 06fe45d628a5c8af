// backend/handlers/lead_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/leadscout/adscraper/backend/database"
	"github.com/leadscout/adscraper/backend/metrics"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/services"
)

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling JSON response: %v", err)
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	log.Printf("API Error %d: %s", code, message)
	respondWithJSON(w, code, map[string]string{"error": message})
}

// Handler bundles the HTTP endpoints and their dependencies.
type Handler struct {
	store    *database.LeadStore
	pipeline *services.PipelineService
}

func New(store *database.LeadStore, pipeline *services.PipelineService) *Handler {
	return &Handler{store: store, pipeline: pipeline}
}

// Router builds the full route table.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Get("/api/leads", h.GetLeads)
	r.Get("/api/leads/{domain}", h.GetLead)
	r.Patch("/api/leads/{domain}/active", h.SetLeadActive)
	r.Get("/api/stats", h.GetStats)
	r.Get("/api/export.csv", h.ExportLeads)
	r.Post("/api/admin/scrape", h.RunScrape)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetLeads handles GET /api/leads.
// Query params: active_only (bool), source (ad source tag), since
// (YYYY-MM-DD), limit (int).
func (h *Handler) GetLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := leadFilterFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, err := h.store.GetLeads(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to fetch leads: %v", err))
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	respondWithJSON(w, http.StatusOK, leads)
}

func leadFilterFromQuery(r *http.Request) (database.LeadFilter, error) {
	var filter database.LeadFilter

	if v := r.URL.Query().Get("active_only"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid active_only value %q", v)
		}
		filter.ActiveOnly = active
	}
	if v := r.URL.Query().Get("source"); v != "" {
		src, err := models.ParseAdSource(v)
		if err != nil {
			return filter, err
		}
		filter.Source = src
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, fmt.Errorf("invalid since date %q, expected YYYY-MM-DD", v)
		}
		filter.Since = &since
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("invalid limit value %q", v)
		}
		filter.Limit = limit
	}
	return filter, nil
}

// GetLead handles GET /api/leads/{domain}.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")
	lead, err := h.store.GetLeadByDomain(r.Context(), domain)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to fetch lead: %v", err))
		return
	}
	if lead == nil {
		respondWithError(w, http.StatusNotFound,
			fmt.Sprintf("No lead found for domain %s", domain))
		return
	}
	respondWithJSON(w, http.StatusOK, lead)
}

// SetLeadActive handles PATCH /api/leads/{domain}/active.
func (h *Handler) SetLeadActive(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	var req models.SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	found, err := h.store.SetActive(r.Context(), domain, req.IsActive)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to update lead: %v", err))
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound,
			fmt.Sprintf("No lead found for domain %s", domain))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"domain":    domain,
		"is_active": req.IsActive,
	})
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to compute stats: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// ExportLeads handles GET /api/export.csv. Accepts the same query params as
// GET /api/leads and streams the result as a CSV download.
func (h *Handler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := leadFilterFromQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	leads, err := h.store.GetLeads(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to fetch leads: %v", err))
		return
	}

	filename := fmt.Sprintf("leads_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := services.ExportLeadsCSV(w, leads); err != nil {
		// Headers are already out; all we can do is log.
		log.Printf("ERROR: failed to write CSV export: %v", err)
	}
}

// RunScrape handles POST /api/admin/scrape. The pipeline runs synchronously
// and the response carries the per-source results.
func (h *Handler) RunScrape(w http.ResponseWriter, r *http.Request) {
	var req models.ScrapeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	opts := services.PipelineOptions{
		Query:    req.Query,
		MaxLeads: req.MaxLeads,
		Enrich:   req.Enrich,
	}
	for _, name := range req.Sources {
		src, err := models.ParseAdSource(name)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Sources = append(opts.Sources, src)
	}
	if req.Since != "" {
		since, err := time.Parse("2006-01-02", req.Since)
		if err != nil {
			respondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid since date %q, expected YYYY-MM-DD", req.Since))
			return
		}
		opts.Since = since
	}

	report, err := h.pipeline.Run(r.Context(), opts)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError,
			fmt.Sprintf("Scrape run failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
