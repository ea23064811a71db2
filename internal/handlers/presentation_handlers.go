package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"presentation-coach/internal/llm"
	"presentation-coach/internal/models"
	"presentation-coach/internal/services"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

// PresentationHandler handles the REST surface for presentations.
type PresentationHandler struct {
	store    *services.PresentationStore
	analyzer llm.Analyzer
	activity *services.ActivityService
	logger   *log.Logger
}

// NewPresentationHandler creates a new presentation handler. The activity
// service may be nil.
func NewPresentationHandler(store *services.PresentationStore, analyzer llm.Analyzer, activity *services.ActivityService, logger *log.Logger) *PresentationHandler {
	return &PresentationHandler{
		store:    store,
		analyzer: analyzer,
		activity: activity,
		logger:   logger.With("component", "api"),
	}
}

// CreatePresentationRequest is the body for creating a presentation.
type CreatePresentationRequest struct {
	Title  string         `json:"title"`
	Slides []models.Slide `json:"slides"`
}

// AnalyzeResponse is the success payload of the analyze endpoint.
type AnalyzeResponse struct {
	Message      string               `json:"message"`
	Presentation *models.Presentation `json:"presentation"`
}

// CreatePresentation creates a new presentation.
// POST /api/presentations
func (h *PresentationHandler) CreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req CreatePresentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "title and slides[] are required")
		return
	}
	if req.Title == "" || req.Slides == nil {
		respondError(w, http.StatusBadRequest, "title and slides[] are required")
		return
	}

	pres := h.store.Create(req.Title, req.Slides)
	if h.activity != nil {
		h.activity.Record(pres.ID, models.EventCreated, pres.Title)
	}
	respondJSON(w, http.StatusCreated, pres)
}

// ListPresentations returns all presentations.
// GET /api/presentations
func (h *PresentationHandler) ListPresentations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.List())
}

// GetPresentation returns one presentation by id.
// GET /api/presentations/{id}
func (h *PresentationHandler) GetPresentation(w http.ResponseWriter, r *http.Request) {
	id, ok := presentationID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	pres, err := h.store.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}
	respondJSON(w, http.StatusOK, pres)
}

// AnalyzePresentation runs the coaching analysis and stores the result.
// POST /api/presentations/{id}/analyze
func (h *PresentationHandler) AnalyzePresentation(w http.ResponseWriter, r *http.Request) {
	id, ok := presentationID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	pres, err := h.store.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	entries, err := h.analyzer.Analyze(r.Context(), pres.Slides)
	if err != nil {
		var invalid *llm.InvalidJSONError
		if errors.As(err, &invalid) {
			respondJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "AI returned invalid JSON.",
				"raw":   invalid.Raw,
			})
			return
		}
		h.logger.Error("analysis failed", "id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to analyze presentation")
		return
	}

	updated, err := h.store.SetAnalysis(id, entries)
	if err != nil {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}
	if h.activity != nil {
		h.activity.Record(id, models.EventAnalyzed, strconv.Itoa(len(entries))+" entries")
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Message:      "Analysis complete",
		Presentation: updated,
	})
}

// UpdatePresentation shallow-merges the request body into the stored
// presentation, including wholesale replacement of the analysis.
// PUT /api/presentations/{id}
func (h *PresentationHandler) UpdatePresentation(w http.ResponseWriter, r *http.Request) {
	id, ok := presentationID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	updated, err := h.store.Update(id, body)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Not found")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// GetActivity returns recent activity events for a presentation.
// GET /api/presentations/{id}/activity?limit=N
func (h *PresentationHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := presentationID(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}
	if _, err := h.store.Get(id); err != nil {
		respondError(w, http.StatusNotFound, "Not found")
		return
	}

	if h.activity == nil {
		respondJSON(w, http.StatusOK, []models.ActivityEvent{})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.activity.Recent(id, limit)
	if err != nil {
		h.logger.Error("failed to read activity", "id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to read activity")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// presentationID pulls the numeric id from the route. A non-numeric id is
// treated as unknown, the same as a missing one.
func presentationID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
