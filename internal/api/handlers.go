// Package api provides HTTP API handlers.
package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/factchecker/veridex/internal/database"
	"github.com/factchecker/veridex/internal/errs"
	"github.com/factchecker/veridex/internal/models"
	"github.com/factchecker/veridex/internal/translate"
	"github.com/factchecker/veridex/internal/verify"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Handler contains all HTTP handlers.
type Handler struct {
	engine     *verify.Engine
	lifecycle  *verify.Lifecycle
	store      database.Store
	translator translate.Translator
}

// NewHandler creates a new handler. The translator may be nil when
// translation is disabled.
func NewHandler(engine *verify.Engine, lifecycle *verify.Lifecycle, store database.Store, translator translate.Translator) *Handler {
	return &Handler{
		engine:     engine,
		lifecycle:  lifecycle,
		store:      store,
		translator: translator,
	}
}

// HealthCheck returns the service health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// SubmitClaim accepts a textual or image claim, runs verification and returns
// the result.
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Text == "" && req.Image == "" {
		writeError(w, http.StatusBadRequest, "Either text or image is required")
		return
	}
	if req.Text != "" && req.Image != "" {
		writeError(w, http.StatusBadRequest, "Provide text or image, not both")
		return
	}
	if !models.ValidCategory(req.Category) {
		writeError(w, http.StatusBadRequest, "Unsupported category")
		return
	}
	language := req.Language
	if language == "" {
		language = "en"
	}

	var (
		claim *models.Claim
		v     *models.Verification
		err   error
	)
	if req.Image != "" {
		imageBytes, decodeErr := base64.StdEncoding.DecodeString(req.Image)
		if decodeErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid image data")
			return
		}
		claim, v, err = h.engine.VerifyImage(r.Context(), imageBytes, req.Category, language)
	} else {
		claim, v, err = h.engine.VerifyText(r.Context(), req.Text, req.Category, language)
	}
	if err != nil {
		log.Error().Err(err).Msg("Claim verification failed")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"claim_id": claim.ID,
		"status":   claim.Status,
		"verification": map[string]interface{}{
			"id":          v.ID,
			"verdict":     v.Verdict,
			"explanation": h.renderExplanation(r, v.Explanation, language),
			"sources":     v.Sources,
			"confidence":  v.ConfidenceScore,
		},
	})
}

// GetClaimResult returns a claim's status and verification, rendering the
// explanation in the requested language when possible.
func (h *Handler) GetClaimResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	language := r.URL.Query().Get("language")
	if language == "" {
		language = "en"
	}

	claim, err := h.store.GetClaim(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get claim")
		writeError(w, http.StatusInternalServerError, "Failed to get claim")
		return
	}
	if claim == nil {
		writeError(w, http.StatusNotFound, "Claim not found")
		return
	}

	v, err := h.store.GetVerificationByClaim(r.Context(), claim.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get verification")
		writeError(w, http.StatusInternalServerError, "Failed to get verification")
		return
	}
	if v == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  claim.Status,
			"message": "Verification in progress",
		})
		return
	}

	rendered := *v
	rendered.Explanation = h.renderExplanation(r, v.Explanation, language)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       claim.Status,
		"verification": rendered,
	})
}

// CreateVerification records a manually produced verification for a claim.
func (h *Handler) CreateVerification(w http.ResponseWriter, r *http.Request) {
	var v models.Verification
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	verifierID := ""
	if key := getAPIKey(r.Context()); key != nil {
		verifierID = key.ID
	}

	created, err := h.lifecycle.Create(r.Context(), &v, verifierID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetVerification returns a verification by ID.
func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	v, err := h.lifecycle.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListVerifications returns paginated recent verifications.
func (h *Handler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)
	results, err := h.lifecycle.Recent(r.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list verifications")
		writeError(w, http.StatusInternalServerError, "Failed to list verifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetStats returns verification statistics grouped by verdict and method.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.lifecycle.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to get stats")
		writeError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UpdateVerification applies a partial update to a verification.
func (h *Handler) UpdateVerification(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	callerID, isAdmin := caller(r)
	v, err := h.lifecycle.Update(r.Context(), chi.URLParam(r, "id"), patch, callerID, isAdmin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVerification removes a verification.
func (h *Handler) DeleteVerification(w http.ResponseWriter, r *http.Request) {
	_, isAdmin := caller(r)
	if err := h.lifecycle.Delete(r.Context(), chi.URLParam(r, "id"), isAdmin); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DisputeVerification raises a dispute against a verification.
func (h *Handler) DisputeVerification(w http.ResponseWriter, r *http.Request) {
	var req models.DisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	v, err := h.lifecycle.Dispute(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ReviewDispute resolves a disputed verification.
func (h *Handler) ReviewDispute(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	callerID, isAdmin := caller(r)
	v, err := h.lifecycle.ReviewDispute(r.Context(), chi.URLParam(r, "id"), req.Outcome, callerID, isAdmin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// renderExplanation translates a canonical explanation for display. Failures
// fall back to the untranslated text and never fail the request.
func (h *Handler) renderExplanation(r *http.Request, text, language string) string {
	if language == "en" || h.translator == nil {
		return text
	}
	translated, err := h.translator.Translate(r.Context(), text, language, "en")
	if err != nil {
		log.Warn().Err(err).Str("language", language).Msg("Translation failed, returning canonical explanation")
		return text
	}
	return translated
}

func caller(r *http.Request) (string, bool) {
	if key := getAPIKey(r.Context()); key != nil {
		return key.ID, key.IsAdmin
	}
	return "", false
}

func pagination(r *http.Request, defaultLimit int) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case errs.NotFound:
		status = http.StatusNotFound
	case errs.Conflict:
		status = http.StatusConflict
	case errs.Unauthorized:
		status = http.StatusForbidden
	case errs.InvalidState:
		status = http.StatusConflict
	case errs.ValidationFailed:
		status = http.StatusBadRequest
	}

	message := err.Error()
	if kind == errs.Internal {
		log.Error().Err(err).Msg("Internal error")
		message = "Internal server error"
	}
	writeError(w, status, message)
}
