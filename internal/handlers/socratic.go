package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"clarify/internal/contextutil"
	"clarify/internal/service"
	"clarify/internal/socratic"
)

// SocraticHandler handles HTTP requests for Socratic questions.
type SocraticHandler struct {
	socraticService service.SocraticService
}

// NewSocraticHandler creates a new SocraticHandler.
func NewSocraticHandler(socraticService service.SocraticService) *SocraticHandler {
	return &SocraticHandler{
		socraticService: socraticService,
	}
}

// SocraticResponse is the body of a successful POST /api/socratic.
type SocraticResponse struct {
	Questions  []string `json:"questions"`
	BlindSpots []string `json:"blindSpots,omitempty"`
}

// ServeHTTP generates questions about the posted entry.
func (h *SocraticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req socratic.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.socraticService.Generate(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Content must be at least 20 characters")
		case errors.Is(err, service.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "AI features not configured. Add LLM_API_KEY to enable.")
		default:
			logger.ErrorContext(ctx, "socratic request failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to generate questions")
		}
		return
	}

	writeJSON(w, ctx, http.StatusOK, SocraticResponse{
		Questions:  resp.Questions,
		BlindSpots: resp.BlindSpots,
	})
}
