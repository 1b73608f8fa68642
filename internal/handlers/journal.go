package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clarify/internal/contextutil"
	"clarify/internal/journal"
	"clarify/internal/service"
)

// maxImportBytes bounds the size of an uploaded journal snapshot.
const maxImportBytes = 32 << 20

// JournalHandler serves the journal REST API.
type JournalHandler struct {
	journal service.JournalService
	now     func() time.Time
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalService service.JournalService) *JournalHandler {
	return &JournalHandler{
		journal: journalService,
		now:     time.Now,
	}
}

// EntryListResponse is the body of GET /api/journal.
type EntryListResponse struct {
	Entries   []journal.Entry `json:"entries"`
	Recovered bool            `json:"recovered"`
}

// HistoryResponse is the body of GET /api/journal/{id}/history.
type HistoryResponse struct {
	History   []journal.HistoryRecord `json:"history"`
	Recovered bool                    `json:"recovered"`
}

// RelatedResponse is the body of GET /api/journal/{id}/related.
type RelatedResponse struct {
	Related []service.RelatedEntry `json:"related"`
}

// Routes registers the journal endpoints on r.
func (h *JournalHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/history", h.History)
		r.Get("/related", h.Related)
	})
}

// List returns every entry, newest first.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list := h.journal.List(ctx)
	writeJSON(w, ctx, http.StatusOK, EntryListResponse{Entries: list.Entries, Recovered: list.Recovered})
}

// Create stores a new entry.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in journal.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.journal.Create(ctx, in)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create entry")
		return
	}

	w.Header().Set("Location", "/api/journal/"+entry.ID)
	writeJSON(w, ctx, http.StatusCreated, entry)
}

// Get returns a single entry.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, err := h.journal.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load entry")
		return
	}
	writeJSON(w, ctx, http.StatusOK, entry)
}

// Update applies a partial update. Absent fields are left unchanged.
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var patch journal.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.journal.Update(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update entry")
		return
	}
	writeJSON(w, ctx, http.StatusOK, entry)
}

// Delete removes an entry.
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.journal.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History returns the prior versions of an entry, newest first.
func (h *JournalHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	history := h.journal.History(ctx, chi.URLParam(r, "id"))
	writeJSON(w, ctx, http.StatusOK, HistoryResponse{History: history.Records, Recovered: history.Recovered})
}

// Related returns entries similar to the given one. The optional k query
// parameter sets how many.
func (h *JournalHandler) Related(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 50 {
			writeError(w, http.StatusBadRequest, "k must be an integer between 1 and 50")
			return
		}
		k = parsed
	}

	entries, err := h.journal.Related(ctx, chi.URLParam(r, "id"), k)
	if err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "Related entries not configured. Set QDRANT_URL to enable.")
			return
		}
		handleServiceError(w, ctx, err, "Failed to find related entries")
		return
	}
	writeJSON(w, ctx, http.StatusOK, RelatedResponse{Related: entries})
}

// Export downloads the whole journal as a JSON snapshot.
func (h *JournalHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data, err := h.journal.Export(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to export journal")
		return
	}

	filename := fmt.Sprintf("clarify-journal-%s.json", h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import replaces the journal with an uploaded snapshot. The request body is
// the snapshot itself. A rejected snapshot answers 400 with success=false.
func (h *JournalHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Snapshot too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	result, err := h.journal.Import(ctx, blob)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to import journal")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, ctx, status, result)
}
