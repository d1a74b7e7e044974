package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ashwell/soapnote/internal/apperr"
	"github.com/ashwell/soapnote/internal/language"
	"github.com/ashwell/soapnote/internal/notedb"
	"github.com/ashwell/soapnote/internal/noteservice"
	"github.com/go-chi/chi/v5"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID extracts and parses the {id} URL parameter.
func noteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNoAudio):
		writeJSON(w, http.StatusNotFound, errorBody("no audio recording"))
	case errors.Is(err, apperr.ErrUnsupportedLanguage):
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported language"))
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoSpeech):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("no speech detected"))
	case errors.Is(err, apperr.ErrBusy):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("storage busy"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note by classifying encounter text
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Language == "" {
		req.Language = language.Default
	}
	note, err := h.svc.CreateNoteFromText(r.Context(), noteservice.CreateParams{
		Text:          req.Text,
		PatientID:     req.PatientID,
		PhysicianName: req.PhysicianName,
		Language:      req.Language,
	})
	if err != nil {
		writeError(w, err, "create note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// SearchNotes handles GET /api/notes.
//
//	@Summary		Search notes by patient, physician, and date range
//	@Tags			notes
//	@Produce		json
//	@Param			patient_id		query		string	false	"Patient identifier"
//	@Param			physician_name	query		string	false	"Physician name"
//	@Param			from			query		string	false	"Earliest timestamp (RFC 3339)"
//	@Param			to				query		string	false	"Latest timestamp (RFC 3339)"
//	@Param			limit			query		int		false	"Max results"
//	@Success		200				{object}	NoteListResponse
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := notedb.Filter{
		PatientID:     q.Get("patient_id"),
		PhysicianName: q.Get("physician_name"),
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid 'from' timestamp"))
			return
		}
		f.Start = ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid 'to' timestamp"))
			return
		}
		f.End = ts
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid 'limit'"))
			return
		}
		f.Limit = n
	}

	notes, err := h.svc.SearchNotes(r.Context(), f)
	if err != nil {
		writeError(w, err, "search notes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": notes,
		"total": len(notes),
	})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, err, "get note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Document handles GET /api/notes/{id}/document: the formatted clinical
// document as plain text.
//
//	@Summary		Render a note as a formatted clinical document
//	@Tags			notes
//	@Produce		plain
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/document [get]
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, err, "render document")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(note.Note().GenerateNote()))
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and its recording
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := noteID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeError(w, err, "delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statistics handles GET /api/statistics.
//
//	@Summary		Aggregate counters over the note store
//	@Tags			statistics
//	@Produce		json
//	@Success		200	{object}	StatisticsResponse
//	@Security		BearerAuth
//	@Router			/statistics [get]
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		writeError(w, err, "statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
