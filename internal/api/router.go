package api

import (
	"net/http"

	"github.com/ashwell/soapnote/internal/noteservice"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/voice", h.CreateVoiceNote)
	r.Get("/notes", h.SearchNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Get("/notes/{id}/document", h.Document)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Audio recordings.
	r.Post("/notes/{id}/audio", h.AttachAudio)
	r.Get("/notes/{id}/audio", h.GetAudio)

	// Statistics.
	r.Get("/statistics", h.Statistics)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
