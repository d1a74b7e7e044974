package api

import (
	"github.com/ashwell/soapnote/internal/models"
)

// CreateNoteRequest is the request body for creating a note from text.
type CreateNoteRequest struct {
	PatientID     string `json:"patient_id" example:"PT-48291" validate:"required"`
	PhysicianName string `json:"physician_name" example:"Dr. Chen" validate:"required"`
	Language      string `json:"language" example:"en-US"`
	Text          string `json:"text" example:"Patient complains of headache." validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = models.StoredNote

// NoteListResponse wraps note search results.
type NoteListResponse struct {
	Notes []*NoteDetail `json:"notes" validate:"required"`
	Total int           `json:"total" example:"12" validate:"required"`
}

// StatisticsResponse is the aggregate counters payload (aliased from the
// domain layer).
type StatisticsResponse = models.Statistics
