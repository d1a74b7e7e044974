// Package noteservice composes transcription, classification, and
// persistence into the note creation and retrieval operations.
package noteservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwell/soapnote/internal/apperr"
	"github.com/ashwell/soapnote/internal/models"
	"github.com/ashwell/soapnote/internal/notedb"
	"github.com/ashwell/soapnote/internal/parser"
	"github.com/ashwell/soapnote/internal/transcribe"
)

// EventCallback is invoked after a store mutation. kind is one of
// "created", "deleted".
type EventCallback func(kind string, noteID int64)

// Service coordinates the classifier, the store, and the optional
// transcription provider.
type Service struct {
	db  notedb.Store
	stt transcribe.Provider // nil when voice input is disabled
	cb  EventCallback
}

// NewService creates a new note service. stt and cb may be nil.
func NewService(db notedb.Store, stt transcribe.Provider, cb EventCallback) *Service {
	return &Service{db: db, stt: stt, cb: cb}
}

// CreateParams describes a text-sourced note. Audio, when present, is the
// original dictation recording to attach.
type CreateParams struct {
	Text          string
	PatientID     string
	PhysicianName string
	Language      string
	Audio         []byte
	AudioFormat   string
}

// VoiceParams describes a voice-sourced note awaiting transcription.
type VoiceParams struct {
	Audio         []byte
	AudioFormat   string
	PatientID     string
	PhysicianName string
	Language      string
}

// CreateNoteFromText classifies encounter text into SOAP sections, builds a
// note, and persists it. When the audio sub-step fails after the note row is
// committed, the stored note is still returned alongside the
// *apperr.AudioError so the caller can retry the audio step.
func (s *Service) CreateNoteFromText(_ context.Context, p CreateParams) (*models.StoredNote, error) {
	note, err := models.NewClinicalNote(p.PatientID, p.PhysicianName, p.Language)
	if err != nil {
		return nil, err
	}

	sections, err := parser.Classify(p.Text, p.Language)
	if err != nil {
		return nil, err
	}
	for _, t := range sections.Subjective {
		note.AddSubjective(t)
	}
	for _, t := range sections.Objective {
		note.AddObjective(t)
	}
	for _, t := range sections.Assessment {
		note.AddAssessment(t)
	}
	for _, t := range sections.Plan {
		note.AddPlan(t)
	}

	id, saveErr := s.db.SaveNote(note, p.Audio, p.AudioFormat)
	var audioErr *apperr.AudioError
	if saveErr != nil && !errors.As(saveErr, &audioErr) {
		return nil, saveErr
	}

	stored, err := s.db.GetNote(id)
	if err != nil {
		return nil, err
	}
	s.emit("created", id)
	return stored, saveErr
}

// CreateNoteFromVoice transcribes audio and delegates to CreateNoteFromText,
// attaching the original recording. Transcription errors (including
// apperr.ErrNoSpeech) propagate without invoking the classifier.
func (s *Service) CreateNoteFromVoice(ctx context.Context, p VoiceParams) (*models.StoredNote, error) {
	if s.stt == nil {
		return nil, fmt.Errorf("noteservice: %w: transcription is not configured", apperr.ErrValidation)
	}
	text, err := s.stt.Transcribe(ctx, p.Audio, p.Language)
	if err != nil {
		return nil, err
	}
	return s.CreateNoteFromText(ctx, CreateParams{
		Text:          text,
		PatientID:     p.PatientID,
		PhysicianName: p.PhysicianName,
		Language:      p.Language,
		Audio:         p.Audio,
		AudioFormat:   p.AudioFormat,
	})
}

// GetNote returns a stored note by id.
func (s *Service) GetNote(_ context.Context, id int64) (*models.StoredNote, error) {
	return s.db.GetNote(id)
}

// SearchNotes returns notes matching the filter, most recent first.
func (s *Service) SearchNotes(_ context.Context, f notedb.Filter) ([]*models.StoredNote, error) {
	return s.db.SearchNotes(f)
}

// DeleteNote removes a note and its recording. Absent ids are a no-op.
func (s *Service) DeleteNote(_ context.Context, id int64) error {
	if err := s.db.DeleteNote(id); err != nil {
		return err
	}
	s.emit("deleted", id)
	return nil
}

// Audio returns the recording attached to a note.
func (s *Service) Audio(_ context.Context, id int64) (*models.AudioRecording, error) {
	return s.db.GetAudio(id)
}

// AttachAudio stores a recording for an existing note.
func (s *Service) AttachAudio(_ context.Context, id int64, data []byte, format string) error {
	return s.db.SaveAudio(id, data, format)
}

// Statistics aggregates counts over the full store.
func (s *Service) Statistics(_ context.Context) (*models.Statistics, error) {
	return s.db.Statistics()
}

func (s *Service) emit(kind string, id int64) {
	if s.cb != nil {
		s.cb(kind, id)
	}
}
