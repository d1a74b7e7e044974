package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoAudio             = errors.New("no audio recording")
	ErrNoSpeech            = errors.New("no speech detected")
	ErrBusy                = errors.New("storage busy")
)

// AudioError reports an audio insert that failed after the note row was
// already committed. The note remains retrievable; callers may retry just
// the audio step using NoteID.
type AudioError struct {
	NoteID int64
	Err    error
}

func (e *AudioError) Error() string {
	return fmt.Sprintf("audio save failed for note %d: %v", e.NoteID, e.Err)
}

func (e *AudioError) Unwrap() error { return e.Err }
