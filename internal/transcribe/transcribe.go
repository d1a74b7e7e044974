// Package transcribe defines the speech-to-text collaborator boundary.
// The core never retries transcription; provider errors propagate so
// orchestration can skip classification when no text was produced.
package transcribe

import "context"

// Provider converts recorded audio into transcript text for a given
// dictation language.
type Provider interface {
	// Transcribe returns the transcript for audio. An empty recognition
	// result yields apperr.ErrNoSpeech; an unknown language yields
	// apperr.ErrUnsupportedLanguage.
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
	Close() error
}
