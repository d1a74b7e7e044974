package internal

import "github.com/ashwell/soapnote/internal/transcribe"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config      *Config
	transcriber transcribe.Provider
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithTranscriber injects a speech-to-text provider, overriding the one
// the transcribe config would build. Used in tests.
func WithTranscriber(p transcribe.Provider) Option {
	return func(a *application) {
		a.transcriber = p
	}
}
