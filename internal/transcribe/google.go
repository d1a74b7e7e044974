package transcribe

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/ashwell/soapnote/internal/apperr"
	"github.com/ashwell/soapnote/internal/language"
)

// GoogleSpeech implements Provider using the Google Cloud Speech-to-Text API.
type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

// NewGoogleSpeech creates a client with LINEAR16 / 16 kHz defaults, matching
// the wav container the recorder produces.
func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("transcribe: new client: %w", err)
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: 16000,
	}, nil
}

// Close releases the underlying gRPC client.
func (g *GoogleSpeech) Close() error { return g.c.Close() }

// Transcribe recognizes audio in the given language and returns the highest
// confidence transcript.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	if !language.IsSupported(lang) {
		return "", fmt.Errorf("transcribe: %w: %s", apperr.ErrUnsupportedLanguage, lang)
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               lang,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: recognize: %w", err)
	}

	text := bestTranscript(resp.Results)
	if text == "" {
		return "", fmt.Errorf("transcribe: %w", apperr.ErrNoSpeech)
	}
	return text, nil
}

func bestTranscript(results []*speechpb.SpeechRecognitionResult) string {
	var bestText string
	var bestConf float32
	for _, r := range results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && alt.Confidence >= bestConf {
				bestText = alt.Transcript
				bestConf = alt.Confidence
			}
		}
	}
	return bestText
}
