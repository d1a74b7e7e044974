// Package ingest turns transcript files dropped into an inbox directory
// into persisted clinical notes.
//
// Transcripts are plain-text files named
//
//	<patientID>__<physicianName>__<language>.txt
//
// A recording with the same stem and a .wav extension is attached to the
// note when present. Successfully ingested files move to processed/,
// files with malformed names or failing validation move to rejected/.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ashwell/soapnote/internal/apperr"
	"github.com/ashwell/soapnote/internal/checksum"
	"github.com/ashwell/soapnote/internal/models"
	"github.com/ashwell/soapnote/internal/noteservice"
	"github.com/ashwell/soapnote/internal/storage"
)

const (
	processedDir = "processed"
	rejectedDir  = "rejected"
)

// Ingestor processes inbox transcript files through the note service.
type Ingestor struct {
	store  storage.Provider
	svc    *noteservice.Service
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{} // checksums of already-ingested transcripts
}

// New creates an Ingestor over the given inbox provider.
func New(store storage.Provider, svc *noteservice.Service, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:  store,
		svc:    svc,
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// inboxName holds the fields encoded in a transcript file name.
type inboxName struct {
	PatientID     string
	PhysicianName string
	Language      string
}

// parseInboxName splits "<patient>__<physician>__<language>.txt" into its
// fields. Single underscores inside a field are preserved verbatim.
func parseInboxName(name string) (inboxName, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "__")
	if len(parts) != 3 {
		return inboxName{}, fmt.Errorf("ingest: %w: file name %q must be <patient>__<physician>__<language>", apperr.ErrValidation, filepath.Base(name))
	}
	n := inboxName{
		PatientID:     strings.TrimSpace(parts[0]),
		PhysicianName: strings.TrimSpace(parts[1]),
		Language:      strings.TrimSpace(parts[2]),
	}
	if n.PatientID == "" || n.PhysicianName == "" || n.Language == "" {
		return inboxName{}, fmt.Errorf("ingest: %w: file name %q has an empty field", apperr.ErrValidation, filepath.Base(name))
	}
	return n, nil
}

// Sweep processes every transcript currently in the inbox. Called once at
// startup before watching begins.
func (g *Ingestor) Sweep(ctx context.Context) error {
	metas, err := g.store.List("")
	if err != nil {
		return err
	}
	for _, m := range metas {
		if skipPath(m.Path) || !strings.EqualFold(filepath.Ext(m.Path), ".txt") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Process(ctx, m.Path)
	}
	return nil
}

// skipPath reports whether a relative inbox path lies under one of the
// outcome directories.
func skipPath(rel string) bool {
	rel = filepath.ToSlash(rel)
	return strings.HasPrefix(rel, processedDir+"/") || strings.HasPrefix(rel, rejectedDir+"/")
}

// Process ingests a single transcript file. Outcomes are logged, not
// returned: the inbox loop must keep running whatever a single file does.
func (g *Ingestor) Process(ctx context.Context, rel string) {
	text, err := g.store.Read(rel)
	if err != nil {
		g.logger.Warn("ingest: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}

	cs := checksum.Sum(text)
	g.mu.Lock()
	_, dup := g.seen[cs]
	g.mu.Unlock()
	if dup {
		g.logger.Info("ingest: duplicate transcript", slog.String("path", rel))
		g.reject(rel)
		return
	}

	name, err := parseInboxName(rel)
	if err != nil {
		g.logger.Warn("ingest: bad file name", slog.String("path", rel), slog.String("error", err.Error()))
		g.reject(rel)
		return
	}

	wavRel := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".wav"
	audio, audioErr := g.store.Read(wavRel)
	if audioErr != nil {
		audio = nil
	}

	note, err := g.svc.CreateNoteFromText(ctx, noteservice.CreateParams{
		Text:          string(text),
		PatientID:     name.PatientID,
		PhysicianName: name.PhysicianName,
		Language:      name.Language,
		Audio:         audio,
		AudioFormat:   models.DefaultAudioFormat,
	})
	var audioFailure *apperr.AudioError
	if err != nil && !errors.As(err, &audioFailure) {
		g.logger.Warn("ingest: create note failed", slog.String("path", rel), slog.String("error", err.Error()))
		g.reject(rel)
		return
	}
	if audioFailure != nil {
		g.logger.Warn("ingest: note saved without audio",
			slog.Int64("note_id", audioFailure.NoteID),
			slog.String("path", rel),
			slog.String("error", audioFailure.Error()))
	}

	g.mu.Lock()
	g.seen[cs] = struct{}{}
	g.mu.Unlock()

	g.finish(rel, processedDir)
	if audio != nil {
		g.finish(wavRel, processedDir)
	}
	g.logger.Info("ingest: note created",
		slog.Int64("note_id", note.NoteID),
		slog.String("patient_id", name.PatientID),
		slog.String("path", rel))
}

func (g *Ingestor) reject(rel string) {
	g.finish(rel, rejectedDir)
}

func (g *Ingestor) finish(rel, dir string) {
	dst := filepath.ToSlash(filepath.Join(dir, filepath.Base(rel)))
	if err := g.store.Move(rel, dst); err != nil {
		g.logger.Warn("ingest: move failed",
			slog.String("path", rel),
			slog.String("dest", dst),
			slog.String("error", err.Error()))
	}
}
