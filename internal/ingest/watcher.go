package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a transcript must be quiet before it is
// processed. Copies into the inbox fire a Create followed by one or more
// Writes; acting on the last event avoids reading half-written files.
const settleDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the inbox root and ingests
// transcript files until ctx is cancelled. The outcome directories are
// not watched.
func (g *Ingestor) Watch(ctx context.Context, inboxRoot string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(inboxRoot); err != nil {
		return err
	}

	g.logger.Info("ingest: watching inbox", slog.String("root", inboxRoot))

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settleDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			g.logger.Info("ingest: watcher stopped")
			return nil

		case <-settleCh:
			for rel := range pending {
				delete(pending, rel)
				g.Process(ctx, rel)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".txt") {
				continue
			}
			rel, relErr := filepath.Rel(inboxRoot, ev.Name)
			if relErr != nil || skipPath(rel) {
				continue
			}
			pending[rel] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			g.logger.Error("ingest: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
