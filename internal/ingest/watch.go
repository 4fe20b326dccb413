package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default quiet window before a change
// triggers a re-run. Editors fire bursts of events per save.
const DefaultDebounce = 500 * time.Millisecond

// Watch re-runs the pipeline whenever the corpus directory changes.
// It blocks until ctx is cancelled. Failed runs are logged and the
// watch continues; content hashing makes the retried work cheap.
func (p *Pipeline) Watch(ctx context.Context, corpusDir string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(corpusDir); err != nil {
		return err
	}
	p.logger.Info("watching corpus", "dir", corpusDir, "debounce", debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			p.logger.Debug("corpus changed", "file", event.Name, "op", event.Op.String())
			// Restart the quiet window on every relevant event.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("corpus watch error", "error", err)

		case <-timer.C:
			report, err := p.Run(ctx, corpusDir)
			if err != nil {
				p.logger.Error("watch-triggered ingestion failed", "error", err)
				continue
			}
			p.logger.Info("watch-triggered ingestion finished", "report", report.String())
		}
	}
}

// relevantEvent filters noise: only writes, creates, renames and
// removals of .txt files or the manifest matter.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return name == ManifestName || strings.EqualFold(filepath.Ext(name), ".txt")
}
