package checklist

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/pkg/logger"
)

// debounce window for editors that emit several write events per save
const reloadDebounce = 500 * time.Millisecond

// Watcher reloads checklist definitions when their content files change on
// disk
type Watcher struct {
	service *Service
	cfg     *config.ChecklistsConfig
	logger  *logger.Logger
}

// NewWatcher creates a definition file watcher
func NewWatcher(service *Service, cfg *config.ChecklistsConfig, logger *logger.Logger) *Watcher {
	return &Watcher{
		service: service,
		cfg:     cfg,
		logger:  logger.Named("checklist-watch"),
	}
}

// Start watches the definition files until the context is cancelled. It
// blocks, so callers normally run it in its own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the parent directories: many editors replace files on save,
	// which drops a watch registered on the file itself
	watched := map[string]bool{
		filepath.Clean(w.cfg.NormalFile):   true,
		filepath.Clean(w.cfg.TrainingFile): true,
	}
	dirs := map[string]bool{}
	for path := range watched {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	w.logger.Info("Watching checklist definition files",
		logger.Int("files", len(watched)),
	)

	var reloadTimer *time.Timer
	reloadCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			})

		case <-reloadCh:
			if err := w.service.Reload(); err != nil {
				// Keep serving the previously loaded definitions
				w.logger.Error("Definition reload failed", logger.Error(err))
				continue
			}
			w.logger.Info("Checklist definitions reloaded from disk")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", logger.Error(err))
		}
	}
}
