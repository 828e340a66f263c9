package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	errs "github.com/matzehuels/comboom/pkg/errors"
)

// reloadDelay coalesces the burst of events an editor save produces.
var reloadDelay = 200 * time.Millisecond

// Watch calls fn with the freshly loaded config every time path changes. It
// watches the parent directory so that editors which replace the file on save
// are seen too. Files that fail to load or validate are logged and skipped;
// fn only ever sees valid configs.
//
// Watch blocks until ctx is done. fn runs on the watching goroutine.
func Watch(ctx context.Context, path string, logger *log.Logger, fn func(Config)) error {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "resolve %s", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "create watcher")
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errs.Wrap(errs.ErrCodeFileNotFound, err, "watch %s", filepath.Dir(abs))
	}
	logger.Debug("watching config", "path", abs)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("config reload rejected", "path", abs, "error", errs.UserMessage(err))
				continue
			}
			logger.Info("config reloaded", "path", abs)
			fn(cfg)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
