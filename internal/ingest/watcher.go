// Package ingest discovers case folders on disk and feeds them to the
// compile queue.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/expedientix/edn-core/constants"
)

// WatchConfig configures the case-folder watcher. Each direct subdirectory
// of Root is one case; its name is the case id.
type WatchConfig struct {
	Root        string
	InitialScan bool          // if true, emit existing case folders at start
	Debounce    time.Duration // coalesce per-folder file-event bursts
}

// StartWatcher watches Root and emits a case-folder path whenever files in
// it settle. The channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, nil, errors.New("watch root is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	evCh := make(chan string, 64)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	// watch existing case folders, optionally emitting them
	dirents, err := os.ReadDir(cfg.Root)
	if err != nil {
		_ = w.Close()
		return nil, nil, err
	}
	for _, d := range dirents {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		folder := filepath.Join(cfg.Root, d.Name())
		if err := w.Add(folder); err != nil {
			logger.Warn("failed to watch case folder", "folder", folder, "error", err)
			continue
		}
		if cfg.InitialScan {
			select {
			case evCh <- folder:
			default:
			}
		}
	}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			_ = w.Close()
		}()

		// the timer only fires into this loop, so pending needs no locking
		timer := time.NewTimer(cfg.Debounce)
		if !timer.Stop() {
			<-timer.C
		}
		pending := map[string]struct{}{}

		sendPending := func() {
			for folder := range pending {
				select {
				case evCh <- folder:
				default:
					logger.Warn("event channel full, dropping case folder event", "folder", folder)
				}
				delete(pending, folder)
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				sendPending()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("failed to watch new case folder", "folder", e.Name, "error", err)
						}
					}
				}
				folder, ok := caseFolderFor(cfg.Root, e.Name)
				if !ok || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[folder] = struct{}{}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(cfg.Debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// caseFolderFor resolves an event path to the case folder it belongs to:
// the first path element under root. Hidden entries and files with
// disallowed extensions are ignored.
func caseFolderFor(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) == 0 || strings.HasPrefix(parts[0], ".") {
		return "", false
	}
	if len(parts) > 1 {
		base := parts[len(parts)-1]
		if strings.HasPrefix(base, ".") {
			return "", false
		}
		ext := constants.NormalizeExt(filepath.Ext(base))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return "", false
		}
	}
	return filepath.Join(root, parts[0]), true
}
