package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"guardian-audit/pkg/logger"
)

// FileHandler processes one file dropped into the watched directory
type FileHandler func(ctx context.Context, filePath string) error

// FileWatcher watches a directory and hands settled files to a handler
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	watchDir string
	pattern  string
	handler  FileHandler
	logger   *logger.Logger
	debounce time.Duration
	settle   time.Duration

	mu         sync.Mutex
	timers     map[string]*time.Timer
	processing map[string]bool
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopChan   chan struct{}
}

// NewFileWatcher creates a watcher on watchDir, creating the directory when
// missing. pattern is "*", "*.ext" or an exact file name.
func NewFileWatcher(watchDir, pattern string, debounce time.Duration, handler FileHandler, log *logger.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	if err := w.Add(watchDir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to add watch directory: %w", err)
	}

	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	fw := &FileWatcher{
		watcher:    w,
		watchDir:   watchDir,
		pattern:    pattern,
		handler:    handler,
		logger:     log.WithComponent("watcher"),
		debounce:   debounce,
		settle:     500 * time.Millisecond,
		timers:     make(map[string]*time.Timer),
		processing: make(map[string]bool),
		stopChan:   make(chan struct{}),
	}

	fw.logger.Info().
		Str("watch_dir", watchDir).
		Str("pattern", pattern).
		Msg("file watcher created")

	return fw, nil
}

// Start runs the event loop in the background. Files already present are
// left alone.
func (fw *FileWatcher) Start(ctx context.Context) {
	fw.logger.Info().Msg("starting file watcher")
	fw.wg.Add(1)
	go func() {
		defer fw.wg.Done()
		fw.eventLoop(ctx)
	}()
}

func (fw *FileWatcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			fw.logger.Info().Msg("file watcher context done")
			return
		case <-fw.stopChan:
			fw.logger.Info().Msg("file watcher stopped")
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				fw.logger.Warn().Msg("watcher events channel closed")
				return
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			fileName := filepath.Base(event.Name)
			if !fw.matchPattern(fileName) {
				continue
			}

			fw.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", fileName).
				Msg("file event detected")

			fw.schedule(ctx, event.Name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				fw.logger.Warn().Msg("watcher errors channel closed")
				return
			}
			fw.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// schedule (re)starts the debounce timer for a file
func (fw *FileWatcher) schedule(ctx context.Context, path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if timer, exists := fw.timers[path]; exists {
		timer.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.timers, path)
		fw.mu.Unlock()
		fw.handleFile(ctx, path)
	})
}

func (fw *FileWatcher) handleFile(ctx context.Context, path string) {
	fw.mu.Lock()
	if fw.processing[path] {
		fw.mu.Unlock()
		fw.logger.Debug().Str("file", path).Msg("file is already being processed")
		return
	}
	fw.processing[path] = true
	fw.mu.Unlock()

	defer func() {
		fw.mu.Lock()
		delete(fw.processing, path)
		fw.mu.Unlock()
	}()

	if err := fw.waitForFileReady(path); err != nil {
		fw.logger.Error().Err(err).Str("file", path).Msg("file not ready")
		return
	}

	fw.logger.Info().Str("file", path).Msg("processing file")

	if err := fw.handler(ctx, path); err != nil {
		fw.logger.Error().Err(err).Str("file", path).Msg("failed to process file")
		return
	}

	fw.logger.Info().Str("file", path).Msg("file processed successfully")
}

// waitForFileReady waits until the file size stops changing
func (fw *FileWatcher) waitForFileReady(path string) error {
	const maxAttempts = 10
	for i := 0; i < maxAttempts; i++ {
		before, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file does not exist")
			}
			time.Sleep(fw.settle)
			continue
		}

		time.Sleep(fw.settle)

		after, err := os.Stat(path)
		if err != nil {
			return err
		}

		if before.Size() == after.Size() && after.Size() > 0 {
			return nil
		}
	}

	return fmt.Errorf("file not ready after %d attempts", maxAttempts)
}

func (fw *FileWatcher) matchPattern(fileName string) bool {
	if fw.pattern == "" || fw.pattern == "*" {
		return true
	}

	if strings.HasPrefix(fw.pattern, "*.") {
		ext := strings.TrimPrefix(fw.pattern, "*")
		return strings.HasSuffix(strings.ToLower(fileName), strings.ToLower(ext))
	}

	return fileName == fw.pattern
}

// Stop stops the watcher and cancels pending debounce timers
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		fw.logger.Info().Msg("stopping file watcher")
		close(fw.stopChan)

		fw.mu.Lock()
		for path, timer := range fw.timers {
			timer.Stop()
			delete(fw.timers, path)
		}
		fw.mu.Unlock()

		fw.wg.Wait()
		err = fw.watcher.Close()
	})
	return err
}

// WatchDir returns the watched directory
func (fw *FileWatcher) WatchDir() string {
	return fw.watchDir
}
