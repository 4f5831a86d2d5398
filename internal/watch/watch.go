// Package watch monitors a drop directory and hands newly written chat dumps
// to a conversion handler.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Handler converts one dropped file.
type Handler func(path string)

// Options configures the watcher.
type Options struct {
	Dir string
	// RatePerSec caps conversions per second; 0 disables the limiter.
	RatePerSec float64
	Burst      int
	// Debounce is how long a file must stay quiet before conversion starts,
	// so partially written dumps are not picked up. Defaults to 500ms.
	Debounce time.Duration
}

// Eligible reports whether a dropped filename looks like a chat dump.
// Archived originals and hidden/temp files are skipped.
func Eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.Contains(base, ".archive") {
		return false
	}
	switch filepath.Ext(base) {
	case ".json", ".jsonl":
		return true
	}
	return false
}

// Run watches the directory until the context ends. Events are debounced per
// batch: paths accumulate while events keep arriving and are handed off once
// the directory goes quiet.
func Run(ctx context.Context, opts Options, handle Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer w.Close()

	if err := w.Add(opts.Dir); err != nil {
		return errors.Wrapf(err, "watch %s", opts.Dir)
	}

	debounceFor := opts.Debounce
	if debounceFor <= 0 {
		debounceFor = 500 * time.Millisecond
	}

	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
	)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	slog.Info("watching drop directory", "dir", opts.Dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !Eligible(ev.Name) {
				continue
			}
			mu.Lock()
			pending[ev.Name] = struct{}{}
			mu.Unlock()
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceFor)
		case <-debounce.C:
			mu.Lock()
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			pending = make(map[string]struct{})
			mu.Unlock()

			for _, path := range batch {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return err
					}
				}
				handle(path)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch error", "err", err)
		}
	}
}
