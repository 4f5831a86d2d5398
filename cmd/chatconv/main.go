package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	pkgerrors "github.com/pkg/errors"

	"github.com/kyabatsu/chat-renderer/internal/config"
	"github.com/kyabatsu/chat-renderer/internal/convert"
	"github.com/kyabatsu/chat-renderer/internal/emoteset"
	"github.com/kyabatsu/chat-renderer/internal/format"
	"github.com/kyabatsu/chat-renderer/internal/sink"
	"github.com/kyabatsu/chat-renderer/internal/version"
	"github.com/kyabatsu/chat-renderer/internal/watch"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		versionFlag bool
		emotesPath  string
		dryRun      bool
		noArchive   bool
		dbPath      string
		watchDir    string
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.StringVar(&emotesPath, "channel-emotes", "", "Path to JSON array of channel emote names to keep as emoji segments")
	flag.BoolVar(&dryRun, "dry-run", false, "Detect and convert without writing any output")
	flag.BoolVar(&noArchive, "no-archive", false, "Overwrite the input in place instead of keeping a .archive copy")
	flag.StringVar(&dbPath, "sqlite", "", "Also export converted messages to this SQLite database")
	flag.StringVar(&watchDir, "watch", "", "Watch a drop directory and convert files as they appear")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"chatconv version: %s (commit %s, built %s)\n",
			version.Version,
			version.Commit,
			version.BuildTime,
		)
		os.Exit(0)
	}

	overrides := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		overrides[f.Name] = true
	})

	cfg := config.Load()
	if overrides["channel-emotes"] {
		cfg.EmotesPath = strings.TrimSpace(emotesPath)
	}
	if overrides["no-archive"] {
		cfg.Archive = !noArchive
	}
	if overrides["sqlite"] {
		cfg.Sink.SQLitePath = strings.TrimSpace(dbPath)
	}
	if overrides["watch"] {
		cfg.Watch.Dir = strings.TrimSpace(watchDir)
	}

	var emotes *emoteset.Set
	if cfg.EmotesPath != "" {
		var err error
		emotes, err = emoteset.LoadFile(cfg.EmotesPath)
		if err != nil {
			log.Fatalf("chatconv: channel emotes: %v", err)
		}
		log.Printf("chatconv: loaded %d channel emotes from %s", emotes.Len(), cfg.EmotesPath)
	}

	registry := convert.NewRegistry(emotes)

	var writer sink.Writer
	var closers []func() error
	if cfg.Sink.SQLitePath != "" && !dryRun {
		db, err := sink.OpenSQLite(cfg.Sink.SQLitePath)
		if err != nil {
			log.Fatalf("chatconv: open sqlite: %v", err)
		}
		closers = append(closers, db.Close)
		writer = db
		if cfg.Batch() > 1 || cfg.FlushInterval() > 0 {
			buffered := sink.NewBufferedWriter(db, sink.BufferedOptions{
				BatchSize:     cfg.Batch(),
				FlushInterval: cfg.FlushInterval(),
			})
			closers = append([]func() error{buffered.Close}, closers...)
			writer = buffered
		}
	}
	closeSinks := func() {
		for _, close := range closers {
			if err := close(); err != nil {
				log.Printf("chatconv: close sink: %v", err)
			}
		}
	}

	runner := &runner{
		registry: registry,
		writer:   writer,
		dryRun:   dryRun,
		archive:  cfg.Archive,
	}

	if cfg.Watch.Dir != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			log.Printf("chatconv: received %s, shutting down", sig)
			cancel()
		}()

		err := watch.Run(ctx, watch.Options{
			Dir:        cfg.Watch.Dir,
			RatePerSec: cfg.Watch.RatePerSec,
			Burst:      cfg.Watch.Burst,
			Debounce:   cfg.WatchDebounce(),
		}, runner.handleDrop)
		closeSinks()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("chatconv: watch: %v", err)
		}
		return
	}

	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: chatconv [flags] <dump.json|dump.jsonl> ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	failed := 0
	for _, path := range inputs {
		if err := runner.convert(path); err != nil {
			log.Printf("chatconv: %s: %v", path, err)
			failed++
		}
	}
	closeSinks()
	if failed > 0 {
		os.Exit(1)
	}
}

type runner struct {
	registry convert.Registry
	writer   sink.Writer
	dryRun   bool
	archive  bool
}

// handleDrop is the watch-mode callback. Converted output re-detects as
// unknown, so files already in the unified shape are skipped quietly.
func (r *runner) handleDrop(path string) {
	if format.Detect(path) == format.Unknown {
		return
	}
	if err := r.convert(path); err != nil {
		log.Printf("chatconv: %s: %v", path, err)
	}
}

func (r *runner) convert(path string) error {
	res, err := r.registry.ConvertFile(path)
	if err != nil {
		return err
	}
	log.Printf("chatconv: %s: format=%s messages=%d", path, res.SourceFormat, len(res.Messages))

	if r.writer != nil {
		for _, msg := range res.Messages {
			if err := r.writer.Write(res.SourceFormat, msg); err != nil {
				return pkgerrors.Wrap(err, "sqlite export")
			}
		}
	}

	if r.dryRun {
		if len(res.Messages) > 0 {
			sample, err := json.Marshal(res.Messages[0])
			if err == nil {
				log.Printf("chatconv: first message: %s", sample)
			}
		}
		return nil
	}

	if r.archive {
		archived, err := archiveOriginal(path)
		if err != nil {
			return err
		}
		log.Printf("chatconv: archived original to %s", archived)
	}
	return writeDocument(path, res.Document())
}

// archiveOriginal renames path to path.archive, probing .archive.1,
// .archive.2, ... when earlier runs already claimed the name.
func archiveOriginal(path string) (string, error) {
	candidate := path + ".archive"
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			break
		}
		candidate = path + ".archive." + strconv.Itoa(n)
	}
	if err := os.Rename(path, candidate); err != nil {
		return "", pkgerrors.Wrap(err, "archive original")
	}
	return candidate, nil
}

func writeDocument(path string, doc convert.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrap(err, "create output")
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return pkgerrors.Wrap(err, "encode output")
	}
	return pkgerrors.Wrap(f.Close(), "close output")
}
