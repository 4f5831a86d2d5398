package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kyabatsu/chat-renderer/internal/config"
	"github.com/kyabatsu/chat-renderer/internal/httpapi"
	"github.com/kyabatsu/chat-renderer/internal/sink"
	"github.com/kyabatsu/chat-renderer/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		versionFlag bool
		addr        string
		dbPath      string
		rateRPS     int
		rateBurst   int
		metrics     bool
		accessLog   bool
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (e.g., :8777)")
	flag.StringVar(&dbPath, "db", "", "SQLite database populated by chatconv")
	flag.IntVar(&rateRPS, "rate-rps", 0, "Maximum HTTP requests per second per client")
	flag.IntVar(&rateBurst, "rate-burst", 0, "Burst size for HTTP rate limiter")
	flag.BoolVar(&metrics, "metrics", true, "Expose Prometheus metrics endpoint")
	flag.BoolVar(&accessLog, "access-log", false, "Log HTTP access records")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"replayd version: %s (commit %s, built %s)\n",
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
	if overrides["addr"] {
		cfg.HTTP.Addr = addr
	}
	if overrides["db"] {
		cfg.Sink.SQLitePath = dbPath
	}
	if overrides["rate-rps"] {
		cfg.HTTP.RateLimitRPS = float64(rateRPS)
	}
	if overrides["rate-burst"] {
		cfg.HTTP.RateLimitBurst = rateBurst
	}
	if overrides["metrics"] {
		cfg.HTTP.Metrics = metrics
	}
	if overrides["access-log"] {
		cfg.HTTP.AccessLog = accessLog
	}

	if cfg.Sink.SQLitePath == "" {
		log.Fatal("replayd: -db (or CHATCONV_SQLITE_PATH) is required")
	}

	db, err := sink.OpenSQLite(cfg.Sink.SQLitePath)
	if err != nil {
		log.Fatalf("replayd: open sqlite: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("replayd: closing db: %v", err)
		}
	}()
	if err := db.Ping(); err != nil {
		log.Fatalf("replayd: ping sqlite: %v", err)
	}

	build := httpapi.BuildInfo{Version: version.Version, Revision: version.Commit}
	if version.BuildTime != "" && version.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, version.BuildTime); err == nil {
			build.BuiltAt = t
		}
	}

	api := httpapi.New(db, httpapi.Options{
		Addr:            cfg.HTTP.Addr,
		RateLimitRPS:    int(cfg.HTTP.RateLimitRPS),
		RateLimitBurst:  cfg.HTTP.RateLimitBurst,
		EnableMetrics:   cfg.HTTP.Metrics,
		EnableAccessLog: cfg.HTTP.AccessLog,
		Build:           build,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("replayd: received %s, shutting down", sig)
		cancel()
	}()

	go func() {
		log.Printf("replayd: listening on %s (db=%s)", cfg.HTTP.Addr, cfg.Sink.SQLitePath)
		if err := api.Start(); err != nil {
			log.Printf("replayd: http api: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Printf("replayd: http api shutdown: %v", err)
	}
	cancelShutdown()
	log.Printf("replayd: shutdown complete")
}
