package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the CHATCONV_* environment settings. Command line flags, when
// set, override what Load reads here.
type Config struct {
	EmotesPath string
	Archive    bool
	Sink       SinkConfig
	Watch      WatchConfig
	HTTP       HTTPConfig
}

type SinkConfig struct {
	SQLitePath string
	BatchSize  int
	FlushMaxMS int
}

type WatchConfig struct {
	Dir        string
	RatePerSec float64
	Burst      int
	DebounceMS int
}

type HTTPConfig struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        bool
	AccessLog      bool
}

const (
	defaultBatchSize  = 1
	defaultFlushMS    = 0
	defaultDebounceMS = 500
	defaultAddr       = ":8777"
	defaultRPS        = 10.0
	defaultBurst      = 20
)

func Load() Config {
	cfg := Config{}

	cfg.EmotesPath = strings.TrimSpace(os.Getenv("CHATCONV_CHANNEL_EMOTES"))
	cfg.Archive = readBool("CHATCONV_ARCHIVE", true)

	cfg.Sink.SQLitePath = strings.TrimSpace(os.Getenv("CHATCONV_SQLITE_PATH"))
	cfg.Sink.BatchSize = readInt("CHATCONV_SINK_BATCH_SIZE", defaultBatchSize)
	cfg.Sink.FlushMaxMS = readInt("CHATCONV_SINK_FLUSH_MAX_MS", defaultFlushMS)

	cfg.Watch.Dir = strings.TrimSpace(os.Getenv("CHATCONV_WATCH_DIR"))
	cfg.Watch.RatePerSec = readFloat("CHATCONV_WATCH_RATE", 0)
	cfg.Watch.Burst = readInt("CHATCONV_WATCH_BURST", 1)
	cfg.Watch.DebounceMS = readInt("CHATCONV_WATCH_DEBOUNCE_MS", defaultDebounceMS)

	cfg.HTTP.Addr = strings.TrimSpace(os.Getenv("CHATCONV_HTTP_ADDR"))
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = defaultAddr
	}
	cfg.HTTP.RateLimitRPS = readFloat("CHATCONV_HTTP_RPS", defaultRPS)
	cfg.HTTP.RateLimitBurst = readInt("CHATCONV_HTTP_BURST", defaultBurst)
	cfg.HTTP.Metrics = readBool("CHATCONV_HTTP_METRICS", true)
	cfg.HTTP.AccessLog = readBool("CHATCONV_HTTP_ACCESS_LOG", false)

	return cfg
}

func (c Config) FlushInterval() time.Duration {
	if c.Sink.FlushMaxMS <= 0 {
		return 0
	}
	return time.Duration(c.Sink.FlushMaxMS) * time.Millisecond
}

func (c Config) Batch() int {
	if c.Sink.BatchSize <= 0 {
		return defaultBatchSize
	}
	return c.Sink.BatchSize
}

func (c Config) WatchDebounce() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return time.Duration(defaultDebounceMS) * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func readInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n <= 0 {
		return def
	}
	return n
}

func readFloat(name string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	if f < 0 {
		return def
	}
	return f
}

func readBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
