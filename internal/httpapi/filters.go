package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kyabatsu/chat-renderer/internal/sink"
)

const (
	defaultLimit = 100
	maxLimit     = 10000
)

var validTypes = map[string]struct{}{
	"chat":       {},
	"superchat":  {},
	"bits":       {},
	"membership": {},
	"gift":       {},
	"deleted":    {},
}

// ParseFilters parses query parameters into sink filters. Timestamps are
// milliseconds relative to stream start, matching the stored messages.
func ParseFilters(values url.Values) (sink.Filters, error) {
	f := sink.Filters{Limit: defaultLimit}

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return sink.Filters{}, errors.New("limit must be a positive integer")
		}
		if n > maxLimit {
			n = maxLimit
		}
		f.Limit = n
	}

	if raw := values.Get("from_ms"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sink.Filters{}, errors.New("from_ms must be an integer")
		}
		f.FromMS = &n
	}

	if raw := values.Get("to_ms"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sink.Filters{}, errors.New("to_ms must be an integer")
		}
		f.ToMS = &n
	}

	if rawTypes := values["type"]; len(rawTypes) > 0 {
		seen := make(map[string]struct{})
		for _, raw := range rawTypes {
			for _, part := range strings.Split(raw, ",") {
				part = strings.ToLower(strings.TrimSpace(part))
				if part == "" {
					continue
				}
				if _, ok := validTypes[part]; !ok {
					return sink.Filters{}, errors.New("invalid type filter")
				}
				if _, dup := seen[part]; !dup {
					f.Types = append(f.Types, part)
					seen[part] = struct{}{}
				}
			}
		}
	}

	return f, nil
}

// FiltersFromRequest parses filters from an HTTP request.
func FiltersFromRequest(r *http.Request) (sink.Filters, error) {
	return ParseFilters(r.URL.Query())
}
