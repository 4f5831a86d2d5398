package httpapi

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseFiltersDefaults(t *testing.T) {
	f, err := ParseFilters(url.Values{})
	if err != nil {
		t.Fatalf("ParseFilters() error = %v", err)
	}
	if f.Limit != defaultLimit {
		t.Fatalf("limit = %d, want %d", f.Limit, defaultLimit)
	}
	if f.FromMS != nil || f.ToMS != nil || f.Types != nil {
		t.Fatalf("expected empty filters, got %+v", f)
	}
}

func TestParseFiltersFull(t *testing.T) {
	f, err := ParseFilters(url.Values{
		"from_ms": {"1000"},
		"to_ms":   {"2000"},
		"type":    {"chat,superchat", "chat"},
		"limit":   {"50"},
	})
	if err != nil {
		t.Fatalf("ParseFilters() error = %v", err)
	}
	if f.FromMS == nil || *f.FromMS != 1000 {
		t.Fatalf("from_ms = %v", f.FromMS)
	}
	if f.ToMS == nil || *f.ToMS != 2000 {
		t.Fatalf("to_ms = %v", f.ToMS)
	}
	if !reflect.DeepEqual(f.Types, []string{"chat", "superchat"}) {
		t.Fatalf("types = %v (duplicates should collapse)", f.Types)
	}
	if f.Limit != 50 {
		t.Fatalf("limit = %d", f.Limit)
	}
}

func TestParseFiltersLimitCap(t *testing.T) {
	f, err := ParseFilters(url.Values{"limit": {"999999"}})
	if err != nil {
		t.Fatalf("ParseFilters() error = %v", err)
	}
	if f.Limit != maxLimit {
		t.Fatalf("limit = %d, want cap %d", f.Limit, maxLimit)
	}
}

func TestParseFiltersErrors(t *testing.T) {
	cases := []url.Values{
		{"limit": {"0"}},
		{"limit": {"abc"}},
		{"from_ms": {"x"}},
		{"to_ms": {"x"}},
		{"type": {"raid"}},
	}
	for _, values := range cases {
		if _, err := ParseFilters(values); err == nil {
			t.Fatalf("ParseFilters(%v) expected error", values)
		}
	}
}
