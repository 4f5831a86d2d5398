package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEligible(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/drop/vod.json", true},
		{"/drop/live.jsonl", true},
		{"/drop/stream.live_chat.json", true},
		{"/drop/vod.json.archive", false},
		{"/drop/vod.json.archive.2", false},
		{"/drop/.vod.json.swp", false},
		{"/drop/notes.txt", false},
		{"/drop/vod", false},
	}
	for _, tc := range cases {
		if got := Eligible(tc.path); got != tc.want {
			t.Errorf("Eligible(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestRunPicksUpDroppedFile(t *testing.T) {
	dir := t.TempDir()

	got := make(chan string, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(ctx, Options{Dir: dir, Debounce: 50 * time.Millisecond}, func(path string) {
			got <- path
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "dump.json")
	if err := os.WriteFile(path, []byte(`{"x":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-got:
		if p != path {
			t.Fatalf("handler got %q, want %q", p, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("handler never invoked")
	}

	select {
	case p := <-got:
		t.Fatalf("unexpected extra handler call for %q", p)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	<-done
}
