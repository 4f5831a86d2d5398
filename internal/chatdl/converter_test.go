package chatdl

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/emoteset"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

const kappaLine = `{"client_nonce":"n1","message_id":"m1","timestamp":5000,"message":"Kappa hello","author":{"id":"u1","name":"viewer","display_name":"Viewer","badges":[{"name":"moderator","version":"1"},{"name":"partner"}]},"emotes":[{"id":"e1","name":"Kappa","locations":["0-4"]}]}`

func TestSegmentReconstructionAllowed(t *testing.T) {
	path := writeLines(t, kappaLine)
	msgs, err := New(emoteset.New([]string{"e1"})).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	want := []core.Segment{
		core.EmojiSegment("e1", "Kappa"),
		core.TextSegment(" hello"),
	}
	if !reflect.DeepEqual(msgs[0].Content.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", msgs[0].Content.Segments, want)
	}
}

func TestSegmentReconstructionFiltered(t *testing.T) {
	path := writeLines(t, kappaLine)
	msgs, err := New(emoteset.New([]string{"other"})).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := []core.Segment{
		core.TextSegment(":Kappa:"),
		core.TextSegment(" hello"),
	}
	if !reflect.DeepEqual(msgs[0].Content.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", msgs[0].Content.Segments, want)
	}
}

func TestNoAllowListPassesEverything(t *testing.T) {
	path := writeLines(t, kappaLine)
	msgs, err := New(nil).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if msgs[0].Content.Segments[0].Type != "emoji" {
		t.Fatalf("first segment = %+v, want emoji", msgs[0].Content.Segments[0])
	}
}

func TestRecordFields(t *testing.T) {
	path := writeLines(t, kappaLine)
	msgs, err := New(nil).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	msg := msgs[0]
	if msg.ID != "m1" {
		t.Fatalf("id = %q, want m1", msg.ID)
	}
	if msg.TimestampMS != 5000 {
		t.Fatalf("timestamp = %d, want 5000", msg.TimestampMS)
	}
	if msg.Type != core.TypeChat {
		t.Fatalf("type = %q, want chat", msg.Type)
	}
	if msg.Author.Name != "Viewer" {
		t.Fatalf("name = %q, want Viewer", msg.Author.Name)
	}
	wantBadges := []string{"moderator_1.png", "partner_1.png"}
	if !reflect.DeepEqual(msg.Author.Badges, wantBadges) {
		t.Fatalf("badges = %v, want %v", msg.Author.Badges, wantBadges)
	}
}

func TestPlainTextSingleSegment(t *testing.T) {
	path := writeLines(t, `{"message_id":"m2","timestamp":1,"message":"just text","author":{"id":"u"},"emotes":[]}`)
	msgs, err := New(nil).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := []core.Segment{core.TextSegment("just text")}
	if !reflect.DeepEqual(msgs[0].Content.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", msgs[0].Content.Segments, want)
	}
}

func TestEmptyTextNoSegments(t *testing.T) {
	path := writeLines(t, `{"message_id":"m3","timestamp":1,"message":"","author":{"id":"u"}}`)
	msgs, err := New(nil).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(msgs[0].Content.Segments) != 0 {
		t.Fatalf("segments = %+v, want none", msgs[0].Content.Segments)
	}
}

func TestMultipleLocationsAndTrailingText(t *testing.T) {
	line := `{"message_id":"m4","timestamp":1,"message":"Kappa and Kappa !","author":{"id":"u"},"emotes":[{"id":"e1","name":"Kappa","locations":["0-4","10-14"]}]}`
	path := writeLines(t, line)
	msgs, err := New(nil).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := []core.Segment{
		core.EmojiSegment("e1", "Kappa"),
		core.TextSegment(" and "),
		core.EmojiSegment("e1", "Kappa"),
		core.TextSegment(" !"),
	}
	if !reflect.DeepEqual(msgs[0].Content.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", msgs[0].Content.Segments, want)
	}
}

func TestRuneOffsets(t *testing.T) {
	// Offsets count code points; the multibyte char before the emote must not
	// shift the range.
	line := `{"message_id":"m5","timestamp":1,"message":"é Kappa","author":{"id":"u"},"emotes":[{"id":"e1","name":"Kappa","locations":["2-6"]}]}`
	path := writeLines(t, line)
	msgs, err := New(nil).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := []core.Segment{
		core.TextSegment("é "),
		core.EmojiSegment("e1", "Kappa"),
	}
	if !reflect.DeepEqual(msgs[0].Content.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", msgs[0].Content.Segments, want)
	}
}

func TestMalformedLineSkipped(t *testing.T) {
	path := writeLines(t,
		kappaLine,
		`{"this line is broken`,
		`{"message_id":"m6","timestamp":2,"message":"ok","author":{"id":"u"}}`,
	)
	msgs, err := New(nil).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (malformed line skipped)", len(msgs))
	}
}
