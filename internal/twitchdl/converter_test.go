package twitchdl

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/emoteset"
)

const sampleDump = `{
  "FileInfo": {"Version": {"Major": 1}},
  "comments": [
    {
      "_id": "c2",
      "content_offset_seconds": 12.5,
      "commenter": {"_id": "u2", "name": "viewer2", "display_name": "Viewer2"},
      "message": {
        "body": "cheer100 nice",
        "bits_spent": 100,
        "user_badges": [{"_id": "subscriber", "version": "6"}, {"_id": "vip"}],
        "fragments": [{"text": "cheer100 nice"}]
      }
    },
    {
      "_id": "c1",
      "content_offset_seconds": 3.0009,
      "commenter": {"_id": "u1", "name": "viewer1"},
      "message": {
        "body": "hello Kappa world",
        "bits_spent": 0,
        "user_badges": [],
        "fragments": [
          {"text": "hello "},
          {"text": " Kappa ", "emoticon": {"emoticon_id": "25"}},
          {"text": " world"}
        ]
      }
    }
  ]
}`

func convertSample(t *testing.T, emotes *emoteset.Set) []core.UnifiedMessage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.json")
	if err := os.WriteFile(path, []byte(sampleDump), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	msgs, err := New(emotes).Convert(path)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Convert() returned %d messages, want 2", len(msgs))
	}
	return msgs
}

func TestConvertBitsClassification(t *testing.T) {
	msgs := convertSample(t, nil)

	bits := msgs[0]
	if bits.Type != core.TypeBits {
		t.Fatalf("type = %q, want %q", bits.Type, core.TypeBits)
	}
	if bits.Bits == nil || bits.Bits.Amount != 100 {
		t.Fatalf("bits payload = %+v, want amount 100", bits.Bits)
	}
	if bits.TimestampMS != 12500 {
		t.Fatalf("timestamp = %d, want 12500", bits.TimestampMS)
	}

	chat := msgs[1]
	if chat.Type != core.TypeChat {
		t.Fatalf("type = %q, want %q", chat.Type, core.TypeChat)
	}
	if chat.Bits != nil {
		t.Fatalf("chat message should not carry bits payload")
	}
}

func TestTimestampTruncation(t *testing.T) {
	msgs := convertSample(t, nil)
	// 3.0009s * 1000 truncates, never rounds.
	if got := msgs[1].TimestampMS; got != 3000 {
		t.Fatalf("timestamp = %d, want 3000", got)
	}
}

func TestBadgeFilenames(t *testing.T) {
	msgs := convertSample(t, nil)
	want := []string{"subscriber_6.png", "vip_1.png"}
	if !reflect.DeepEqual(msgs[0].Author.Badges, want) {
		t.Fatalf("badges = %v, want %v", msgs[0].Author.Badges, want)
	}
	if msgs[1].Author.Badges != nil {
		t.Fatalf("badges = %v, want nil for badgeless author", msgs[1].Author.Badges)
	}
}

func TestAuthorNameFallback(t *testing.T) {
	msgs := convertSample(t, nil)
	if msgs[0].Author.Name != "Viewer2" {
		t.Fatalf("name = %q, want display name", msgs[0].Author.Name)
	}
	if msgs[1].Author.Name != "viewer1" {
		t.Fatalf("name = %q, want login fallback", msgs[1].Author.Name)
	}
}

func TestFragmentsWithAllowedEmote(t *testing.T) {
	msgs := convertSample(t, emoteset.New([]string{"25"}))
	want := []core.Segment{
		core.TextSegment("hello "),
		core.EmojiSegment("25", "Kappa"),
		core.TextSegment(" world"),
	}
	if !reflect.DeepEqual(msgs[1].Content.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", msgs[1].Content.Segments, want)
	}
}

func TestFragmentsWithFilteredEmote(t *testing.T) {
	msgs := convertSample(t, emoteset.New([]string{"other"}))
	want := []core.Segment{
		core.TextSegment("hello "),
		core.TextSegment(":Kappa:"),
		core.TextSegment(" world"),
	}
	if !reflect.DeepEqual(msgs[1].Content.Segments, want) {
		t.Fatalf("segments = %+v, want %+v", msgs[1].Content.Segments, want)
	}
}

func TestConvertUnreadableFile(t *testing.T) {
	if _, err := New(nil).Convert(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
