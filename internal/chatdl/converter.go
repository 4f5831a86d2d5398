// Package chatdl converts chat_downloader JSONL dumps. Rich text arrives as
// plain message text plus emote descriptors that reference it by inclusive
// character-offset ranges.
package chatdl

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/emoteset"
	"github.com/kyabatsu/chat-renderer/internal/jsonl"
)

type record struct {
	MessageID string  `json:"message_id"`
	Timestamp float64 `json:"timestamp"`
	Message   string  `json:"message"`
	Author    author  `json:"author"`
	Emotes    []emote `json:"emotes"`
}

type author struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Badges      []badge `json:"badges"`
}

type badge struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type emote struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Locations []string `json:"locations"`
}

var locationPattern = regexp.MustCompile(`^(\d+)-(\d+)`)

// Converter maps chat_downloader records onto unified messages.
type Converter struct {
	emotes *emoteset.Set
}

func New(emotes *emoteset.Set) *Converter {
	return &Converter{emotes: emotes}
}

func (c *Converter) Convert(path string) ([]core.UnifiedMessage, error) {
	var out []core.UnifiedMessage
	err := jsonl.ForEach(path, func(line []byte) bool {
		var rec record
		if !jsonl.Decode(line, &rec) {
			return true
		}
		out = append(out, c.convertRecord(rec))
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Converter) convertRecord(rec record) core.UnifiedMessage {
	var badges []string
	for _, b := range rec.Author.Badges {
		version := b.Version
		if version == "" {
			version = "1"
		}
		badges = append(badges, b.Name+"_"+version+".png")
	}

	name := rec.Author.DisplayName
	if name == "" {
		name = rec.Author.Name
	}

	return core.UnifiedMessage{
		ID:          rec.MessageID,
		TimestampMS: int64(rec.Timestamp),
		// Bits and membership detection is not available in this format's
		// records; everything classifies as chat.
		Type: core.TypeChat,
		Author: core.Author{
			ID:     rec.Author.ID,
			Name:   name,
			Badges: badges,
		},
		Content: core.Content{
			Raw:      rec.Message,
			Segments: c.parseOverlay(rec.Message, rec.Emotes),
		},
	}
}

type emoteRange struct {
	start int
	end   int // exclusive
	id    string
	name  string
}

// parseOverlay rebuilds segments by walking the text left to right and
// splicing in emote ranges. Ranges are processed in ascending start order;
// overlapping or contained ranges are taken as-is, so malformed input yields
// duplicated output rather than a silent fix.
func (c *Converter) parseOverlay(text string, emotes []emote) []core.Segment {
	if len(emotes) == 0 {
		if text == "" {
			return nil
		}
		return []core.Segment{core.TextSegment(text)}
	}

	var ranges []emoteRange
	for _, e := range emotes {
		for _, loc := range e.Locations {
			m := locationPattern.FindStringSubmatch(loc)
			if m == nil {
				continue
			}
			start, _ := strconv.Atoi(m[1])
			end, _ := strconv.Atoi(m[2])
			ranges = append(ranges, emoteRange{start: start, end: end + 1, id: e.ID, name: e.Name})
		}
	}
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })

	// Offsets index code points, not bytes.
	runes := []rune(text)
	var segments []core.Segment
	pos := 0

	for _, r := range ranges {
		start := clamp(r.start, len(runes))
		if pos < start {
			segments = append(segments, core.TextSegment(string(runes[pos:start])))
		}
		if c.emotes.Allows(r.id) {
			segments = append(segments, core.EmojiSegment(r.id, r.name))
		} else {
			segments = append(segments, core.TextSegment(":"+r.name+":"))
		}
		pos = clamp(r.end, len(runes))
	}

	if pos < len(runes) {
		segments = append(segments, core.TextSegment(string(runes[pos:])))
	}
	return segments
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	if n < 0 {
		return 0
	}
	return n
}
