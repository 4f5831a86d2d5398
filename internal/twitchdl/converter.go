// Package twitchdl converts TwitchDownloader chat exports: one JSON document
// holding a comments array, with rich text encoded as fragment lists.
package twitchdl

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/emoteset"
)

type document struct {
	Comments []comment `json:"comments"`
}

type comment struct {
	ID                   string    `json:"_id"`
	ContentOffsetSeconds float64   `json:"content_offset_seconds"`
	Commenter            commenter `json:"commenter"`
	Message              message   `json:"message"`
}

type commenter struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type message struct {
	Body       string     `json:"body"`
	BitsSpent  int        `json:"bits_spent"`
	UserBadges []badge    `json:"user_badges"`
	Fragments  []fragment `json:"fragments"`
}

type badge struct {
	ID      string `json:"_id"`
	Version string `json:"version"`
}

type fragment struct {
	Text     string    `json:"text"`
	Emoticon *emoticon `json:"emoticon"`
}

type emoticon struct {
	EmoticonID string `json:"emoticon_id"`
}

// Converter maps TwitchDownloader comments onto unified messages.
type Converter struct {
	emotes *emoteset.Set
}

func New(emotes *emoteset.Set) *Converter {
	return &Converter{emotes: emotes}
}

func (c *Converter) Convert(path string) ([]core.UnifiedMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read twitch downloader dump")
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse twitch downloader dump")
	}

	var out []core.UnifiedMessage
	for _, cm := range doc.Comments {
		out = append(out, c.convertComment(cm))
	}
	return out, nil
}

func (c *Converter) convertComment(cm comment) core.UnifiedMessage {
	var badges []string
	for _, b := range cm.Message.UserBadges {
		version := b.Version
		if version == "" {
			version = "1"
		}
		badges = append(badges, b.ID+"_"+version+".png")
	}

	name := cm.Commenter.DisplayName
	if name == "" {
		name = cm.Commenter.Name
	}

	msg := core.UnifiedMessage{
		ID:          cm.ID,
		TimestampMS: int64(cm.ContentOffsetSeconds * 1000),
		Type:        core.TypeChat,
		Author: core.Author{
			ID:     cm.Commenter.ID,
			Name:   name,
			Badges: badges,
		},
		Content: core.Content{
			Raw:      cm.Message.Body,
			Segments: c.parseFragments(cm.Message.Fragments),
		},
	}

	if cm.Message.BitsSpent > 0 {
		msg.Type = core.TypeBits
		msg.Bits = &core.BitsData{Amount: cm.Message.BitsSpent}
	}

	return msg
}

// parseFragments flattens a fragment list into segments. Emote fragments
// outside the channel allow-list degrade to ":name:" text.
func (c *Converter) parseFragments(fragments []fragment) []core.Segment {
	var segments []core.Segment
	for _, frag := range fragments {
		if frag.Emoticon != nil && frag.Emoticon.EmoticonID != "" {
			name := strings.TrimSpace(frag.Text)
			if c.emotes.Allows(frag.Emoticon.EmoticonID) {
				segments = append(segments, core.EmojiSegment(frag.Emoticon.EmoticonID, name))
			} else {
				segments = append(segments, core.TextSegment(":"+name+":"))
			}
			continue
		}
		if frag.Text != "" {
			segments = append(segments, core.TextSegment(frag.Text))
		}
	}
	return segments
}
