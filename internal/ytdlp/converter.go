// Package ytdlp converts yt-dlp live-chat JSONL dumps, both the live capture
// and the post-hoc download. Each line wraps a replayChatItemAction whose
// nested renderers carry the actual event; rich text is encoded as run lists.
package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/emoteset"
	"github.com/kyabatsu/chat-renderer/internal/jsonl"
)

var (
	amountPattern   = regexp.MustCompile(`[\d,.]+`)
	currencyStrip   = regexp.MustCompile(`[\d,.\s]+`)
	badgeSanitizer  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	customIDPrefix  = "UC"
	standardIDRunes = 4
)

// Converter maps yt-dlp replay actions onto unified messages. The live and
// post-hoc variants differ only in where the video offset lives, so both
// format tags route here.
type Converter struct {
	emotes *emoteset.Set
}

func New(emotes *emoteset.Set) *Converter {
	return &Converter{emotes: emotes}
}

func (c *Converter) Convert(path string) ([]core.UnifiedMessage, error) {
	var out []core.UnifiedMessage
	err := jsonl.ForEach(path, func(line []byte) bool {
		var obj map[string]any
		if !jsonl.Decode(line, &obj) {
			return true
		}
		if msg, ok := c.convertAction(obj); ok {
			out = append(out, msg)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// convertAction handles one outer replay action. The first recognized item
// wins; any further items in the same action are ignored.
func (c *Converter) convertAction(obj map[string]any) (core.UnifiedMessage, bool) {
	replay := digMap(obj, "replayChatItemAction")
	if replay == nil {
		return core.UnifiedMessage{}, false
	}
	actions, _ := replay["actions"].([]any)
	if len(actions) == 0 {
		return core.UnifiedMessage{}, false
	}

	// Live captures keep the offset at the root; post-hoc downloads nest it
	// inside the action.
	ts := offsetMsec(obj["videoOffsetTimeMsec"])
	if ts == 0 {
		ts = offsetMsec(replay["videoOffsetTimeMsec"])
	}

	for _, raw := range actions {
		action, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		item := digMap(action, "addChatItemAction", "item")
		if item == nil {
			continue
		}
		if renderer := digMap(item, "liveChatTextMessageRenderer"); renderer != nil {
			return c.convertText(renderer, ts), true
		}
		if renderer := digMap(item, "liveChatMembershipItemRenderer"); renderer != nil {
			return c.convertMembership(renderer, ts), true
		}
		if renderer := digMap(item, "liveChatPaidMessageRenderer"); renderer != nil {
			return c.convertSuperchat(renderer, ts), true
		}
	}
	return core.UnifiedMessage{}, false
}

func (c *Converter) convertText(renderer map[string]any, ts int64) core.UnifiedMessage {
	raw, segments := c.parseRuns(runsOf(renderer, "message"))
	return core.UnifiedMessage{
		ID:          stringField(renderer, "id"),
		TimestampMS: ts,
		Type:        core.TypeChat,
		Author:      authorOf(renderer, true),
		Content:     core.Content{Raw: raw, Segments: segments},
	}
}

func (c *Converter) convertMembership(renderer map[string]any, ts int64) core.UnifiedMessage {
	header := joinRunsText(runsOf(renderer, "headerSubtext"))
	return core.UnifiedMessage{
		ID:          stringField(renderer, "id"),
		TimestampMS: ts,
		Type:        core.TypeMembership,
		Author:      authorOf(renderer, false),
		Content: core.Content{
			Raw:      header,
			Segments: []core.Segment{core.TextSegment(header)},
		},
		// Gift memberships are not distinguished by this renderer; only
		// non-gift events are produced.
		Membership: &core.MembershipData{IsGift: false},
	}
}

func (c *Converter) convertSuperchat(renderer map[string]any, ts int64) core.UnifiedMessage {
	raw, segments := c.parseRuns(runsOf(renderer, "message"))
	amountText := simpleText(renderer, "purchaseAmountText")
	amount, currency := ParseAmount(amountText)
	return core.UnifiedMessage{
		ID:          stringField(renderer, "id"),
		TimestampMS: ts,
		Type:        core.TypeSuperchat,
		Author:      authorOf(renderer, false),
		Content:     core.Content{Raw: raw, Segments: segments},
		Superchat:   &core.SuperchatData{Amount: amount, Currency: currency},
	}
}

// ParseAmount extracts the numeric value and currency token from a localized
// purchase string such as "$5.00" or "¥1,500". Without a numeric run the
// amount is 0; without a remainder the currency defaults to "$".
func ParseAmount(text string) (float64, string) {
	amount := 0.0
	if m := amountPattern.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64); err == nil {
			amount = v
		}
	}
	currency := strings.TrimSpace(currencyStrip.ReplaceAllString(text, ""))
	if currency == "" {
		currency = "$"
	}
	return amount, currency
}

// parseRuns flattens a run list into raw text and segments. Standard emoji
// pass through as literal text; custom channel emoji become emoji segments
// with a ":shortcut:" raw fallback; anything ambiguous degrades to text.
func (c *Converter) parseRuns(runs []any) (string, []core.Segment) {
	var raw strings.Builder
	var segments []core.Segment

	for _, r := range runs {
		run, ok := r.(map[string]any)
		if !ok {
			continue
		}

		if text, ok := run["text"].(string); ok {
			raw.WriteString(text)
			segments = append(segments, core.TextSegment(text))
			continue
		}

		emoji := digMap(run, "emoji")
		if emoji == nil {
			continue
		}
		emojiID, _ := emoji["emojiId"].(string)
		name := "emoji"
		if shortcuts, ok := emoji["shortcuts"].([]any); ok && len(shortcuts) > 0 {
			if s, ok := shortcuts[0].(string); ok {
				name = strings.Trim(s, ":")
			}
		}

		isStandard := utf8.RuneCountInString(emojiID) <= standardIDRunes ||
			!strings.HasPrefix(emojiID, customIDPrefix)
		isCustom, _ := emoji["isCustomEmoji"].(bool)

		switch {
		case isStandard && !isCustom:
			// Unicode emoji: emojiId is the literal character.
			raw.WriteString(emojiID)
			segments = append(segments, core.TextSegment(emojiID))
		case isCustom:
			raw.WriteString(":" + name + ":")
			segments = append(segments, core.EmojiSegment(emojiID, name))
		default:
			raw.WriteString(":" + name + ":")
			segments = append(segments, core.TextSegment(":"+name+":"))
		}
	}

	return raw.String(), segments
}

func authorOf(renderer map[string]any, withBadges bool) core.Author {
	author := core.Author{
		ID:   stringField(renderer, "authorExternalChannelId"),
		Name: strings.TrimLeft(simpleText(renderer, "authorName"), "@"),
	}
	if withBadges {
		author.Badges = badgeFiles(renderer)
	}
	return author
}

// badgeFiles synthesizes yt_{tooltip}.png names; badges without a tooltip
// are skipped and an empty result stays nil.
func badgeFiles(renderer map[string]any) []string {
	rawBadges, _ := renderer["authorBadges"].([]any)
	var out []string
	for _, raw := range rawBadges {
		badge, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		inner := digMap(badge, "liveChatAuthorBadgeRenderer")
		if inner == nil {
			continue
		}
		tooltip, _ := inner["tooltip"].(string)
		if tooltip == "" {
			continue
		}
		sanitized := badgeSanitizer.ReplaceAllString(strings.ToLower(tooltip), "_")
		out = append(out, "yt_"+sanitized+".png")
	}
	return out
}

func offsetMsec(v any) int64 {
	switch t := v.(type) {
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	case float64:
		return int64(t)
	}
	return 0
}

func runsOf(renderer map[string]any, key string) []any {
	nested := digMap(renderer, key)
	if nested == nil {
		return nil
	}
	runs, _ := nested["runs"].([]any)
	return runs
}

func joinRunsText(runs []any) string {
	var b strings.Builder
	for _, r := range runs {
		if run, ok := r.(map[string]any); ok {
			if text, ok := run["text"].(string); ok {
				b.WriteString(text)
			}
		}
	}
	return b.String()
}

func simpleText(m map[string]any, key string) string {
	if nested, ok := m[key].(map[string]any); ok {
		if s, ok := nested["simpleText"].(string); ok {
			return s
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func digMap(m map[string]any, keys ...string) map[string]any {
	current := m
	for _, key := range keys {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}
