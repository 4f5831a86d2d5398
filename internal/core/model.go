package core

// MessageType classifies a unified chat event.
type MessageType string

const (
	TypeChat       MessageType = "chat"
	TypeSuperchat  MessageType = "superchat"
	TypeBits       MessageType = "bits"
	TypeMembership MessageType = "membership"
	TypeGift       MessageType = "gift"
	TypeDeleted    MessageType = "deleted"
)

// UnifiedMessage is the single output shape every source format is mapped onto.
// TimestampMS is relative to stream/video start, not wall clock; it is only
// comparable within one converted file. At most one of Superchat, Bits and
// Membership is populated, keyed by Type.
type UnifiedMessage struct {
	ID          string          `json:"id"`
	TimestampMS int64           `json:"timestamp_ms"`
	Type        MessageType     `json:"type"`
	Author      Author          `json:"author"`
	Content     Content         `json:"content"`
	Superchat   *SuperchatData  `json:"superchat,omitempty"`
	Bits        *BitsData       `json:"bits,omitempty"`
	Membership  *MembershipData `json:"membership,omitempty"`
}

// Author identifies the sender. Badges holds badge image filenames and is nil
// (omitted on serialization) when the sender has none; converters must never
// emit an empty list. Color is reserved and currently never populated.
type Author struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Color  string   `json:"color,omitempty"`
	Badges []string `json:"badges,omitempty"`
}

// Content is the message body: the flattened plain-text rendering plus the
// ordered rich segments it was reconstructed from.
type Content struct {
	Raw      string    `json:"raw"`
	Segments []Segment `json:"segments"`
}

// Segment is one atomic unit of rendered content, either literal text
// (Type "text", Value set) or an emote reference (Type "emoji", ID and Name
// set). Unused fields are omitted on serialization.
type Segment struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
}

// TextSegment builds a literal text segment.
func TextSegment(value string) Segment {
	return Segment{Type: "text", Value: value}
}

// EmojiSegment builds an emote reference segment.
func EmojiSegment(id, name string) Segment {
	return Segment{Type: "emoji", ID: id, Name: name}
}

// SuperchatData carries the paid-message payload. Currency is a best-effort
// short code or symbol parsed from a localized amount string. Tier is
// reserved.
type SuperchatData struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Tier     int     `json:"tier,omitempty"`
}

// BitsData carries the cheer payload. Tier is reserved.
type BitsData struct {
	Amount int `json:"amount"`
	Tier   int `json:"tier,omitempty"`
}

// MembershipData carries the membership payload. Fields other than IsGift are
// omitted when the source format does not supply them.
type MembershipData struct {
	Tier      string `json:"tier,omitempty"`
	Months    int    `json:"months,omitempty"`
	IsGift    bool   `json:"isGift"`
	GiftCount int    `json:"giftCount,omitempty"`
}
