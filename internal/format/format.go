// Package format sniffs chat dump files to determine which capture tool
// produced them.
package format

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
)

// Format tags one of the supported chat dump layouts.
type Format string

const (
	// TwitchDownloader is a single JSON document with a FileInfo block and a
	// comments array.
	TwitchDownloader Format = "twitch_downloader"
	// ChatDownloader is newline-delimited JSON with client_nonce and
	// message_id keys per record.
	ChatDownloader Format = "chat_downloader"
	// YTDLPLive is yt-dlp's live chat JSONL: replayChatItemAction records
	// with the video offset at the root.
	YTDLPLive Format = "ytdlp_live"
	// YTDLPPostHoc is yt-dlp's after-the-fact chat JSONL: the video offset
	// lives inside replayChatItemAction.
	YTDLPPostHoc Format = "ytdlp_posthoc"
	// Unknown means the file could not be classified.
	Unknown Format = "unknown"
)

func (f Format) String() string { return string(f) }

// maxLineBytes bounds a single JSONL record during detection. Real dumps stay
// well under this; anything longer is treated as unclassifiable.
const maxLineBytes = 16 << 20

// Detect classifies a chat dump by peeking at its structure. It never returns
// an error: unreadable or malformed files classify as Unknown.
func Detect(path string) Format {
	data, err := os.ReadFile(path)
	if err != nil {
		return Unknown
	}
	return DetectBytes(data)
}

// DetectBytes classifies already-loaded file content.
func DetectBytes(data []byte) Format {
	// A fully parseable document with FileInfo + comments is TwitchDownloader.
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err == nil {
		if _, hasInfo := doc["FileInfo"]; hasInfo {
			if _, hasComments := doc["comments"]; hasComments {
				return TwitchDownloader
			}
		}
	}

	line, ok := firstNonEmptyLine(data)
	if !ok {
		return Unknown
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal([]byte(line), &first); err != nil {
		return Unknown
	}

	if _, hasNonce := first["client_nonce"]; hasNonce {
		if _, hasMsgID := first["message_id"]; hasMsgID {
			return ChatDownloader
		}
	}

	if _, hasReplay := first["replayChatItemAction"]; hasReplay {
		// Live dumps carry isLive or the video offset at the root; post-hoc
		// dumps nest the offset inside the action.
		if _, hasLive := first["isLive"]; hasLive {
			return YTDLPLive
		}
		if _, hasOffset := first["videoOffsetTimeMsec"]; hasOffset {
			return YTDLPLive
		}
		return YTDLPPostHoc
	}

	return Unknown
}

func firstNonEmptyLine(data []byte) (string, bool) {
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}
