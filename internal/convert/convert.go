// Package convert wires the format sniffer to the per-format converters and
// produces the sorted unified message list.
package convert

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/kyabatsu/chat-renderer/internal/chatdl"
	"github.com/kyabatsu/chat-renderer/internal/core"
	"github.com/kyabatsu/chat-renderer/internal/emoteset"
	"github.com/kyabatsu/chat-renderer/internal/format"
	"github.com/kyabatsu/chat-renderer/internal/twitchdl"
	"github.com/kyabatsu/chat-renderer/internal/ytdlp"
)

var (
	// ErrUnknownFormat means sniffing could not classify the input file.
	ErrUnknownFormat = errors.New("unrecognized chat format")
	// ErrNoConverter means a detected format tag has no registered converter.
	ErrNoConverter = errors.New("no converter registered for format")
)

// Converter turns one source file into unified messages.
type Converter interface {
	Convert(path string) ([]core.UnifiedMessage, error)
}

// Registry is the closed dispatch table keyed by detected format.
type Registry map[format.Format]Converter

// NewRegistry builds the default table. The yt-dlp live and post-hoc tags
// stay distinct so their handling can diverge later, but currently share one
// converter: only the timestamp nesting differs between them.
func NewRegistry(emotes *emoteset.Set) Registry {
	yt := ytdlp.New(emotes)
	return Registry{
		format.TwitchDownloader: twitchdl.New(emotes),
		format.ChatDownloader:   chatdl.New(emotes),
		format.YTDLPLive:        yt,
		format.YTDLPPostHoc:     yt,
	}
}

// Result is one file's conversion output, ready for serialization.
type Result struct {
	SourceFormat format.Format
	SourceFile   string
	Messages     []core.UnifiedMessage
}

// Document is the on-disk shape of a conversion result.
type Document struct {
	Metadata Metadata              `json:"metadata"`
	Messages []core.UnifiedMessage `json:"messages"`
}

type Metadata struct {
	SourceFormat string `json:"source_format"`
	SourceFile   string `json:"source_file"`
	MessageCount int    `json:"message_count"`
}

// Document wraps the result with its metadata block.
func (r *Result) Document() Document {
	msgs := r.Messages
	if msgs == nil {
		msgs = []core.UnifiedMessage{}
	}
	return Document{
		Metadata: Metadata{
			SourceFormat: r.SourceFormat.String(),
			SourceFile:   r.SourceFile,
			MessageCount: len(r.Messages),
		},
		Messages: msgs,
	}
}

// ConvertFile sniffs the file, dispatches to its converter and returns the
// messages sorted by timestamp. The sort is stable, so records with equal
// timestamps keep their source order.
func (r Registry) ConvertFile(path string) (*Result, error) {
	tag := format.Detect(path)
	if tag == format.Unknown {
		return nil, errors.Wrap(ErrUnknownFormat, path)
	}

	conv, ok := r[tag]
	if !ok {
		return nil, errors.Wrap(ErrNoConverter, tag.String())
	}

	msgs, err := conv.Convert(path)
	if err != nil {
		return nil, errors.Wrapf(err, "convert %s as %s", path, tag)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].TimestampMS < msgs[j].TimestampMS
	})

	return &Result{
		SourceFormat: tag,
		SourceFile:   filepath.Base(path),
		Messages:     msgs,
	}, nil
}
