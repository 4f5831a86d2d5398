// Package jsonl iterates newline-delimited JSON files.
package jsonl

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// maxLineBytes bounds one record. Chat dump lines are far smaller.
const maxLineBytes = 16 << 20

// ForEach decodes each non-empty line of the file into v and invokes fn.
// Lines that fail to decode are skipped silently; only opening or scanning
// the file itself can fail.
func ForEach(path string, decode func(line []byte) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open jsonl")
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if len(trimSpace(line)) == 0 {
			continue
		}
		if !decode(line) {
			break
		}
	}
	return errors.Wrap(sc.Err(), "scan jsonl")
}

// Decode unmarshals a line into v, reporting success. Malformed lines return
// false so callers can skip them without surfacing an error.
func Decode(line []byte, v any) bool {
	return json.Unmarshal(line, v) == nil
}

func trimSpace(b []byte) []byte {
	start := 0
	for start < len(b) && isSpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
