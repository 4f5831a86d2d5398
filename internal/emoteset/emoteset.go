// Package emoteset holds the channel-emote allow-list used to decide whether
// an emote reference is rendered as an image segment or degraded to text.
package emoteset

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Set is an immutable collection of emote ids. A nil or empty Set allows
// every emote.
type Set struct {
	ids map[string]struct{}
}

// New builds a Set from a list of emote ids.
func New(ids []string) *Set {
	s := &Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
	return s
}

// LoadFile reads a JSON array of emote-id strings.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read emote list")
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, errors.Wrap(err, "parse emote list")
	}
	return New(ids), nil
}

// Allows reports whether an emote id should render as an image. With no
// filter configured every id is allowed.
func (s *Set) Allows(id string) bool {
	if s == nil || len(s.ids) == 0 {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}
