// Package model defines the core content-unit data types.
package model

import (
	"fmt"
	"regexp"
)

// MaxSummaryLen is the longest summary a unit may declare.
const MaxSummaryLen = 1024

// idPattern is the accepted shape of a unit id.
var idPattern = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)

// ValidID reports whether id is a well-formed unit id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Level is a disclosure level. Levels are ordered: loading a level
// implies every lower level is already available.
type Level int

const (
	Level1 Level = 1 // metadata and quick start
	Level2 Level = 2 // core instructions
	Level3 Level = 3 // deep resources
)

// Levels lists every disclosure level in ascending order.
var Levels = []Level{Level1, Level2, Level3}

// Valid reports whether l is one of the three disclosure levels.
func (l Level) Valid() bool {
	return l >= Level1 && l <= Level3
}

func (l Level) String() string {
	return fmt.Sprintf("level%d", int(l))
}

// ParseLevel converts a 1..3 integer into a Level.
func ParseLevel(n int) (Level, error) {
	l := Level(n)
	if !l.Valid() {
		return 0, fmt.Errorf("invalid level %d (valid: 1, 2, 3)", n)
	}
	return l, nil
}

// Status is the load status of a single unit within a session.
// Status only moves forward.
type Status int

const (
	NotLoaded Status = iota
	Level1Loaded
	Level2Loaded
	Level3Loaded
)

// StatusFor returns the status reached once level l has been loaded.
func StatusFor(l Level) Status {
	if !l.Valid() {
		return NotLoaded
	}
	return Status(l)
}

func (s Status) String() string {
	switch s {
	case Level1Loaded:
		return "level1"
	case Level2Loaded:
		return "level2"
	case Level3Loaded:
		return "level3"
	default:
		return "not_loaded"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LevelSource says where the content of one disclosure level lives.
// A zero LevelSource means the level is absent.
type LevelSource struct {
	// Path is the file holding the level's content.
	Path string `json:"path,omitempty"`
	// Section is the "## Level N" section to extract from Path. Zero
	// means the whole file body is the level.
	Section int `json:"section,omitempty"`
}

// Absent reports whether the level has no content source.
func (s LevelSource) Absent() bool {
	return s.Path == ""
}

// Unit is one loadable skill document.
type Unit struct {
	ID             string         `json:"id"`
	Summary        string         `json:"summary"`
	Category       string         `json:"category"`
	Tags           []string       `json:"tags,omitempty"`
	Dependencies   []string       `json:"dependencies,omitempty"`
	Levels         [3]LevelSource `json:"levels"`
	DeclaredTokens [3]int         `json:"declared_tokens"`
	Dir            string         `json:"dir"`
	Path           string         `json:"path"`
}

// Source returns the content source for level l.
func (u Unit) Source(l Level) LevelSource {
	if !l.Valid() {
		return LevelSource{}
	}
	return u.Levels[l-1]
}

// Declared returns the declared token cost for level l, or 0 when the
// unit did not declare one.
func (u Unit) Declared(l Level) int {
	if !l.Valid() {
		return 0
	}
	return u.DeclaredTokens[l-1]
}

// HasTag reports whether the unit carries tag (tags are stored lowercase).
func (u Unit) HasTag(tag string) bool {
	for _, t := range u.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ResolvedSet is the ordered, de-duplicated list of unit ids produced
// from a directive, together with the requested disclosure level.
type ResolvedSet struct {
	IDs   []string `json:"ids"`
	Level Level    `json:"level"`
}

// Len returns the number of ids in the set.
func (s ResolvedSet) Len() int {
	return len(s.IDs)
}

// Contains reports whether id is part of the set.
func (s ResolvedSet) Contains(id string) bool {
	for _, x := range s.IDs {
		if x == id {
			return true
		}
	}
	return false
}

// Dedupe returns ids with duplicates removed, keeping the first
// occurrence of each.
func Dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
