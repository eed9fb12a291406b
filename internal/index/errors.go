package index

import (
	"fmt"
	"strings"
)

// ErrorKind classifies an index build failure.
type ErrorKind string

// MalformedMetadata is reported when one or more units carry invalid
// front-matter or level sources.
const MalformedMetadata ErrorKind = "malformed_metadata"

// Problem describes why a single unit was rejected.
type Problem struct {
	Path   string `json:"path"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (p Problem) String() string {
	if p.ID != "" {
		return fmt.Sprintf("%s (%s): %s", p.Path, p.ID, p.Reason)
	}
	return fmt.Sprintf("%s: %s", p.Path, p.Reason)
}

// Error enumerates every unit that failed validation during Build.
type Error struct {
	Kind     ErrorKind `json:"kind"`
	Root     string    `json:"root"`
	Problems []Problem `json:"problems"`
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s: %d problem(s) under %s: %s",
		e.Kind, len(e.Problems), e.Root, strings.Join(parts, "; "))
}
