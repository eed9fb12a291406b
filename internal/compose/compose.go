// Package compose checks that a resolved set of units can be loaded
// together: no id collisions and no dependency cycles.
package compose

import (
	"fmt"
	"strings"

	"github.com/rcliao/skill-loader/internal/model"
)

// ErrorKind classifies a composition failure.
type ErrorKind string

const (
	IDCollision        ErrorKind = "id_collision"
	CircularDependency ErrorKind = "circular_dependency"
)

// Error is returned by Validate when a set cannot be composed.
type Error struct {
	Kind ErrorKind
	// Path lists the colliding ids, or the dependency cycle starting and
	// ending with the same id.
	Path []string
}

func (e *Error) Error() string {
	switch e.Kind {
	case CircularDependency:
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Path, " → "))
	default:
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(e.Path, ", "))
	}
}

// Catalog looks units up by id. *index.Index satisfies it.
type Catalog interface {
	Lookup(id string) (model.Unit, bool)
}

// Related is a dependency edge leaving the set. Loading To is advised
// but not required.
type Related struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Report carries the advisory findings of a successful validation.
type Report struct {
	Related []Related `json:"related,omitempty"`
	// Missing lists dependency edges whose target is not in the catalog.
	Missing []Related `json:"missing,omitempty"`
}

// Validate checks set against catalog. Ids in the set that the catalog
// does not know are ignored here; resolution reports those.
func Validate(set model.ResolvedSet, catalog Catalog) (*Report, error) {
	if err := checkCollisions(set.IDs); err != nil {
		return nil, err
	}
	if err := checkCycles(set.IDs, catalog); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, id := range set.IDs {
		u, ok := catalog.Lookup(id)
		if !ok {
			continue
		}
		for _, dep := range u.Dependencies {
			switch {
			case set.Contains(dep):
			case !known(catalog, dep):
				report.Missing = append(report.Missing, Related{From: id, To: dep})
			default:
				report.Related = append(report.Related, Related{From: id, To: dep})
			}
		}
	}
	return report, nil
}

func checkCollisions(ids []string) error {
	first := map[string]string{}
	for _, id := range ids {
		key := strings.ToLower(id)
		if prev, ok := first[key]; ok {
			return &Error{Kind: IDCollision, Path: []string{prev, id}}
		}
		first[key] = id
	}
	return nil
}

// checkCycles walks dependencies depth-first from each id in set order.
func checkCycles(ids []string, catalog Catalog) error {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		state[id] = visiting
		stack = append(stack, id)
		u, _ := catalog.Lookup(id)
		for _, dep := range u.Dependencies {
			if !known(catalog, dep) {
				continue
			}
			switch state[dep] {
			case visiting:
				return &Error{Kind: CircularDependency, Path: cyclePath(stack, dep)}
			case done:
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range ids {
		if state[id] == done || !known(catalog, id) {
			continue
		}
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

func cyclePath(stack []string, id string) []string {
	for i, s := range stack {
		if s == id {
			path := append([]string{}, stack[i:]...)
			return append(path, id)
		}
	}
	return []string{id, id}
}

func known(catalog Catalog, id string) bool {
	_, ok := catalog.Lookup(id)
	return ok
}
