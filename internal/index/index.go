// Package index builds the immutable catalog of content units found
// under a content root.
//
// Each unit is a directory containing a SKILL.md document: YAML
// front-matter (name, description, category, tags, dependencies,
// tokens, levels) followed by the unit body. The body is split into
// disclosure levels on "## Level N" headings; a body without level
// headings is level 2 in its entirety. Front-matter may point a level at
// a separate file instead:
//
//	---
//	name: security-auth
//	description: Authentication patterns for services.
//	category: security
//	tags: [auth, oauth]
//	dependencies: [security-secrets]
//	tokens: {level1: 120, level2: 1800}
//	levels: {level3: REFERENCE.md}
//	---
//
// An Index never changes after Build. Refresh returns a new Index.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rcliao/skill-loader/internal/model"
)

// Default scan patterns, relative to the content root.
var (
	DefaultInclude = []string{"**/SKILL.md"}
	DefaultExclude = []string{"**/.*/**", "**/node_modules/**"}
)

// Options configures unit discovery.
type Options struct {
	// Include lists doublestar patterns that select unit documents.
	Include []string
	// Exclude lists doublestar patterns removed from the include set.
	Exclude []string
	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if len(o.Include) == 0 {
		o.Include = DefaultInclude
	}
	if o.Exclude == nil {
		o.Exclude = DefaultExclude
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Index is the catalog of content units. It is safe for concurrent reads.
type Index struct {
	root  string
	opts  Options
	units []model.Unit
	byID  map[string]int
}

// Build scans root and returns a complete index, or an *Error listing
// every unit that failed validation.
func Build(root string, opts Options) (*Index, error) {
	opts = opts.withDefaults()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", root)
	}

	paths, err := scan(root, opts)
	if err != nil {
		return nil, err
	}

	idx := &Index{root: root, opts: opts, byID: make(map[string]int, len(paths))}
	var problems []Problem
	firstPath := map[string]string{}

	for _, rel := range paths {
		u, errs := parseUnit(root, rel)
		for _, reason := range errs {
			problems = append(problems, Problem{Path: rel, ID: u.ID, Reason: reason})
		}
		if len(errs) > 0 {
			continue
		}
		if prev, dup := firstPath[u.ID]; dup {
			problems = append(problems, Problem{Path: rel, ID: u.ID, Reason: "duplicate id (first defined in " + prev + ")"})
			continue
		}
		firstPath[u.ID] = rel
		idx.byID[u.ID] = len(idx.units)
		idx.units = append(idx.units, u)
	}

	if len(problems) > 0 {
		return nil, &Error{Kind: MalformedMetadata, Root: root, Problems: problems}
	}

	opts.Logger.Debug("content index built", "root", root, "units", len(idx.units))
	return idx, nil
}

// scan returns unit document paths relative to root, sorted lexically.
func scan(root string, opts Options) ([]string, error) {
	fsys := os.DirFS(root)
	seen := map[string]bool{}
	var out []string
	for _, pattern := range opts.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			excluded, err := matchAny(opts.Exclude, m)
			if err != nil {
				return nil, err
			}
			if excluded {
				opts.Logger.Debug("excluded unit document", "path", m)
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func matchAny(patterns []string, path string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, path)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Refresh rebuilds the index from the same root and options. The
// receiver is left untouched.
func (x *Index) Refresh() (*Index, error) {
	return Build(x.root, x.opts)
}

// Root returns the content root the index was built from.
func (x *Index) Root() string {
	return x.root
}

// Lookup returns the unit with the given id.
func (x *Index) Lookup(id string) (model.Unit, bool) {
	i, ok := x.byID[id]
	if !ok {
		return model.Unit{}, false
	}
	return x.units[i], true
}

// Len returns the number of units.
func (x *Index) Len() int {
	return len(x.units)
}

// All returns every unit in scan order. The slice is a copy.
func (x *Index) All() []model.Unit {
	out := make([]model.Unit, len(x.units))
	copy(out, x.units)
	return out
}

// Categories returns the distinct unit categories, sorted.
func (x *Index) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, u := range x.units {
		if !seen[u.Category] {
			seen[u.Category] = true
			out = append(out, u.Category)
		}
	}
	sort.Strings(out)
	return out
}

// FilterByCategory returns the units in category, in scan order.
func (x *Index) FilterByCategory(category string) []model.Unit {
	category = strings.ToLower(strings.TrimSpace(category))
	var out []model.Unit
	for _, u := range x.units {
		if u.Category == category {
			out = append(out, u)
		}
	}
	return out
}
