// Package matrix maps product and category shorthand codes onto ordered
// lists of content-unit ids.
//
// A matrix document looks like:
//
//	version: "1"
//	categories:
//	  SEC: security
//	products:
//	  api: [coding-python, testing-pytest, security-auth]
//	  web-service: [product:api, coding-typescript]
//	codes:
//	  "SEC:*": [NIST-IG:base]
//	  NIST-IG:base: [nist-baseline]
//
// A reference containing ":" names another entry; anything else is a
// content-unit id. Auto-inclusion (a security wildcard pulling in a
// compliance baseline) is an ordinary "CAT:*" entry, so it gets the same
// cycle and de-duplication guarantees as everything else.
package matrix

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// ProductPrefix is the key prefix for product entries.
const ProductPrefix = "product:"

// document is the on-disk matrix layout.
type document struct {
	Version    string              `yaml:"version"`
	Categories map[string]string   `yaml:"categories"`
	Products   map[string][]string `yaml:"products"`
	Codes      map[string][]string `yaml:"codes"`
}

// Matrix is a loaded, cycle-free shorthand table. It is read-only after
// Load and safe for concurrent use.
type Matrix struct {
	version    string
	categories map[string]string
	entries    map[string][]string
}

// ProductKey returns the entry key for product name.
func ProductKey(name string) string {
	return ProductPrefix + name
}

// CodeKey returns the entry key for a category code and value.
func CodeKey(category, code string) string {
	return category + ":" + code
}

// Load reads and validates a matrix document from path.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read matrix: %w", err)
	}
	return Parse(data)
}

// Parse validates a matrix document. It fails with *Error when an entry
// references an undefined key or when references form a cycle.
func Parse(data []byte) (*Matrix, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Kind: Malformed, Detail: err.Error()}
	}

	m := &Matrix{
		version:    doc.Version,
		categories: make(map[string]string, len(doc.Categories)),
		entries:    make(map[string][]string, len(doc.Products)+len(doc.Codes)),
	}
	for code, category := range doc.Categories {
		code = strings.TrimSpace(code)
		if code == "" || strings.Contains(code, ":") {
			return nil, &Error{Kind: Malformed, Key: code, Detail: "invalid category code"}
		}
		m.categories[code] = strings.ToLower(strings.TrimSpace(category))
	}
	for name, refs := range doc.Products {
		name = strings.TrimSpace(name)
		if name == "" || strings.Contains(name, ":") {
			return nil, &Error{Kind: Malformed, Key: name, Detail: "invalid product name"}
		}
		m.entries[ProductKey(name)] = trimAll(refs)
	}
	for key, refs := range doc.Codes {
		key = strings.TrimSpace(key)
		cat, code, ok := strings.Cut(key, ":")
		if !ok || cat == "" || code == "" || cat == "product" {
			return nil, &Error{Kind: Malformed, Key: key, Detail: "code keys must look like CATEGORY:code or CATEGORY:*"}
		}
		m.entries[key] = trimAll(refs)
	}

	for _, key := range m.keys() {
		for _, ref := range m.entries[key] {
			if ref == "" {
				return nil, &Error{Kind: Malformed, Key: key, Detail: "empty reference"}
			}
			if isShorthand(ref) && !m.Has(ref) {
				return nil, &Error{Kind: UndefinedReference, Key: key, Detail: ref}
			}
		}
	}

	if err := m.checkCycles(); err != nil {
		return nil, err
	}
	return m, nil
}

// checkCycles walks every entry depth-first with a visiting set and
// reports the first cycle found, keys visited in sorted order.
func (m *Matrix) checkCycles() error {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var stack []string

	var visit func(key string) error
	visit = func(key string) error {
		state[key] = visiting
		stack = append(stack, key)
		for _, ref := range m.entries[key] {
			if !isShorthand(ref) {
				continue
			}
			switch state[ref] {
			case visiting:
				return &Error{Kind: CycleDetected, Key: ref, Path: cyclePath(stack, ref)}
			case done:
				continue
			}
			if err := visit(ref); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[key] = done
		return nil
	}

	for _, key := range m.keys() {
		if state[key] == done {
			continue
		}
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}

// cyclePath returns the portion of stack starting at ref, closed with ref.
func cyclePath(stack []string, ref string) []string {
	for i, k := range stack {
		if k == ref {
			path := append([]string{}, stack[i:]...)
			return append(path, ref)
		}
	}
	return []string{ref, ref}
}

// Resolve expands key recursively into a flat list of unit ids, removing
// duplicates and keeping first-seen order.
func (m *Matrix) Resolve(key string) ([]string, error) {
	if !m.Has(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	var out []string
	seen := map[string]bool{}
	expanded := map[string]bool{}

	var walk func(k string)
	walk = func(k string) {
		if expanded[k] {
			return
		}
		expanded[k] = true
		for _, ref := range m.entries[k] {
			if isShorthand(ref) {
				walk(ref)
				continue
			}
			if !seen[ref] {
				seen[ref] = true
				out = append(out, ref)
			}
		}
	}
	walk(key)
	return out, nil
}

// Has reports whether key is defined.
func (m *Matrix) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Refs returns the raw references of an entry.
func (m *Matrix) Refs(key string) []string {
	return append([]string(nil), m.entries[key]...)
}

// Category maps a directive category code (e.g. "SEC") onto a unit
// category (e.g. "security").
func (m *Matrix) Category(code string) (string, bool) {
	c, ok := m.categories[code]
	return c, ok
}

// Products returns the defined product names, sorted.
func (m *Matrix) Products() []string {
	var out []string
	for k := range m.entries {
		if name, ok := strings.CutPrefix(k, ProductPrefix); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Version returns the document's declared version.
func (m *Matrix) Version() string {
	return m.version
}

func (m *Matrix) keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isShorthand(ref string) bool {
	return strings.Contains(ref, ":")
}

func trimAll(refs []string) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = strings.TrimSpace(r)
	}
	return out
}
