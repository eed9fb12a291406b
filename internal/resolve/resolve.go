// Package resolve turns a parsed directive into the ordered,
// de-duplicated set of unit ids it names.
package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rcliao/skill-loader/internal/directive"
	"github.com/rcliao/skill-loader/internal/index"
	"github.com/rcliao/skill-loader/internal/matrix"
	"github.com/rcliao/skill-loader/internal/model"
)

// ErrorKind classifies resolution failures.
type ErrorKind string

const (
	UnknownProduct ErrorKind = "unknown_product"
	UnknownCode    ErrorKind = "unknown_code"
)

// Error reports a directive term that could not be resolved.
type Error struct {
	Kind ErrorKind
	// Ref is the offending product name, code reference or unit id.
	Ref string
	// Pos is the offset of the term in the directive text.
	Pos int
	// Via is the matrix key that produced Ref, if any.
	Via string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Ref)
	if e.Via != "" {
		msg += " (referenced by " + e.Via + ")"
	}
	return msg
}

// Resolver expands directives against an index and a matrix.
type Resolver struct {
	Index  *index.Index
	Matrix *matrix.Matrix
	Logger *slog.Logger
}

// New returns a Resolver. m may be nil, in which case only category
// wildcards and direct unit codes resolve.
func New(idx *index.Index, m *matrix.Matrix, logger *slog.Logger) *Resolver {
	return &Resolver{Index: idx, Matrix: m, Logger: logger}
}

// Resolve expands d into a ResolvedSet at the requested level. Terms are
// expanded in directive order; the first occurrence of an id wins.
func (r *Resolver) Resolve(d directive.Directive, level model.Level) (model.ResolvedSet, error) {
	if d == nil {
		return model.ResolvedSet{}, errors.New("resolve: nil directive")
	}
	if !level.Valid() {
		return model.ResolvedSet{}, fmt.Errorf("resolve: invalid level %d", int(level))
	}

	var ids []string
	for _, term := range directive.Terms(d) {
		got, err := r.term(term)
		if err != nil {
			return model.ResolvedSet{}, err
		}
		ids = append(ids, got...)
	}
	set := model.ResolvedSet{IDs: model.Dedupe(ids), Level: level}
	r.logger().Debug("directive resolved", "directive", d.String(), "units", set.Len(), "level", level)
	return set, nil
}

func (r *Resolver) term(t directive.Directive) ([]string, error) {
	switch v := t.(type) {
	case directive.ProductRef:
		return r.product(v)
	case directive.CodeRef:
		if v.Wildcard() {
			return r.wildcard(v)
		}
		return r.code(v)
	default:
		return nil, fmt.Errorf("resolve: unexpected term %T", t)
	}
}

func (r *Resolver) product(p directive.ProductRef) ([]string, error) {
	key := matrix.ProductKey(p.Name)
	if r.Matrix == nil || !r.Matrix.Has(key) {
		return nil, &Error{Kind: UnknownProduct, Ref: p.Name, Pos: p.Offset}
	}
	return r.expand(key, p.Offset)
}

func (r *Resolver) code(c directive.CodeRef) ([]string, error) {
	key := matrix.CodeKey(c.Category, c.Code)
	if r.Matrix != nil && r.Matrix.Has(key) {
		return r.expand(key, c.Offset)
	}

	code := strings.ToLower(c.Code)
	for _, id := range []string{r.category(c.Category) + "-" + code, code} {
		if _, ok := r.Index.Lookup(id); ok {
			return []string{id}, nil
		}
	}
	return nil, &Error{Kind: UnknownCode, Ref: c.String(), Pos: c.Offset}
}

func (r *Resolver) wildcard(c directive.CodeRef) ([]string, error) {
	units := r.Index.FilterByCategory(r.category(c.Category))
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	sort.Strings(ids)

	key := matrix.CodeKey(c.Category, directive.Wildcard)
	hasEntry := r.Matrix != nil && r.Matrix.Has(key)
	if len(ids) == 0 && !hasEntry {
		return nil, &Error{Kind: UnknownCode, Ref: c.String(), Pos: c.Offset}
	}
	if hasEntry {
		extra, err := r.expand(key, c.Offset)
		if err != nil {
			return nil, err
		}
		ids = append(ids, extra...)
	}
	return ids, nil
}

// expand resolves a matrix key and checks every id against the index.
func (r *Resolver) expand(key string, pos int) ([]string, error) {
	ids, err := r.Matrix.Resolve(key)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := r.Index.Lookup(id); !ok {
			return nil, &Error{Kind: UnknownCode, Ref: id, Pos: pos, Via: key}
		}
	}
	return ids, nil
}

// category maps a directive category code onto a unit category, falling
// back to the lowercased code.
func (r *Resolver) category(code string) string {
	if r.Matrix != nil {
		if c, ok := r.Matrix.Category(code); ok {
			return c
		}
	}
	return strings.ToLower(code)
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Merge concatenates sets, keeping the first occurrence of each id. The
// merged level is the highest requested.
func Merge(sets ...model.ResolvedSet) model.ResolvedSet {
	var out model.ResolvedSet
	var ids []string
	for _, s := range sets {
		ids = append(ids, s.IDs...)
		if s.Level > out.Level {
			out.Level = s.Level
		}
	}
	out.IDs = model.Dedupe(ids)
	return out
}
