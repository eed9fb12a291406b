// Package directive parses the compact @load request language:
//
//	@load product:api
//	@load SEC:*
//	@load [product:api + CS:python + TS:* + SEC:*]
//
// Parsing only builds the Directive tree. Wildcards are kept as written;
// expanding them is the resolver's job.
package directive

import (
	"fmt"
	"strings"
)

// Keyword is the optional prefix of a directive.
const Keyword = "@load"

// Wildcard is the code that selects every unit in a category.
const Wildcard = "*"

// Directive is one of ProductRef, CodeRef or Combination.
type Directive interface {
	// Pos is the byte offset of the node in the parsed text.
	Pos() int
	String() string
	isDirective()
}

// ProductRef names a product entry in the matrix, e.g. product:api.
type ProductRef struct {
	Name   string
	Offset int
}

// CodeRef names a category code and either a concrete code or the
// wildcard, e.g. CS:python or SEC:*.
type CodeRef struct {
	Category string
	Code     string
	Offset   int
}

// Combination is a bracketed list of terms joined by "+".
type Combination struct {
	Terms  []Directive
	Offset int
}

func (d ProductRef) Pos() int  { return d.Offset }
func (d CodeRef) Pos() int     { return d.Offset }
func (d Combination) Pos() int { return d.Offset }

func (ProductRef) isDirective()  {}
func (CodeRef) isDirective()     {}
func (Combination) isDirective() {}

func (d ProductRef) String() string {
	return "product:" + d.Name
}

func (d CodeRef) String() string {
	return d.Category + ":" + d.Code
}

func (d Combination) String() string {
	parts := make([]string, len(d.Terms))
	for i, t := range d.Terms {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, " + ") + "]"
}

// Wildcard reports whether the reference selects a whole category.
func (d CodeRef) Wildcard() bool {
	return d.Code == Wildcard
}

// Terms flattens d into its product and code references, in order.
func Terms(d Directive) []Directive {
	switch v := d.(type) {
	case Combination:
		var out []Directive
		for _, t := range v.Terms {
			out = append(out, Terms(t)...)
		}
		return out
	case nil:
		return nil
	default:
		return []Directive{v}
	}
}

// ParseError reports malformed directive text with the byte offset of
// the offending character.
type ParseError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Reason)
}
