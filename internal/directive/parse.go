package directive

import (
	"fmt"
	"strings"
)

// Parse parses a single directive. The "@load" prefix is optional.
func Parse(text string) (Directive, error) {
	p := &parser{in: text}
	return p.parse()
}

// Extract finds every @load directive embedded in free text and parses
// each one. Offsets, including those in a ParseError, are relative to
// text.
func Extract(text string) ([]Directive, error) {
	var out []Directive
	from := 0
	for {
		i := strings.Index(text[from:], Keyword)
		if i < 0 {
			return out, nil
		}
		start := from + i
		from = start + len(Keyword)
		if start > 0 && isWordByte(text[start-1]) {
			continue
		}
		if from < len(text) && isWordByte(text[from]) {
			continue
		}

		end := extent(text, from)
		p := &parser{in: text[:end], pos: start}
		d, err := p.parse()
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Input = text
			}
			return nil, err
		}
		out = append(out, d)
		from = end
	}
}

// extent finds where a directive starting after the keyword at i ends
// in free text: at the closing bracket of a combination, or at the
// first whitespace after a bare term.
func extent(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	if i < len(text) && text[i] == '[' {
		j := strings.IndexAny(text[i:], "]\n")
		if j >= 0 && text[i+j] == ']' {
			return i + j + 1
		}
		if j >= 0 {
			return i + j
		}
		return len(text)
	}
	j := i
	for j < len(text) && !isSpace(text[j]) {
		j++
	}
	for j > i && strings.IndexByte(".,;)!?`'\"", text[j-1]) >= 0 {
		j--
	}
	return j
}

type parser struct {
	in  string
	pos int
}

func (p *parser) parse() (Directive, error) {
	p.skipSpace()
	if strings.HasPrefix(p.in[p.pos:], Keyword) {
		p.pos += len(Keyword)
		if !p.eof() && !isSpace(p.peek()) {
			return nil, p.errorf("expected whitespace after %s", Keyword)
		}
	}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("expected a product, code or [combination]")
	}

	var d Directive
	var err error
	if p.peek() == '[' {
		d, err = p.combination()
	} else {
		d, err = p.term()
	}
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after directive", p.peek())
	}
	return d, nil
}

func (p *parser) combination() (Directive, error) {
	c := Combination{Offset: p.pos}
	p.pos++ // '['
	for {
		p.skipSpace()
		t, err := p.term()
		if err != nil {
			return nil, err
		}
		c.Terms = append(c.Terms, t)

		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("expected '+' or ']'")
		}
		switch p.peek() {
		case '+':
			p.pos++
		case ']':
			p.pos++
			return c, nil
		default:
			return nil, p.errorf("expected '+' or ']', found %q", p.peek())
		}
	}
}

func (p *parser) term() (Directive, error) {
	start := p.pos
	if p.eof() {
		return nil, p.errorf("expected a term")
	}
	if !isLetter(p.peek()) {
		return nil, p.errorf("expected a category or product, found %q", p.peek())
	}
	category := p.take(isCategoryByte)

	if p.eof() || p.peek() != ':' {
		return nil, p.errorf("expected ':' after %q", category)
	}
	p.pos++

	if category == "product" {
		name, err := p.value()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, p.errorf("expected a product name")
		}
		return ProductRef{Name: name, Offset: start}, nil
	}

	if !p.eof() && p.peek() == '*' {
		p.pos++
		return CodeRef{Category: category, Code: Wildcard, Offset: start}, nil
	}
	code, err := p.value()
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, p.errorf("expected a code or '*' after %q", category+":")
	}
	return CodeRef{Category: category, Code: code, Offset: start}, nil
}

// value reads a name or code: a lowercase letter or digit followed by
// lowercase letters, digits, '.', '_' or '-'. An uppercase letter
// anywhere in it is an error at that offset.
func (p *parser) value() (string, error) {
	if p.eof() || !isLower(p.peek()) {
		if !p.eof() && isUpper(p.peek()) {
			return "", p.errorf("uppercase %q in name; names and codes are lowercase", p.peek())
		}
		return "", nil
	}
	v := p.take(func(b byte) bool {
		return isLower(b) || b == '.' || b == '_' || b == '-'
	})
	if !p.eof() && isUpper(p.peek()) {
		return "", p.errorf("uppercase %q in name; names and codes are lowercase", p.peek())
	}
	return v, nil
}

func (p *parser) take(ok func(byte) bool) string {
	start := p.pos
	for !p.eof() && ok(p.peek()) {
		p.pos++
	}
	return p.in[start:p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) eof() bool  { return p.pos >= len(p.in) }
func (p *parser) peek() byte { return p.in[p.pos] }

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Input: p.in, Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// isLower reports a lowercase letter or digit.
func isLower(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isAlnum(b byte) bool {
	return isLetter(b) || (b >= '0' && b <= '9')
}

func isCategoryByte(b byte) bool {
	return isAlnum(b) || b == '-'
}

func isWordByte(b byte) bool {
	return isAlnum(b) || b == '_' || b == '-'
}
