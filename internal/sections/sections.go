// Package sections splits skill documents into front-matter and
// disclosure-level sections.
package sections

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const frontMatterDelimiter = "---"

var (
	// ErrNoFrontMatter is returned when a document does not open with "---".
	ErrNoFrontMatter = errors.New("document must start with YAML front-matter (---)")
	// ErrUnterminated is returned when the closing "---" is missing.
	ErrUnterminated = errors.New("missing closing front-matter delimiter (---)")
)

// levelHeading matches "## Level 2", "## Level 2: Core", "##   level 3 - Resources".
var levelHeading = regexp.MustCompile(`(?i)^##\s+level\s+([1-9])\b[\s:.\-]*(.*)$`)

// SplitFrontMatter separates the YAML front-matter from the document body.
// Leading whitespace before the opening delimiter is ignored.
func SplitFrontMatter(content []byte) (frontMatter, body []byte, err error) {
	content = bytes.TrimLeft(content, " \t\r\n")
	if !bytes.HasPrefix(content, []byte(frontMatterDelimiter)) {
		return nil, nil, ErrNoFrontMatter
	}
	content = content[len(frontMatterDelimiter):]

	idx := bytes.Index(content, []byte("\n"+frontMatterDelimiter))
	if idx == -1 {
		return nil, nil, ErrUnterminated
	}
	frontMatter = content[:idx]
	body = content[idx+len("\n"+frontMatterDelimiter):]
	body = bytes.TrimLeft(body, "\r\n")
	return frontMatter, body, nil
}

// Section is one part of a document body. Level 0 is the preamble
// before the first level heading.
type Section struct {
	Level     int
	Title     string
	Text      string
	StartLine int
	EndLine   int
}

// Split breaks body into sections on "## Level N" headings. Text that
// precedes the first heading becomes a level-0 preamble section. Empty
// sections are dropped; a repeated level keeps its first occurrence.
// Headings inside fenced code blocks are content.
func Split(body string) []Section {
	lines := strings.Split(body, "\n")
	var sections []Section
	var current []string
	cur := Section{StartLine: 1}
	seen := map[int]bool{}

	flush := func(endLine int) {
		t := strings.TrimSpace(strings.Join(current, "\n"))
		if t != "" && !seen[cur.Level] {
			cur.Text = t
			cur.EndLine = endLine
			sections = append(sections, cur)
			seen[cur.Level] = true
		}
		current = nil
	}

	var fence string
	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(trimmed, fence) && strings.TrimLeft(trimmed, fence[:1]) == "":
				fence = ""
			}
		}
		var m []string
		if fence == "" {
			m = levelHeading.FindStringSubmatch(trimmed)
		}
		if m == nil {
			current = append(current, line)
			continue
		}
		flush(lineNum - 1)
		n, _ := strconv.Atoi(m[1])
		cur = Section{Level: n, Title: strings.TrimSpace(m[2]), StartLine: lineNum}
		current = append(current, line)
	}
	flush(len(lines))

	return sections
}

// fenceMarker returns the run of backticks or tildes opening a code
// fence on line, or "".
func fenceMarker(line string) string {
	for _, c := range []byte{'`', '~'} {
		n := 0
		for n < len(line) && line[n] == c {
			n++
		}
		if n >= 3 {
			return line[:n]
		}
	}
	return ""
}

// HasLevels reports whether body contains at least one level heading.
func HasLevels(body string) bool {
	for _, s := range Split(body) {
		if s.Level > 0 {
			return true
		}
	}
	return false
}

// Find returns the section for level n.
func Find(body string, n int) (Section, bool) {
	for _, s := range Split(body) {
		if s.Level == n {
			return s, true
		}
	}
	return Section{}, false
}
