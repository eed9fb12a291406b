package sections

import (
	"errors"
	"strings"
	"testing"
)

func TestSplitFrontMatter(t *testing.T) {
	doc := "\n---\nname: a\n---\n\n# Body\ntext\n"
	fm, body, err := SplitFrontMatter([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(fm)) != "name: a" {
		t.Errorf("unexpected front-matter %q", fm)
	}
	if !strings.HasPrefix(string(body), "# Body") {
		t.Errorf("unexpected body %q", body)
	}
}

func TestSplitFrontMatter_Errors(t *testing.T) {
	if _, _, err := SplitFrontMatter([]byte("# no front matter")); !errors.Is(err, ErrNoFrontMatter) {
		t.Errorf("expected ErrNoFrontMatter, got %v", err)
	}
	if _, _, err := SplitFrontMatter([]byte("---\nname: a\n")); !errors.Is(err, ErrUnterminated) {
		t.Errorf("expected ErrUnterminated, got %v", err)
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	if got := Split(""); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestSplit_NoHeadings(t *testing.T) {
	result := Split("# Title\n\nJust instructions.")
	if len(result) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result))
	}
	if result[0].Level != 0 {
		t.Errorf("expected preamble level 0, got %d", result[0].Level)
	}
	if HasLevels("# Title\n\nJust instructions.") {
		t.Error("HasLevels should be false without level headings")
	}
}

func TestSplit_LevelHeadings(t *testing.T) {
	body := `# Auth

Intro paragraph.

## Level 1: Quick Start

Use OAuth.

## Level 2: Implementation

Validate tokens.

### Details

More.

## Level 3: Mastery

See resources.`

	result := Split(body)
	if len(result) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(result))
	}
	if result[1].Level != 1 || result[1].Title != "Quick Start" {
		t.Errorf("unexpected level 1 section: %+v", result[1])
	}
	if !strings.Contains(result[2].Text, "### Details") {
		t.Errorf("level 2 should keep sub-headings, got %q", result[2].Text)
	}
	if result[3].StartLine != 17 {
		t.Errorf("expected level 3 to start on line 17, got %d", result[3].StartLine)
	}

	s, ok := Find(body, 2)
	if !ok || !strings.Contains(s.Text, "Validate tokens.") {
		t.Errorf("Find(2) = %+v, %v", s, ok)
	}
	if _, ok := Find(body, 5); ok {
		t.Error("Find(5) should not match")
	}
}

func TestSplit_RepeatedLevelKeepsFirst(t *testing.T) {
	body := "## Level 1\nfirst\n## Level 1\nsecond"
	result := Split(body)
	if len(result) != 1 || !strings.Contains(result[0].Text, "first") {
		t.Fatalf("expected only the first level 1 section, got %+v", result)
	}
}

func TestSplit_IgnoresHeadingsInFences(t *testing.T) {
	body := "## Level 1\nQuick.\n\n```markdown\n## Level 2: Example\n~~~\n## Level 3\n```\n\n## Level 2\nReal level two.\n\n~~~~\n## Level 3\n~~~~\n"
	result := Split(body)
	if len(result) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(result), result)
	}
	if !strings.Contains(result[0].Text, "## Level 2: Example") || !strings.Contains(result[0].Text, "## Level 3") {
		t.Errorf("fenced headings should stay in level 1, got %q", result[0].Text)
	}
	if result[1].Level != 2 || result[1].StartLine != 10 {
		t.Errorf("unexpected level 2 section: %+v", result[1])
	}
	if !strings.HasSuffix(result[1].Text, "~~~~") {
		t.Errorf("tilde fence should stay in level 2, got %q", result[1].Text)
	}
	if _, ok := Find(body, 3); ok {
		t.Error("a heading inside a fence is not a level 3 section")
	}
}
