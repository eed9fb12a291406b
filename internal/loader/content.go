package loader

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rcliao/skill-loader/internal/model"
	"github.com/rcliao/skill-loader/internal/sections"
)

// ResourceDirs are listed as level 3 when a unit has no level 3 content.
var ResourceDirs = []string{"resources", "templates", "scripts"}

// readLevel returns the text of one level of u. Absent levels read as
// empty, except level 3, which falls back to a listing of the unit's
// resource files.
func readLevel(u model.Unit, l model.Level) (string, error) {
	src := u.Source(l)
	var text string
	if !src.Absent() {
		var err error
		text, err = readSource(u, src)
		if err != nil {
			return "", fmt.Errorf("%s %s: %w", u.ID, l, err)
		}
	}

	switch l {
	case model.Level1:
		if text == "" {
			return u.Summary, nil
		}
		return u.Summary + "\n\n" + text, nil
	case model.Level3:
		if text == "" {
			return resourceListing(u.Dir)
		}
	}
	return text, nil
}

func readSource(u model.Unit, src model.LevelSource) (string, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return "", err
	}
	if src.Path != u.Path {
		return strings.TrimSpace(string(data)), nil
	}

	_, body, err := sections.SplitFrontMatter(data)
	if err != nil {
		return "", err
	}
	if src.Section == 0 {
		return strings.TrimSpace(string(body)), nil
	}
	s, ok := sections.Find(string(body), src.Section)
	if !ok {
		return "", fmt.Errorf("section %d not found in %s", src.Section, src.Path)
	}
	return s.Text, nil
}

// resourceListing names the files under the unit's resource directories.
// Only paths are listed, never contents.
func resourceListing(dir string) (string, error) {
	pattern := "{" + strings.Join(ResourceDirs, ",") + "}/**"
	files, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("list resources: %w", err)
	}
	if len(files) == 0 {
		return "", nil
	}
	sort.Strings(files)

	var b strings.Builder
	b.WriteString("Resources:")
	for _, f := range files {
		b.WriteString("\n- ")
		b.WriteString(f)
	}
	return b.String(), nil
}
