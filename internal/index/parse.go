package index

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/rcliao/skill-loader/internal/model"
	"github.com/rcliao/skill-loader/internal/sections"
)

// DefaultCategory is assigned to units that declare no category and sit
// directly under the content root.
const DefaultCategory = "general"

// frontMatter is the YAML block at the top of a SKILL.md file.
type frontMatter struct {
	Name         string            `yaml:"name"`
	ID           string            `yaml:"id"`
	Description  string            `yaml:"description"`
	Summary      string            `yaml:"summary"`
	Category     string            `yaml:"category"`
	Tags         []string          `yaml:"tags"`
	Dependencies []string          `yaml:"dependencies"`
	Related      []string          `yaml:"related"`
	Tokens       map[string]int    `yaml:"tokens"`
	Levels       map[string]string `yaml:"levels"`
}

// parseUnit reads one unit document. rel is the path relative to the
// content root using forward slashes. Every problem found is returned,
// not just the first.
func parseUnit(root, rel string) (model.Unit, []string) {
	path := filepath.Join(root, filepath.FromSlash(rel))
	dir := filepath.Dir(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return model.Unit{}, []string{fmt.Sprintf("read: %v", err)}
	}
	fmText, body, err := sections.SplitFrontMatter(content)
	if err != nil {
		return model.Unit{}, []string{err.Error()}
	}

	var fm frontMatter
	if err := yaml.Unmarshal(fmText, &fm); err != nil {
		return model.Unit{}, []string{fmt.Sprintf("parse front-matter: %v", err)}
	}

	var problems []string
	u := model.Unit{
		ID:       firstNonEmpty(fm.Name, fm.ID, filepath.Base(dir)),
		Summary:  strings.TrimSpace(firstNonEmpty(fm.Description, fm.Summary)),
		Category: strings.ToLower(strings.TrimSpace(fm.Category)),
		Tags:     normalizeTags(fm.Tags),
		Dir:      dir,
		Path:     path,
	}
	if u.Category == "" {
		u.Category = deriveCategory(rel)
	}

	if !model.ValidID(u.ID) {
		problems = append(problems, fmt.Sprintf("invalid id %q (want lowercase letters, digits, hyphens; 1-64 chars)", u.ID))
	}
	switch {
	case u.Summary == "":
		problems = append(problems, "missing description")
	case len(u.Summary) > model.MaxSummaryLen:
		problems = append(problems, fmt.Sprintf("description is %d chars (max %d)", len(u.Summary), model.MaxSummaryLen))
	}

	for _, dep := range append(fm.Dependencies, fm.Related...) {
		dep = strings.TrimSpace(dep)
		switch {
		case !model.ValidID(dep):
			problems = append(problems, fmt.Sprintf("invalid dependency id %q", dep))
		case dep == u.ID:
			problems = append(problems, "unit depends on itself")
		default:
			u.Dependencies = append(u.Dependencies, dep)
		}
	}
	u.Dependencies = model.Dedupe(u.Dependencies)

	for _, key := range slices.Sorted(maps.Keys(fm.Tokens)) {
		n := fm.Tokens[key]
		l, err := levelKey(key)
		if err != nil {
			problems = append(problems, fmt.Sprintf("tokens: %v", err))
			continue
		}
		if n < 0 {
			problems = append(problems, fmt.Sprintf("tokens: %s is negative", l))
			continue
		}
		u.DeclaredTokens[l-1] = n
	}

	u.Levels = defaultSources(path, string(body))
	for _, key := range slices.Sorted(maps.Keys(fm.Levels)) {
		file := fm.Levels[key]
		l, err := levelKey(key)
		if err != nil {
			problems = append(problems, fmt.Sprintf("levels: %v", err))
			continue
		}
		src, err := overrideSource(dir, file)
		if err != nil {
			problems = append(problems, fmt.Sprintf("levels: %s: %v", l, err))
			continue
		}
		u.Levels[l-1] = src
	}

	return u, problems
}

// defaultSources maps levels onto sections of the main document. A body
// without level headings is treated as level 2 in its entirety.
func defaultSources(path, body string) [3]model.LevelSource {
	var out [3]model.LevelSource
	if !sections.HasLevels(body) {
		if strings.TrimSpace(body) != "" {
			out[model.Level2-1] = model.LevelSource{Path: path}
		}
		return out
	}
	for _, s := range sections.Split(body) {
		if s.Level >= 1 && s.Level <= 3 {
			out[s.Level-1] = model.LevelSource{Path: path, Section: s.Level}
		}
	}
	return out
}

// overrideSource validates a level file declared in front-matter. The
// file must exist inside the unit directory.
func overrideSource(dir, file string) (model.LevelSource, error) {
	clean := filepath.Clean(filepath.FromSlash(file))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return model.LevelSource{}, fmt.Errorf("%q escapes the unit directory", file)
	}
	path := filepath.Join(dir, clean)
	info, err := os.Stat(path)
	if err != nil {
		return model.LevelSource{}, fmt.Errorf("%q: %w", file, err)
	}
	if info.IsDir() {
		return model.LevelSource{}, fmt.Errorf("%q is a directory", file)
	}
	return model.LevelSource{Path: path}, nil
}

// levelKey accepts "level2", "2" or "L2".
func levelKey(key string) (model.Level, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimPrefix(strings.TrimPrefix(k, "level"), "l")
	n, err := strconv.Atoi(k)
	if err != nil {
		return 0, fmt.Errorf("unknown level key %q", key)
	}
	return model.ParseLevel(n)
}

// deriveCategory uses the directory above the unit directory, e.g.
// "security/auth/SKILL.md" -> "security".
func deriveCategory(rel string) string {
	unitDir := pathDir(rel)
	if unitDir == "." || unitDir == "" {
		return DefaultCategory
	}
	parent := pathDir(unitDir)
	if parent == "." || parent == "" {
		return DefaultCategory
	}
	if i := strings.LastIndex(parent, "/"); i >= 0 {
		parent = parent[i+1:]
	}
	return strings.ToLower(parent)
}

func pathDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "."
	}
	return p[:i]
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return model.Dedupe(out)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
