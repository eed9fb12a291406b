// Package discovery finds content units without a directive: keyword
// search, category filtering and context-based recommendation.
package discovery

import (
	"sort"
	"strings"

	"github.com/rcliao/skill-loader/internal/index"
	"github.com/rcliao/skill-loader/internal/model"
)

// Query selects units by keyword, category, or both. An empty Query
// matches every unit.
type Query struct {
	Keyword  string
	Category string
}

// Result is one discovered unit.
type Result struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
	// Score is set by Recommend only.
	Score int `json:"score,omitempty"`
}

// Engine answers discovery queries against an index.
type Engine struct {
	Index *index.Index
}

// New returns an Engine over idx.
func New(idx *index.Index) *Engine {
	return &Engine{Index: idx}
}

// Discover runs q. Keyword results keep the index's search ranking;
// category-only and empty queries are ordered by id.
func (e *Engine) Discover(q Query) []Result {
	keyword := strings.TrimSpace(q.Keyword)
	category := strings.ToLower(strings.TrimSpace(q.Category))

	var units []model.Unit
	switch {
	case keyword != "":
		units = e.Index.Search(keyword)
		if category != "" {
			units = filter(units, category)
		}
	case category != "":
		units = byID(e.Index.FilterByCategory(category))
	default:
		units = byID(e.Index.All())
	}

	out := make([]Result, len(units))
	for i, u := range units {
		out[i] = result(u, 0)
	}
	return out
}

func filter(units []model.Unit, category string) []model.Unit {
	var out []model.Unit
	for _, u := range units {
		if u.Category == category {
			out = append(out, u)
		}
	}
	return out
}

func byID(units []model.Unit) []model.Unit {
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units
}

func result(u model.Unit, score int) Result {
	return Result{ID: u.ID, Summary: u.Summary, Category: u.Category, Tags: u.Tags, Score: score}
}
