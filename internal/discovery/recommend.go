package discovery

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rcliao/skill-loader/internal/model"
)

// Field weights for recommendation scoring.
const (
	weightTag     = 3
	weightID      = 2
	weightSummary = 1
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "i": true, "in": true,
	"is": true, "it": true, "me": true, "my": true, "need": true, "of": true,
	"on": true, "or": true, "our": true, "should": true, "that": true,
	"the": true, "this": true, "to": true, "want": true, "we": true,
	"with": true, "write": true, "you": true,
}

// Tokenize lowercases text and splits it into alphanumeric runs, dropping
// stop words.
func Tokenize(text string) []string {
	var out []string
	for _, t := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if !stopWords[t] {
			out = append(out, t)
		}
	}
	return out
}

// Recommend scores every unit against a free-text project context and
// returns the best topN, highest score first, ties by id. Units scoring
// zero are left out. topN <= 0 returns every match.
func (e *Engine) Recommend(context string, topN int) []Result {
	terms := model.Dedupe(Tokenize(context))
	if len(terms) == 0 {
		return nil
	}

	var out []Result
	for _, u := range e.Index.All() {
		if s := score(u, terms); s > 0 {
			out = append(out, result(u, s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// score sums weighted term frequencies of the context terms across the
// unit's tags, id and summary.
func score(u model.Unit, terms []string) int {
	freq := map[string]int{}
	add := func(text string, weight int) {
		for _, t := range Tokenize(text) {
			freq[t] += weight
		}
	}
	for _, tag := range u.Tags {
		add(tag, weightTag)
	}
	add(u.ID, weightID)
	add(u.Summary, weightSummary)

	total := 0
	for _, t := range terms {
		total += freq[t]
	}
	return total
}
