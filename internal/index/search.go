package index

import (
	"sort"
	"strings"

	"github.com/rcliao/skill-loader/internal/model"
)

// Match ranks, lower is better.
const (
	rankExactID = iota
	rankTag
	rankText
)

// Search returns units matching keyword, best first: exact id match,
// then tag match, then id or summary substring match. Ties are broken by
// id. Matching is case-insensitive.
func (x *Index) Search(keyword string) []model.Unit {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}

	type hit struct {
		unit model.Unit
		rank int
	}
	var hits []hit
	for _, u := range x.units {
		if r, ok := rank(u, kw); ok {
			hits = append(hits, hit{unit: u, rank: r})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].unit.ID < hits[j].unit.ID
	})

	out := make([]model.Unit, len(hits))
	for i, h := range hits {
		out[i] = h.unit
	}
	return out
}

func rank(u model.Unit, kw string) (int, bool) {
	if u.ID == kw {
		return rankExactID, true
	}
	for _, t := range u.Tags {
		if strings.Contains(t, kw) {
			return rankTag, true
		}
	}
	if strings.Contains(u.ID, kw) || strings.Contains(strings.ToLower(u.Summary), kw) {
		return rankText, true
	}
	return 0, false
}
