package loader

import (
	"fmt"

	"github.com/rcliao/skill-loader/internal/model"
)

// Recommended token limits for the first two levels. Level 3 has none.
const (
	Level1Limit = 1000
	Level2Limit = 5000
)

// WarningKind classifies an authoring warning.
type WarningKind string

const (
	OverLimit      WarningKind = "over_limit"
	MissingSection WarningKind = "missing_section"
)

// Warning is an advisory finding about how a unit is authored. It never
// stops a load.
type Warning struct {
	ID     string      `json:"id"`
	Level  model.Level `json:"level"`
	Kind   WarningKind `json:"kind"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %s: %s", w.ID, w.Level, w.Kind, w.Detail)
}

// Check reports the sections u lacks and the levels whose cost, counted
// the way Load charges it, is over the recommended limit.
func (l *Loader) Check(u model.Unit) ([]Warning, error) {
	var out []Warning
	warn := func(lvl model.Level, kind WarningKind, format string, args ...any) {
		out = append(out, Warning{ID: u.ID, Level: lvl, Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	for _, lvl := range model.Levels {
		text, err := readLevel(u, lvl)
		if err != nil {
			return nil, err
		}
		if u.Source(lvl).Absent() {
			switch {
			case lvl == model.Level1:
				warn(lvl, MissingSection, "no Level 1 section, level 1 is the summary alone")
			case lvl == model.Level2:
				warn(lvl, MissingSection, "no Level 2 section")
			case text == "":
				warn(lvl, MissingSection, "no Level 3 section and no resource files")
			}
		}

		limit := limitFor(lvl)
		if limit == 0 {
			continue
		}
		if n := l.cost(u, lvl, text); n > limit {
			warn(lvl, OverLimit, "%d tokens, limit %d, over by %d", n, limit, n-limit)
		}
	}
	return out, nil
}

func limitFor(lvl model.Level) int {
	switch lvl {
	case model.Level1:
		return Level1Limit
	case model.Level2:
		return Level2Limit
	}
	return 0
}
