package cache

import "github.com/rcliao/skill-loader/internal/model"

// Stats holds session cache statistics.
type Stats struct {
	SessionID   string       `json:"session_id"`
	Path        string       `json:"path,omitempty"`
	SizeBytes   int64        `json:"size_bytes,omitempty"`
	Entries     int          `json:"entries"`
	Units       int          `json:"units"`
	TotalTokens int          `json:"total_tokens"`
	Levels      []LevelStats `json:"levels"`
}

// LevelStats holds per-level counts.
type LevelStats struct {
	Level   model.Level `json:"level"`
	Entries int         `json:"entries"`
	Tokens  int         `json:"tokens"`
}

// summarize builds Stats from records.
func summarize(sessionID string, records []Record) *Stats {
	st := &Stats{SessionID: sessionID}
	units := map[string]bool{}
	byLevel := map[model.Level]*LevelStats{}
	for _, r := range records {
		st.Entries++
		st.TotalTokens += r.Tokens
		units[r.UnitID] = true
		ls, ok := byLevel[r.Level]
		if !ok {
			ls = &LevelStats{Level: r.Level}
			byLevel[r.Level] = ls
		}
		ls.Entries++
		ls.Tokens += r.Tokens
	}
	st.Units = len(units)
	for _, l := range model.Levels {
		if ls, ok := byLevel[l]; ok {
			st.Levels = append(st.Levels, *ls)
		}
	}
	return st
}
