// Package aggregate accumulates grouped statistics from a stream of flat
// records. State is private to one run; the caller synchronizes if it
// shares an Aggregator across goroutines.
package aggregate

import (
	"encoding/json"
	"strconv"
	"strings"

	"flatfeed/internal/domain"
)

// NumericStats holds running statistics for one numeric column within a
// group.
type NumericStats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// GroupStats is the accumulated state for one group key.
type GroupStats struct {
	Count   int                      `json:"count"`
	Numeric map[string]*NumericStats `json:"numeric,omitempty"`
}

// Aggregator groups flat records by designated columns and accumulates
// count/sum/min/max over designated numeric columns. Error-tagged fields
// are excluded from numeric accumulation; they never count as zero.
type Aggregator struct {
	groupBy []string
	numeric []string
	groups  map[string]*GroupStats
}

// New creates an Aggregator. With no groupBy columns, all records fall
// into a single "" group.
func New(groupBy, numeric []string) *Aggregator {
	return &Aggregator{
		groupBy: groupBy,
		numeric: numeric,
		groups:  make(map[string]*GroupStats),
	}
}

// Observe accumulates one record.
func (a *Aggregator) Observe(rec *domain.FlatRecord) {
	key := a.groupKey(rec)
	g := a.groups[key]
	if g == nil {
		g = &GroupStats{Numeric: make(map[string]*NumericStats)}
		a.groups[key] = g
	}
	g.Count++

	for _, col := range a.numeric {
		fv := findField(rec, col)
		if fv == nil || fv.Err != nil {
			continue
		}
		f, ok := asFloat(fv.Value)
		if !ok {
			continue
		}
		st := g.Numeric[col]
		if st == nil {
			g.Numeric[col] = &NumericStats{Count: 1, Sum: f, Min: f, Max: f}
			continue
		}
		st.Count++
		st.Sum += f
		if f < st.Min {
			st.Min = f
		}
		if f > st.Max {
			st.Max = f
		}
	}
}

// Snapshot returns a deep copy of the accumulated state, keyed by group.
func (a *Aggregator) Snapshot() map[string]GroupStats {
	out := make(map[string]GroupStats, len(a.groups))
	for key, g := range a.groups {
		cp := GroupStats{Count: g.Count, Numeric: make(map[string]*NumericStats, len(g.Numeric))}
		for col, st := range g.Numeric {
			c := *st
			cp.Numeric[col] = &c
		}
		out[key] = cp
	}
	return out
}

// erroredKey marks an error-tagged group field inside a composite key.
// escapeKey never emits a backslash followed by '!', so the marker cannot
// collide with any genuine value, including the empty string.
const erroredKey = `\!`

var keyEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// groupKey joins the designated columns' rendered values, escaping the
// join delimiter so composite keys cannot collide.
func (a *Aggregator) groupKey(rec *domain.FlatRecord) string {
	if len(a.groupBy) == 0 {
		return ""
	}
	parts := make([]string, len(a.groupBy))
	for i, col := range a.groupBy {
		fv := findField(rec, col)
		if fv == nil || fv.Err != nil {
			parts[i] = erroredKey
			continue
		}
		parts[i] = keyEscaper.Replace(renderKey(fv.Value))
	}
	return strings.Join(parts, "|")
}

func findField(rec *domain.FlatRecord, column string) *domain.FieldValue {
	for i := range rec.Fields {
		if rec.Fields[i].Column == column {
			return &rec.Fields[i]
		}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case int:
		return float64(t), true
	}
	return 0, false
}

func renderKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	}
	b, _ := json.Marshal(v)
	return string(b)
}
