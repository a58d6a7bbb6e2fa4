package openfda

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"jobdash/internal/model"
)

const (
	reactionKey  = "patient.reaction"
	receivedKey  = "receivedate"
	sexKey       = "patient.patientsex"
	onsetAgeKey  = "patient.patientonsetage"
	topReactions = 10
	ageBinWidth  = 10
)

// SeverityFields are charted when at least one report carries them.
var SeverityFields = []string{"serious", "seriousnesshospitalization", "seriousnessother"}

// Summary is everything the adverse-event dashboard plots.
type Summary struct {
	TopReactions    []model.CountEntry            `json:"top_reactions"`
	EventsPerMonth  []model.CountEntry            `json:"events_per_month"`
	SexDistribution []model.CountEntry            `json:"sex_distribution,omitempty"`
	OnsetAges       []float64                     `json:"onset_ages,omitempty"`
	AgeHistogram    []model.CountEntry            `json:"age_histogram,omitempty"`
	Severity        map[string][]model.CountEntry `json:"severity,omitempty"`
}

// Analyze aggregates flattened reports. It returns ErrFormat when no report
// has a reaction list, since the top-reactions chart cannot be drawn.
func Analyze(events []model.AdverseEvent) (*Summary, error) {
	if !hasColumn(events, reactionKey) {
		return nil, fmt.Errorf("%w: missing %s", ErrFormat, reactionKey)
	}

	s := &Summary{
		TopReactions:   reactionCounts(events),
		EventsPerMonth: monthlyCounts(events),
	}

	if hasColumn(events, sexKey) {
		s.SexDistribution = valueCounts(events, sexKey)
	}
	if hasColumn(events, onsetAgeKey) {
		s.OnsetAges = onsetAges(events)
		s.AgeHistogram = ageHistogram(s.OnsetAges)
	}
	for _, field := range SeverityFields {
		if !hasColumn(events, field) {
			continue
		}
		if s.Severity == nil {
			s.Severity = map[string][]model.CountEntry{}
		}
		s.Severity[field] = valueCounts(events, field)
	}
	return s, nil
}

func hasColumn(events []model.AdverseEvent, key string) bool {
	for _, e := range events {
		if _, ok := e[key]; ok {
			return true
		}
	}
	return false
}

// counter keeps first-seen order so ties rank by appearance.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter { return &counter{counts: map[string]int{}} }

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) byCountDesc() []model.CountEntry {
	out := make([]model.CountEntry, 0, len(c.order))
	for _, l := range c.order {
		out = append(out, model.CountEntry{Label: l, Count: c.counts[l]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func (c *counter) byLabel() []model.CountEntry {
	out := c.byCountDesc()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func reactionCounts(events []model.AdverseEvent) []model.CountEntry {
	c := newCounter()
	for _, e := range events {
		list, ok := e[reactionKey].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			r, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, ok := r["reactionmeddrapt"]
			if !ok || name == nil {
				c.add("Unknown")
				continue
			}
			c.add(label(name))
		}
	}
	out := c.byCountDesc()
	if len(out) > topReactions {
		out = out[:topReactions]
	}
	return out
}

var receiveLayouts = []string{"20060102", "2006-01-02", time.RFC3339}

func parseReceived(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range receiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// monthlyCounts groups by YYYY-MM ascending; unparseable dates are dropped.
func monthlyCounts(events []model.AdverseEvent) []model.CountEntry {
	c := newCounter()
	for _, e := range events {
		t, ok := parseReceived(e[receivedKey])
		if !ok {
			continue
		}
		c.add(t.Format("2006-01"))
	}
	return c.byLabel()
}

// valueCounts counts non-null values of key, most frequent first.
func valueCounts(events []model.AdverseEvent, key string) []model.CountEntry {
	c := newCounter()
	for _, e := range events {
		v, ok := e[key]
		if !ok || v == nil {
			continue
		}
		c.add(label(v))
	}
	return c.byCountDesc()
}

func onsetAges(events []model.AdverseEvent) []float64 {
	ages := make([]float64, 0, len(events))
	for _, e := range events {
		if age, ok := toFloat(e[onsetAgeKey]); ok {
			ages = append(ages, age)
		}
	}
	return ages
}

// ageHistogram buckets ages into ten-year bins labelled "40-49".
func ageHistogram(ages []float64) []model.CountEntry {
	bins := map[int]int{}
	for _, a := range ages {
		bins[int(math.Floor(a/ageBinWidth))*ageBinWidth]++
	}
	starts := make([]int, 0, len(bins))
	for start := range bins {
		starts = append(starts, start)
	}
	sort.Ints(starts)

	out := make([]model.CountEntry, 0, len(starts))
	for _, start := range starts {
		out = append(out, model.CountEntry{
			Label: fmt.Sprintf("%d-%d", start, start+ageBinWidth-1),
			Count: bins[start],
		})
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func label(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
