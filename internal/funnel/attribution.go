package funnel

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/model"
)

// attributionTally is the partial attribution result for a chunk of users.
type attributionTally struct {
	first    map[string]int
	last     map[string]int
	multi    map[string]float64
	credited int
	skipped  int
	warnings []model.Warning
}

func newAttributionTally() *attributionTally {
	return &attributionTally{
		first: make(map[string]int),
		last:  make(map[string]int),
		multi: make(map[string]float64),
	}
}

// attributeUser credits the events preceding each of one user's conversions.
// events must be sorted by timestamp. For a conversion at t the window is
// every event in [t-window, t] except that conversion instance itself.
// Conversions with an empty window are counted as skipped.
func attributeUser(t *attributionTally, events []model.Event, conversions map[string]struct{}, window time.Duration) {
	for k, conv := range events {
		if _, ok := conversions[conv.Name]; !ok {
			continue
		}
		at := conv.Timestamp
		lo := sort.Search(len(events), func(i int) bool { return !events[i].Timestamp.Before(at.Add(-window)) })
		hi := sort.Search(len(events), func(i int) bool { return events[i].Timestamp.After(at) })

		firstIdx, lastIdx := lo, hi-1
		if firstIdx == k {
			firstIdx++
		}
		if lastIdx == k {
			lastIdx--
		}
		if firstIdx > lastIdx {
			t.skipped++
			continue
		}

		t.credited++
		t.first[events[firstIdx].Name]++
		t.last[events[lastIdx].Name]++

		distinct := make([]string, 0, hi-lo)
		for i := lo; i < hi; i++ {
			if i == k || slices.Contains(distinct, events[i].Name) {
				continue
			}
			distinct = append(distinct, events[i].Name)
		}
		weight := 1 / float64(len(distinct))
		for _, name := range distinct {
			t.multi[name] += weight
		}
	}
}

func (e *Engine) attributeChunk(b *batch, window time.Duration) func(lo, hi int) *attributionTally {
	return func(lo, hi int) *attributionTally {
		t := newAttributionTally()
		for u := lo; u < hi; u++ {
			span := b.users[u]
			events := b.userEvents(u)
			if err := checkUserEvents(span.UserID, events); err != nil {
				zap.L().Warn("funnel: excluding user from attribution",
					zap.String("user_id", span.UserID),
					zap.Error(err),
				)
				t.warnings = append(t.warnings, excludedUser(span.UserID, err))
				continue
			}
			attributeUser(t, events, e.conversions, window)
		}
		return t
	}
}

// mergeAttribution folds chunk tallies into a result in chunk order.
func mergeAttribution(tallies []*attributionTally) *model.AttributionResult {
	res := model.NewAttributionResult()
	for _, t := range tallies {
		for k, v := range t.first {
			res.FirstTouch[k] += v
		}
		for k, v := range t.last {
			res.LastTouch[k] += v
		}
		for k, v := range t.multi {
			res.MultiTouch[k] += v
		}
		res.Conversions += t.credited
		res.Skipped += t.skipped
		res.Warnings = append(res.Warnings, t.warnings...)
	}
	res.Insights = attributionInsights(res)
	return res
}

func attributionInsights(res *model.AttributionResult) []string {
	p := newPrinter()
	insights := []string{}
	if name, n, ok := topCredit(res.FirstTouch); ok {
		insights = append(insights, p.Sprintf("First-touch: %s is credited with %d conversions", name, n))
	}
	if name, n, ok := topCredit(res.LastTouch); ok {
		insights = append(insights, p.Sprintf("Last-touch: %s is credited with %d conversions", name, n))
	}
	if name, w, ok := topCredit(res.MultiTouch); ok {
		insights = append(insights, p.Sprintf("Multi-touch: %s carries the most weight (%.2f)", name, w))
	}
	return insights
}

// topCredit returns the highest-credited name; ties go to the
// lexicographically smallest name.
func topCredit[V int | float64](m map[string]V) (string, V, bool) {
	var (
		best  string
		value V
		found bool
	)
	for name, v := range m {
		if !found || v > value || (v == value && cmp.Less(name, best)) {
			best, value, found = name, v, true
		}
	}
	return best, value, found
}
