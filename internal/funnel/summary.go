package funnel

import (
	"github.com/sells-group/funnel-cli/internal/model"
)

// Summarize describes a batch of events: volumes, conversion event usage,
// date range and the funnels this engine knows about.
func (e *Engine) Summarize(events []model.Event) *model.Summary {
	s := &model.Summary{
		AvailableFunnels:            e.FunnelNames(),
		ConversionEventDistribution: make(map[string]int),
	}

	users := make(map[string]struct{})
	names := make(map[string]struct{})
	convUsers := make(map[string]struct{})
	for _, ev := range events {
		s.TotalEvents++
		if ev.UserID != "" {
			users[ev.UserID] = struct{}{}
		}
		names[ev.Name] = struct{}{}

		if _, ok := e.conversions[ev.Name]; ok {
			s.ConversionEventsCount++
			s.ConversionEventDistribution[ev.Name]++
			if ev.UserID != "" {
				convUsers[ev.UserID] = struct{}{}
			}
		}

		if ev.Timestamp.IsZero() {
			continue
		}
		if s.DateRange == nil {
			s.DateRange = &model.DateRange{Start: ev.Timestamp, End: ev.Timestamp}
			continue
		}
		if ev.Timestamp.Before(s.DateRange.Start) {
			s.DateRange.Start = ev.Timestamp
		}
		if ev.Timestamp.After(s.DateRange.End) {
			s.DateRange.End = ev.Timestamp
		}
	}

	s.UniqueUsers = len(users)
	s.UniqueEventTypes = len(names)
	s.ConversionUsersCount = len(convUsers)
	s.ConversionUserRate = ratio(len(convUsers), len(users))
	return s
}
