package funnel

import (
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funnel-cli/internal/model"
)

// MatchJourney greedily matches one user's events against an ordered list
// of steps. events must belong to userID and be sorted by timestamp.
//
// Step 0 takes the earliest occurrence of its event. Every later step takes
// the earliest occurrence that is not before the previous match and at most
// window after it (inclusive). Matching stops at the first step with no
// qualifying occurrence. The result is nil when the user never fired step 0.
func MatchJourney(userID string, events []model.Event, steps []string, window time.Duration) (*model.UserJourney, error) {
	if err := checkUserEvents(userID, events); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, nil
	}

	first := slices.IndexFunc(events, func(e model.Event) bool { return e.Name == steps[0] })
	if first < 0 {
		return nil, nil
	}

	start := events[first].Timestamp
	j := &model.UserJourney{
		UserID:         userID,
		CompletedSteps: []string{steps[0]},
		StepTimes:      map[string]time.Time{steps[0]: start},
		StepDurations:  map[string]time.Duration{},
	}

	prev := start
	for i := 1; i < len(steps); i++ {
		t, ok := nextOccurrence(events, steps[i], prev, window)
		if !ok {
			break
		}
		j.StepDurations[model.TransitionKey(steps[i-1], steps[i])] = t.Sub(prev)
		j.CompletedSteps = append(j.CompletedSteps, steps[i])
		j.StepTimes[steps[i]] = t
		prev = t
	}

	j.CompletedAllSteps = len(j.CompletedSteps) == len(steps)
	if len(j.CompletedSteps) > 1 {
		total := prev.Sub(start)
		j.TotalTime = &total
	}
	if j.CompletedAllSteps {
		j.ConversionStatus = model.StatusConverted
	} else {
		j.DropOffStep = j.CompletedSteps[len(j.CompletedSteps)-1]
		j.ConversionStatus = model.StatusDroppedOff
	}
	return j, nil
}

// nextOccurrence returns the earliest event named name in [after, after+window].
func nextOccurrence(events []model.Event, name string, after time.Time, window time.Duration) (time.Time, bool) {
	lo, _ := slices.BinarySearchFunc(events, after, func(e model.Event, t time.Time) int {
		return e.Timestamp.Compare(t)
	})
	deadline := after.Add(window)
	for _, e := range events[lo:] {
		if e.Timestamp.After(deadline) {
			break
		}
		if e.Name == name {
			return e.Timestamp, true
		}
	}
	return time.Time{}, false
}

// checkUserEvents rejects a user record the matcher cannot reason about.
func checkUserEvents(userID string, events []model.Event) error {
	for i, e := range events {
		if e.UserID != userID {
			return eris.Errorf("funnel: event %d belongs to user %q, not %q", i, e.UserID, userID)
		}
		if e.Timestamp.IsZero() {
			return eris.Errorf("funnel: event %d (%s) has no timestamp", i, e.Name)
		}
		if i > 0 && e.Timestamp.Before(events[i-1].Timestamp) {
			return eris.Errorf("funnel: event %d (%s) is out of order", i, e.Name)
		}
	}
	return nil
}
