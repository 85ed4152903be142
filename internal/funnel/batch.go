package funnel

import (
	"cmp"
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/funnel-cli/internal/model"
)

// userSpan indexes one user's events inside a batch.
type userSpan struct {
	UserID string
	Lo, Hi int
}

// batch holds events sorted by (user, timestamp) plus one span per user.
type batch struct {
	events  []model.Event
	users   []userSpan
	dropped int
}

// newBatch copies events, drops rows without a user id, sorts once and
// groups the result into per-user spans in a single linear scan.
func newBatch(events []model.Event) *batch {
	sorted := make([]model.Event, 0, len(events))
	dropped := 0
	for _, e := range events {
		if e.UserID == "" {
			dropped++
			continue
		}
		sorted = append(sorted, e)
	}

	// Stable so that events sharing a timestamp keep their input order.
	slices.SortStableFunc(sorted, func(a, b model.Event) int {
		if c := cmp.Compare(a.UserID, b.UserID); c != 0 {
			return c
		}
		return a.Timestamp.Compare(b.Timestamp)
	})

	b := &batch{events: sorted, dropped: dropped}
	for lo := 0; lo < len(sorted); {
		hi := lo + 1
		for hi < len(sorted) && sorted[hi].UserID == sorted[lo].UserID {
			hi++
		}
		b.users = append(b.users, userSpan{UserID: sorted[lo].UserID, Lo: lo, Hi: hi})
		lo = hi
	}
	return b
}

func (b *batch) userEvents(i int) []model.Event {
	s := b.users[i]
	return b.events[s.Lo:s.Hi]
}

func (b *batch) empty() bool {
	return len(b.users) == 0
}

// forEachChunk splits the batch's users into fixed-size chunks and runs fn
// on each with at most workers in flight. Results come back in chunk order,
// so merging them is independent of scheduling.
func forEachChunk[T any](ctx context.Context, b *batch, size, workers int, fn func(lo, hi int) T) ([]T, error) {
	n := len(b.users)
	if n == 0 {
		return nil, nil
	}
	chunks := (n + size - 1) / size
	out := make([]T, chunks)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := range chunks {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			lo := c * size
			out[c] = fn(lo, min(lo+size, n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "funnel: process user chunks")
	}
	return out, nil
}
