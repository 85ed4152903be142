package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/funnel-cli/internal/config"
	"github.com/sells-group/funnel-cli/internal/funnel"
	"github.com/sells-group/funnel-cli/internal/ingest"
	"github.com/sells-group/funnel-cli/internal/model"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testEngine(t *testing.T) *funnel.Engine {
	t.Helper()
	eng, err := newEngine(config.EngineConfig{
		TimeWindowHours:       24,
		AttributionWindowDays: 7,
		Workers:               2,
		BatchSize:             2,
		DefaultFunnel:         "purchase_funnel",
		Dimensions:            []string{"platform"},
	})
	require.NoError(t, err)
	return eng
}

func ev(user, name string, offset time.Duration) model.Event {
	return model.Event{UserID: user, Name: name, Timestamp: t0.Add(offset), Dimensions: map[string]string{"platform": "web"}}
}

// testEvents has one buyer, one browser and one bounce.
func testEvents() []model.Event {
	return []model.Event{
		ev("u1", "page_view", 0),
		ev("u1", "view_item", time.Minute),
		ev("u1", "add_to_cart", 2*time.Minute),
		ev("u1", "begin_checkout", 3*time.Minute),
		ev("u1", "purchase", 4*time.Minute),
		ev("u2", "page_view", 0),
		ev("u2", "view_item", 10*time.Minute),
		ev("u3", "page_view", time.Hour),
	}
}

func testBatch() *ingest.Batch {
	return &ingest.Batch{Events: testEvents()}
}
