package funnel

import (
	"testing"
	"time"

	"github.com/sells-group/funnel-cli/internal/model"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func ev(user, name string, offset time.Duration) model.Event {
	return model.Event{UserID: user, Name: name, Timestamp: t0.Add(offset)}
}

func testOptions() Options {
	return Options{
		Funnels: []model.FunnelDefinition{
			{Name: "user_registration", Steps: []string{"page_view", "sign_up", "login"}},
			{Name: "purchase_funnel", Steps: []string{"page_view", "view_item", "add_to_cart", "begin_checkout", "purchase"}},
		},
		ConversionEvents:  []string{"sign_up", "login", "purchase", "add_to_cart", "begin_checkout"},
		TimeWindow:        24 * time.Hour,
		AttributionWindow: 7 * 24 * time.Hour,
		DefaultFunnel:     "purchase_funnel",
		Dimensions:        []string{"platform"},
		Workers:           4,
		BatchSize:         3,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}
