package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funnel-cli/internal/model"
)

func TestMapHeader(t *testing.T) {
	t.Parallel()

	cols, err := MapHeader([]string{"Event_Name", "USER_ID", "event_datetime", "platform", "extra"}, []string{"platform", "geo_country"})
	require.NoError(t, err)
	assert.Equal(t, 1, cols.User)
	assert.Equal(t, 0, cols.Name)
	assert.Equal(t, 2, cols.Datetime)
	assert.Equal(t, -1, cols.Timestamp)
	assert.Equal(t, map[string]int{"platform": 3}, cols.Dimensions)
}

func TestMapHeader_PseudoIDFallback(t *testing.T) {
	t.Parallel()

	cols, err := MapHeader([]string{"user_pseudo_id", "event_name", "event_timestamp"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cols.User)
	assert.Equal(t, -1, cols.Datetime)
	assert.Equal(t, 2, cols.Timestamp)
}

func TestMapHeader_PrefersUserID(t *testing.T) {
	t.Parallel()

	cols, err := MapHeader([]string{"user_pseudo_id", "user_id", "event_name", "event_timestamp"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cols.User)
}

func TestMapHeader_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []string
		field  string
	}{
		{"no user", []string{"event_name", "event_datetime"}, "user_id"},
		{"no name", []string{"user_id", "event_datetime"}, "event_name"},
		{"no time", []string{"user_id", "event_name"}, "event_datetime|event_timestamp"},
		{"empty", nil, "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapHeader(tt.header, nil)
			require.Error(t, err)
			var cfgErr *model.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
