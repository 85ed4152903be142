package ingest

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/funnel-cli/internal/fetcher"
	"github.com/sells-group/funnel-cli/internal/model"
	"github.com/sells-group/funnel-cli/internal/resilience"
)

const csvExport = "user_id,event_name,event_datetime,platform\n" +
	"u1,page_view,2024-03-01 09:00:00,web\n" +
	"u1,sign_up,2024-03-01 09:10:00,web\n" +
	",page_view,2024-03-01 09:00:00,web\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSelectQuery(t *testing.T) {
	t.Parallel()

	q, err := selectQuery("events", 0)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM events", q)

	q, err = selectQuery("analytics.events", 10)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM analytics.events LIMIT 10", q)

	for _, bad := range []string{"", "events; DROP TABLE x", "a.b.c", "1events"} {
		_, err := selectQuery(bad, 0)
		assert.True(t, model.IsConfigError(err), bad)
	}
	_, err = selectQuery("events", -1)
	assert.True(t, model.IsConfigError(err))
}

func TestFileLoader_CSV(t *testing.T) {
	path := writeFile(t, "events.csv", csvExport)

	b, err := (&FileLoader{Path: path, Dimensions: []string{"platform"}}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 3, Events: 2, DroppedRows: 1}, b.Stats)
	assert.Equal(t, "sign_up", b.Events[1].Name)
	assert.Equal(t, "web", b.Events[1].Dimensions["platform"])
}

func TestFileLoader_TSV(t *testing.T) {
	path := writeFile(t, "events.tsv", "user_id\tevent_name\tevent_timestamp\nu1\ta\t1709283600000000\n")

	b, err := (&FileLoader{Path: path}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Events, 1)
	assert.Equal(t, t0, b.Events[0].Timestamp)
}

func TestFileLoader_CSVMissingTimeColumn(t *testing.T) {
	path := writeFile(t, "events.csv", "user_id,event_name\n")

	_, err := (&FileLoader{Path: path}).Load(context.Background())
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "event_datetime|event_timestamp", cfgErr.Field)
}

func TestFileLoader_JSON(t *testing.T) {
	path := writeFile(t, "events.json", `[
		{"user_pseudo_id": "u1", "event_name": "page_view", "event_timestamp": 1709283600000000},
		{"user_pseudo_id": "u2", "event_name": "sign_up", "event_timestamp": 1709283660000000, "geo_country": "US"}
	]`)

	b, err := (&FileLoader{Path: path, Dimensions: []string{"geo_country"}}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Events, 2)
	assert.Equal(t, t0, b.Events[0].Timestamp)
	assert.Equal(t, t0.Add(time.Minute), b.Events[1].Timestamp)
	assert.Equal(t, "US", b.Events[1].Dimensions["geo_country"])
}

func TestFileLoader_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("events")
	require.NoError(t, err)
	for _, rowData := range [][]string{
		{"user_id", "event_name", "event_datetime"},
		{"u1", "page_view", "2024-03-01T09:00:00Z"},
	} {
		row := sheet.AddRow()
		for _, c := range rowData {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "events.xlsx")
	require.NoError(t, f.Save(path))

	b, err := (&FileLoader{Path: path}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, b.Events, 1)
	assert.Equal(t, t0, b.Events[0].Timestamp)
}

func TestFileLoader_Unsupported(t *testing.T) {
	_, err := (&FileLoader{Path: "events.parquet"}).Load(context.Background())
	assert.True(t, model.IsConfigError(err))

	_, err = (&FileLoader{}).Load(context.Background())
	assert.True(t, model.IsConfigError(err))
}

func TestFileLoader_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(csvExport))
	}))
	defer srv.Close()

	l := &FileLoader{
		Path: srv.URL + "/exports/events.csv",
		Fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			RequestsPerSecond: 1000,
			Retry:             resilience.RetryConfig{MaxAttempts: 1},
		}),
	}
	b, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, b.Events, 2)
}

func TestSQLiteLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	sqlDB, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer sqlDB.Close() //nolint:errcheck

	_, err = sqlDB.Exec(`CREATE TABLE events (user_id TEXT, event_name TEXT, event_timestamp INTEGER, platform TEXT)`)
	require.NoError(t, err)
	_, err = sqlDB.Exec(`INSERT INTO events VALUES (?, 'page_view', ?, 'web'), (?, 'sign_up', ?, NULL), (NULL, 'x', ?, NULL)`,
		"u1", t0.UnixMicro(), "u1", t0.Add(time.Minute).UnixMicro(), t0.UnixMicro())
	require.NoError(t, err)

	l := &SQLiteLoader{DB: sqlDB, Table: "events", Dimensions: []string{"platform"}}
	b, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 3, Events: 2, DroppedRows: 1}, b.Stats)
	assert.Equal(t, "web", b.Events[0].Dimensions["platform"])
	assert.Equal(t, t0.Add(time.Minute), b.Events[1].Timestamp)

	l.Limit = 1
	b, err = l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, b.Stats.Rows)
}

func TestPostgresLoader(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows([]string{"user_id", "event_name", "event_datetime"}).
		AddRow("u1", "page_view", t0).
		AddRow("u1", "purchase", t0.Add(time.Hour)).
		AddRow("", "page_view", t0)
	mock.ExpectQuery(`SELECT \* FROM events LIMIT 100`).WillReturnRows(rows)

	l := &PostgresLoader{Pool: mock, Table: "events", Limit: 100}
	b, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 3, Events: 2, DroppedRows: 1}, b.Stats)
	assert.Equal(t, t0.Add(time.Hour), b.Events[1].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT \* FROM events`).WillReturnError(errors.New("relation does not exist"))

	_, err = (&PostgresLoader{Pool: mock, Table: "events"}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relation does not exist")
}

type fakeTypedRows struct {
	data [][]any
	pos  int
}

func (r *fakeTypedRows) Next() bool { r.pos++; return r.pos <= len(r.data) }
func (r *fakeTypedRows) Err() error { return nil }

func (r *fakeTypedRows) Scan(dest ...any) error {
	for i, v := range r.data[r.pos-1] {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestReadTyped(t *testing.T) {
	t.Parallel()

	name := "sign_up"
	rows := &fakeTypedRows{data: [][]any{
		{"u1", &name, t0},
		{"u2", (*string)(nil), t0},
	}}
	types := []reflect.Type{
		reflect.TypeOf(""),
		reflect.TypeOf((*string)(nil)),
		reflect.TypeOf(time.Time{}),
	}

	b, err := readTyped(context.Background(), rows, []string{"user_id", "event_name", "event_datetime"}, types, nil)
	require.NoError(t, err)
	require.Len(t, b.Events, 2)
	assert.Equal(t, "sign_up", b.Events[0].Name)
	assert.Equal(t, "", b.Events[1].Name)
	assert.Equal(t, t0, b.Events[1].Timestamp)
}

func TestOpen(t *testing.T) {
	l, closer, err := Open(context.Background(), SourceConfig{Driver: DriverFile, Path: "x.csv"}, nil)
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.IsType(t, &FileLoader{}, l)

	for _, cfg := range []SourceConfig{
		{Driver: "mongo"},
		{Driver: DriverSQLite},
		{Driver: DriverPostgres},
		{Driver: DriverClickHouse},
	} {
		_, _, err := Open(context.Background(), cfg, nil)
		assert.True(t, model.IsConfigError(err), cfg.Driver)
	}
}
