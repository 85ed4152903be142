package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/funnel-cli/internal/model"
)

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
}

// Stats counts what happened to the rows of a batch.
type Stats struct {
	Rows          int `json:"rows"`
	Events        int `json:"events"`
	DroppedRows   int `json:"dropped_rows"`
	BadTimestamps int `json:"bad_timestamps"`
}

// Batch is a decoded set of events.
type Batch struct {
	Events []model.Event
	Stats  Stats
}

// Warnings reports rows that were dropped during decoding.
func (b *Batch) Warnings() []model.Warning {
	if b == nil || b.Stats.DroppedRows == 0 {
		return nil
	}
	return []model.Warning{{
		Code:    model.WarningDroppedRows,
		Message: fmt.Sprintf("%d rows without a user id were dropped", b.Stats.DroppedRows),
	}}
}

// Decoder converts positional rows into events using a mapped header.
type Decoder struct {
	cols  *Columns
	batch Batch
}

// NewDecoder maps header and returns a Decoder for its rows.
func NewDecoder(header []string, dimensions []string) (*Decoder, error) {
	cols, err := MapHeader(header, dimensions)
	if err != nil {
		return nil, err
	}
	return &Decoder{cols: cols}, nil
}

// Add decodes one row. Values may be strings, byte slices, numbers,
// json.Number, time.Time or pointers to any of these.
func (d *Decoder) Add(row []any) {
	d.batch.Stats.Rows++

	userID := stringValue(cell(row, d.cols.User))
	if userID == "" {
		d.batch.Stats.DroppedRows++
		return
	}

	ts, ok := d.timestamp(row)
	if !ok {
		d.batch.Stats.BadTimestamps++
	}

	ev := model.Event{
		UserID:    userID,
		Name:      stringValue(cell(row, d.cols.Name)),
		Timestamp: ts,
	}
	for dim, i := range d.cols.Dimensions {
		if v := stringValue(cell(row, i)); v != "" {
			if ev.Dimensions == nil {
				ev.Dimensions = make(map[string]string, len(d.cols.Dimensions))
			}
			ev.Dimensions[dim] = v
		}
	}

	d.batch.Events = append(d.batch.Events, ev)
	d.batch.Stats.Events++
}

// AddStrings decodes a row of text cells.
func (d *Decoder) AddStrings(row []string) {
	vals := make([]any, len(row))
	for i, s := range row {
		vals[i] = s
	}
	d.Add(vals)
}

// Batch returns the events decoded so far.
func (d *Decoder) Batch() *Batch {
	b := d.batch
	return &b
}

// timestamp prefers event_datetime and falls back to event_timestamp
// (microseconds since the epoch) when the datetime cell is empty or does
// not parse.
func (d *Decoder) timestamp(row []any) (time.Time, bool) {
	if d.cols.Datetime >= 0 {
		v := deref(cell(row, d.cols.Datetime))
		if !isEmpty(v) {
			if ts, ok := parseDatetime(v); ok {
				return ts, true
			}
		}
	}
	if d.cols.Timestamp >= 0 {
		v := deref(cell(row, d.cols.Timestamp))
		if !isEmpty(v) {
			return parseMicros(v)
		}
	}
	return time.Time{}, false
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// deref follows pointers until a non-pointer value or nil.
func deref(v any) any {
	for v != nil {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		v = rv.Elem().Interface()
	}
	return nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []byte:
		return len(strings.TrimSpace(string(x))) == 0
	case time.Time:
		return x.IsZero()
	}
	return false
}

func stringValue(v any) string {
	switch x := deref(v).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []byte:
		return strings.TrimSpace(string(x))
	case json.Number:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func parseDatetime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string, []byte:
		s := stringValue(x)
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func parseMicros(v any) (time.Time, bool) {
	var us int64
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case int64:
		us = x
	case int:
		us = int64(x)
	case int32:
		us = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return time.Time{}, false
		}
		us = int64(x)
	case uint32:
		us = int64(x)
	case float64:
		us = int64(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return time.Time{}, false
			}
			n = int64(f)
		}
		us = n
	case string, []byte:
		n, err := strconv.ParseInt(stringValue(x), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		us = n
	default:
		return time.Time{}, false
	}
	if us <= 0 {
		return time.Time{}, false
	}
	return time.UnixMicro(us).UTC(), true
}
