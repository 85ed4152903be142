// Package ingest turns tabular event exports into model.Event batches. The
// header is mapped to typed columns once per batch; rows are then decoded
// positionally.
package ingest

import (
	"strings"

	"github.com/sells-group/funnel-cli/internal/model"
)

// Recognised column names. Matching is case-insensitive.
const (
	ColUserID       = "user_id"
	ColUserPseudoID = "user_pseudo_id"
	ColEventName    = "event_name"
	ColDatetime     = "event_datetime"
	ColTimestamp    = "event_timestamp"
)

// Columns holds header positions. Datetime and Timestamp are -1 when the
// column is absent; at least one of them is present.
type Columns struct {
	User       int
	Name       int
	Datetime   int
	Timestamp  int
	Dimensions map[string]int
}

// MapHeader resolves the event columns of header. Dimension columns that
// are not in the header are ignored.
func MapHeader(header []string, dimensions []string) (*Columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	cols := &Columns{
		User:       lookup(ColUserID),
		Name:       lookup(ColEventName),
		Datetime:   lookup(ColDatetime),
		Timestamp:  lookup(ColTimestamp),
		Dimensions: make(map[string]int),
	}
	if cols.User < 0 {
		cols.User = lookup(ColUserPseudoID)
	}

	switch {
	case cols.User < 0:
		return nil, model.NewConfigError(ColUserID, "column not found in input")
	case cols.Name < 0:
		return nil, model.NewConfigError(ColEventName, "column not found in input")
	case cols.Datetime < 0 && cols.Timestamp < 0:
		return nil, model.NewConfigError(ColDatetime+"|"+ColTimestamp, "no time column found in input")
	}

	for _, d := range dimensions {
		if i := lookup(strings.ToLower(d)); i >= 0 {
			cols.Dimensions[d] = i
		}
	}
	return cols, nil
}
