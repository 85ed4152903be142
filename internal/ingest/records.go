package ingest

import (
	"slices"
)

// FromRecords decodes keyed records, such as the elements of a JSON array.
// The header is the sorted union of all record keys. An empty record list
// yields an empty batch.
func FromRecords(records []map[string]any, dimensions []string) (*Batch, error) {
	if len(records) == 0 {
		return &Batch{}, nil
	}

	seen := make(map[string]struct{})
	var header []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				header = append(header, k)
			}
		}
	}
	slices.Sort(header)

	dec, err := NewDecoder(header, dimensions)
	if err != nil {
		return nil, err
	}

	row := make([]any, len(header))
	for _, rec := range records {
		for i, k := range header {
			row[i] = rec[k]
		}
		dec.Add(row)
	}
	return dec.Batch(), nil
}
