// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
)

// Row is one record of a source file: an ordered mapping from cleaned
// column name to cleaned cell value. Keys keep the order of their first
// insertion; setting an existing key replaces its value in place.
// The zero value is an empty row ready to use.
type Row struct {
	keys   []string
	values map[string]string
}

// NewRow returns an empty row with room for n columns.
func NewRow(n int) Row {
	return Row{
		keys:   make([]string, 0, n),
		values: make(map[string]string, n),
	}
}

// Set stores value under key.
func (r *Row) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value stored under key and whether it is present.
func (r Row) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the column names in insertion order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// MarshalJSON encodes the row as a JSON object in column order. Strings are
// written without HTML escaping so that source text round-trips literally.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, r.values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Dataset is the ordered sequence of rows read from one source file.
type Dataset []Row
