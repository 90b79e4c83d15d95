// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/datasheet-export/pkg/types"
)

// Delimiter separates fields in every source file.
const Delimiter = '|'

// bom is the byte-order mark that spreadsheet exports leave on the first header.
const bom = "\ufeff"

// ReadDataset reads the pipe-delimited file at path and returns one cleaned
// Row per data record. The first record names the columns. A missing file
// is reported as a KindNotFound error.
func ReadDataset(path string) (types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Kind: KindNotFound, Path: path, Err: err}
		}
		return nil, &Error{Kind: KindGeneric, Path: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &Error{Kind: KindGeneric, Path: path, Err: fmt.Errorf("reading: %w", err)}
	}

	ds, err := ParseDataset(data)
	if err != nil {
		return nil, &Error{Kind: KindGeneric, Path: path, Err: err}
	}
	return ds, nil
}

// ParseDataset parses pipe-delimited UTF-8 text with a header record.
// Records shorter than the header are padded with empty values; records
// longer than the header are rejected.
func ParseDataset(data []byte) (types.Dataset, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("input is not valid UTF-8")
	}

	r := newRecordReader(string(data))
	ds := types.Dataset{}

	header, _, err := r.Read()
	if err == io.EOF {
		return ds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = CleanKey(h)
	}

	for {
		record, line, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", len(ds)+1, err)
		}
		if len(record) > len(keys) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(record), len(keys))
		}

		row := types.NewRow(len(keys))
		for i, k := range keys {
			v := ""
			if i < len(record) {
				v = CleanValue(record[i])
			}
			row.Set(k, v)
		}
		ds = append(ds, row)
	}

	return ds, nil
}

// CleanKey trims surrounding white space from a header field and removes
// any byte-order mark.
func CleanKey(k string) string {
	return strings.TrimSpace(strings.ReplaceAll(k, bom, ""))
}

// CleanValue trims surrounding white space from a cell value.
func CleanValue(v string) string {
	return strings.TrimSpace(v)
}
