// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"
	"strings"
)

const quote = '"'

type fieldState int

const (
	startField fieldState = iota
	inField
	inQuoted
	quoteInQuoted
)

// recordReader splits delimited text into records. Quoting follows the
// conventions of spreadsheet exports: a field that starts with a quote runs
// to the matching quote, a doubled quote inside it is a literal quote, and
// text after the closing quote is appended to the field up to the next
// delimiter. A quote anywhere else is an ordinary character. "\r\n" and a
// lone "\r" end a record like "\n" does, and blank lines are skipped.
type recordReader struct {
	data string
	pos  int
	line int
}

func newRecordReader(data string) *recordReader {
	return &recordReader{data: data, line: 1}
}

// Read returns the next record and the line it starts on, or io.EOF.
func (r *recordReader) Read() ([]string, int, error) {
	for r.pos < len(r.data) && isNewline(r.data[r.pos]) {
		r.skipNewline()
	}
	if r.pos >= len(r.data) {
		return nil, 0, io.EOF
	}

	start := r.line
	var fields []string
	var b strings.Builder
	state := startField

	for r.pos < len(r.data) {
		c := r.data[r.pos]
		switch state {
		case startField:
			if c == quote {
				state = inQuoted
				r.pos++
				continue
			}
			state = inField
		case inField, quoteInQuoted:
			switch {
			case state == quoteInQuoted && c == quote:
				b.WriteByte(quote)
				state = inQuoted
				r.pos++
			case c == Delimiter:
				fields = append(fields, b.String())
				b.Reset()
				state = startField
				r.pos++
			case isNewline(c):
				r.skipNewline()
				return append(fields, b.String()), start, nil
			default:
				b.WriteByte(c)
				state = inField
				r.pos++
			}
		case inQuoted:
			switch {
			case c == quote:
				state = quoteInQuoted
				r.pos++
			case isNewline(c):
				b.WriteByte('\n')
				r.skipNewline()
			default:
				b.WriteByte(c)
				r.pos++
			}
		}
	}

	if state == inQuoted {
		return nil, start, fmt.Errorf("line %d: quoted field is not closed", start)
	}
	return append(fields, b.String()), start, nil
}

func (r *recordReader) skipNewline() {
	if r.data[r.pos] == '\r' && r.pos+1 < len(r.data) && r.data[r.pos+1] == '\n' {
		r.pos++
	}
	r.pos++
	r.line++
}

func isNewline(c byte) bool {
	return c == '\n' || c == '\r'
}
