// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"bufio"
	"io"
	"strings"

	"github.com/juju/errors"
)

// QuoteField quotes a CSV field if it contains the separator, a quote or a line break.
func QuoteField(text string, sep rune) string {
	if !strings.ContainsRune(text, sep) && !strings.ContainsAny(text, "\"\r\n") {
		return text
	}
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

// RecordReader reads records of a CSV stream. A quoted field may span lines, and a doubled
// quote inside quotes stands for one quote.
type RecordReader struct {
	scanner *bufio.Scanner
	sep     rune
	line    int
	start   int
}

func NewRecordReader(r io.Reader, sep rune) *RecordReader {
	return &RecordReader{scanner: bufio.NewScanner(r), sep: sep}
}

// Line returns the 1-based line number where the last record read started.
func (r *RecordReader) Line() int {
	return r.start
}

// Read returns the next record, or io.EOF once the stream is exhausted. A quote still open at
// the end of the stream is not valid.
func (r *RecordReader) Read() ([]string, error) {
	var (
		fields []string
		field  strings.Builder
		quoted bool
	)
	r.start = r.line + 1
	for r.scanner.Scan() {
		r.line++
		if quoted {
			field.WriteByte('\n')
		}
		chars := []rune(r.scanner.Text())
		for i := 0; i < len(chars); i++ {
			switch c := chars[i]; {
			case quoted && c == '"' && i+1 < len(chars) && chars[i+1] == '"':
				field.WriteRune('"')
				i++
			case c == '"':
				quoted = !quoted
			case c == r.sep && !quoted:
				fields = append(fields, field.String())
				field.Reset()
			default:
				field.WriteRune(c)
			}
		}
		if !quoted {
			return append(fields, field.String()), nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if quoted {
		return nil, errors.NotValidf("quote opened at line %d", r.start)
	}
	return nil, io.EOF
}
