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
	"io"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteField(t *testing.T) {
	assert.Equal(t, "Samsung", QuoteField("Samsung", ','))
	assert.Equal(t, `"""Galaxy"" S23"`, QuoteField(`"Galaxy" S23`, ','))
	assert.Equal(t, `"Xiaomi, Redmi"`, QuoteField("Xiaomi, Redmi", ','))
	assert.Equal(t, "Xiaomi, Redmi", QuoteField("Xiaomi, Redmi", '\t'))
	assert.Equal(t, "\"Octa\ncore\"", QuoteField("Octa\ncore", ','))
}

func readAll(t *testing.T, text string) ([][]string, []int) {
	reader := NewRecordReader(strings.NewReader(text), ',')
	var (
		records [][]string
		lines   []int
	)
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return records, lines
		}
		require.NoError(t, err)
		records = append(records, fields)
		lines = append(lines, reader.Line())
	}
}

func TestRecordReader(t *testing.T) {
	records, lines := readAll(t, "Samsung,2023,6.5\r\nApple,2022,6.1\r\n")
	assert.Equal(t, [][]string{{"Samsung", "2023", "6.5"}, {"Apple", "2022", "6.1"}}, records)
	assert.Equal(t, []int{1, 2}, lines)

	records, _ = readAll(t, `"Xiaomi, Redmi","6,5"`+"\n5,6")
	assert.Equal(t, [][]string{{"Xiaomi, Redmi", "6,5"}, {"5", "6"}}, records)

	records, _ = readAll(t, `"a ""quoted"" name",1`)
	assert.Equal(t, [][]string{{`a "quoted" name`, "1"}}, records)

	// a quoted field spanning lines is one record
	records, lines = readAll(t, "\"Octa\r\ncore\",3\nNokia,4")
	assert.Equal(t, [][]string{{"Octa\ncore", "3"}, {"Nokia", "4"}}, records)
	assert.Equal(t, []int{1, 3}, lines)

	// round trip
	fields := []string{"Xiaomi, Redmi", `"Note" 12`, "Octa\ncore", ""}
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = QuoteField(field, ',')
	}
	records, _ = readAll(t, strings.Join(quoted, ","))
	assert.Equal(t, [][]string{fields}, records)
}

func TestRecordReaderUnterminatedQuote(t *testing.T) {
	reader := NewRecordReader(strings.NewReader("Samsung,1\n\"Apple,2\nNokia,3"), ',')
	fields, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"Samsung", "1"}, fields)
	_, err = reader.Read()
	assert.True(t, errors.Is(err, errors.NotValid))
	assert.Equal(t, 2, reader.Line())
}
