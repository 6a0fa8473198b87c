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

package catalog

import (
	"bufio"
	"cmp"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base"
	"github.com/Omnsinkar2005/Mobile-Price-Prediction-and-Recommendation/base/log"
	"github.com/araddon/dateparse"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	columnId = iota
	columnName
	columnBrand
	columnReleaseYear
	columnScreenSize
	columnOperatingSystem
	columnInternalStorage
	columnBattery
	columnRAM
	columnProcessor
	columnPrice
	columnImage
	numColumns
)

// csvHeader is the header written to new files. It keeps the column names of the public
// Indian phone price dataset, where RAM is in MB.
var csvHeader = [numColumns]string{
	"id", "name", "Brand", "Release_year", "Screen-size", "operating_system",
	"Internal_storage(GB)", "Battery(mah)", "RAM", "Processor", "Price_in_India", "image",
}

var columnAliases = map[string]int{
	"id":                columnId,
	"name":              columnName,
	"brand":             columnBrand,
	"releaseyear":       columnReleaseYear,
	"year":              columnReleaseYear,
	"screensize":        columnScreenSize,
	"operatingsystem":   columnOperatingSystem,
	"os":                columnOperatingSystem,
	"internalstoragegb": columnInternalStorage,
	"internalstorage":   columnInternalStorage,
	"storage":           columnInternalStorage,
	"batterymah":        columnBattery,
	"battery":           columnBattery,
	"ram":               columnRAM,
	"rammb":             columnRAM,
	"processor":         columnProcessor,
	"priceinindia":      columnPrice,
	"price":             columnPrice,
	"image":             columnImage,
}

var requiredColumns = []int{
	columnBrand, columnReleaseYear, columnScreenSize, columnOperatingSystem,
	columnInternalStorage, columnBattery, columnRAM, columnProcessor,
}

// maxRAMInGB separates RAM values in GB from values in MB.
const maxRAMInGB = 64

func normalizeColumn(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		default:
			return -1
		}
	}, name)
}

// CSV stores the catalog in a comma separated file. Rows are appended on insert and later rows
// override earlier rows with the same id.
type CSV struct {
	mu   sync.Mutex
	path string
}

// Init creates the file with its header if it does not exist.
func (c *CSV) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Trace(err)
	}
	return c.truncate()
}

func (c *CSV) Close() error {
	return nil
}

func (c *CSV) Purge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncate()
}

func (c *CSV) truncate() error {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(os.WriteFile(c.path, []byte(strings.Join(csvHeader[:], ",")+"\n"), 0644))
}

// GetEntries parses every row of the file. Rows that cannot be parsed or carry specifications
// out of their domains are skipped with a warning.
func (c *CSV) GetEntries(ctx context.Context) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	file, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	var (
		columns []int
		entries = make(map[int64]Entry)
		row     int64
		skipped int
	)
	reader := base.NewRecordReader(file, ',')
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if errors.Is(err, errors.NotValid) {
			log.Logger().Warn("skip unterminated catalog row",
				zap.String("path", c.path), zap.Int("line", reader.Line()), zap.Error(err))
			skipped++
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		if columns == nil {
			if columns, err = parseHeader(fields); err != nil {
				return nil, errors.Trace(err)
			}
			continue
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		entry, err := parseRow(columns, fields, row)
		row++
		if err != nil {
			log.Logger().Warn("skip invalid catalog row",
				zap.String("path", c.path), zap.Int("line", reader.Line()), zap.Error(err))
			skipped++
			continue
		}
		entries[entry.Id] = entry
	}
	if columns == nil {
		return nil, errors.NotValidf("catalog %s without header", c.path)
	}
	if skipped > 0 {
		log.Logger().Info("load catalog file", zap.String("path", c.path),
			zap.Int("n_entries", len(entries)), zap.Int("n_skipped", skipped))
	}
	result := lo.Values(entries)
	slices.SortFunc(result, func(a, b Entry) int {
		return cmp.Compare(a.Id, b.Id)
	})
	return result, nil
}

// parseHeader maps every known column to its field index, -1 if absent.
func parseHeader(fields []string) ([]int, error) {
	columns := make([]int, numColumns)
	for i := range columns {
		columns[i] = -1
	}
	for i, field := range fields {
		if column, ok := columnAliases[normalizeColumn(field)]; ok && columns[column] < 0 {
			columns[column] = i
		}
	}
	for _, column := range requiredColumns {
		if columns[column] < 0 {
			return nil, errors.NotFoundf("column %s", csvHeader[column])
		}
	}
	return columns, nil
}

func parseRow(columns []int, fields []string, index int64) (Entry, error) {
	get := func(column int) string {
		if columns[column] < 0 || columns[column] >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[columns[column]])
	}
	var (
		entry = Entry{Id: index}
		err   error
	)
	if s := get(columnId); s != "" {
		if entry.Id, err = strconv.ParseInt(s, 10, 64); err != nil {
			return Entry{}, errors.Annotatef(err, "parse id %q", s)
		}
	}
	entry.Name = get(columnName)
	entry.Image = get(columnImage)
	entry.Brand = get(columnBrand)
	entry.OperatingSystem = get(columnOperatingSystem)
	entry.Processor = get(columnProcessor)
	if entry.ReleaseYear, err = parseYear(get(columnReleaseYear)); err != nil {
		return Entry{}, errors.Trace(err)
	}
	if entry.ScreenSize, err = parseFloat("screen size", get(columnScreenSize)); err != nil {
		return Entry{}, errors.Trace(err)
	}
	if entry.InternalStorage, err = parseInt("internal storage", get(columnInternalStorage)); err != nil {
		return Entry{}, errors.Trace(err)
	}
	if entry.Battery, err = parseInt("battery", get(columnBattery)); err != nil {
		return Entry{}, errors.Trace(err)
	}
	ram, err := parseFloat("ram", get(columnRAM))
	if err != nil {
		return Entry{}, errors.Trace(err)
	}
	if ram > maxRAMInGB {
		ram /= 1024
	}
	entry.RAM = int(math.Round(ram))
	if s := get(columnPrice); s != "" {
		price, err := parseFloat("price", s)
		if err != nil {
			return Entry{}, errors.Trace(err)
		}
		if price < 0 {
			return Entry{}, errors.NotValidf("negative price %v", price)
		}
		entry.Price = &price
	}
	if err = entry.Validate(); err != nil {
		return Entry{}, errors.Trace(err)
	}
	return entry, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Annotatef(err, "parse %s %q", name, s)
	}
	return v, nil
}

func parseInt(name, s string) (int, error) {
	v, err := parseFloat(name, s)
	if err != nil {
		return 0, err
	}
	return int(math.Round(v)), nil
}

// parseYear accepts years written as numbers ("2021", "2021.0") or dates ("2021-09-14").
func parseYear(s string) (int, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(v), nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return 0, errors.Annotatef(err, "parse release year %q", s)
	}
	return t.Year(), nil
}

// BatchInsertEntries appends entries to the file. RAM is written in MB.
func (c *CSV) BatchInsertEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		if err = c.truncate(); err != nil {
			return errors.Trace(err)
		}
	}
	file, err := os.OpenFile(c.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	w := bufio.NewWriter(file)
	for _, entry := range entries {
		if err = ctx.Err(); err != nil {
			_ = file.Close()
			return errors.Trace(err)
		}
		row := formatRow(entry)
		if _, err = w.WriteString(strings.Join(row[:], ",") + "\n"); err != nil {
			_ = file.Close()
			return errors.Trace(err)
		}
	}
	if err = w.Flush(); err != nil {
		_ = file.Close()
		return errors.Trace(err)
	}
	return errors.Trace(file.Close())
}

func formatRow(entry Entry) [numColumns]string {
	var row [numColumns]string
	row[columnId] = strconv.FormatInt(entry.Id, 10)
	row[columnName] = base.QuoteField(entry.Name, ',')
	row[columnBrand] = base.QuoteField(entry.Brand, ',')
	row[columnReleaseYear] = strconv.Itoa(entry.ReleaseYear)
	row[columnScreenSize] = strconv.FormatFloat(entry.ScreenSize, 'f', -1, 64)
	row[columnOperatingSystem] = base.QuoteField(entry.OperatingSystem, ',')
	row[columnInternalStorage] = strconv.Itoa(entry.InternalStorage)
	row[columnBattery] = strconv.Itoa(entry.Battery)
	row[columnRAM] = strconv.Itoa(entry.RAM * 1024)
	row[columnProcessor] = base.QuoteField(entry.Processor, ',')
	if entry.Price != nil {
		row[columnPrice] = strconv.FormatFloat(*entry.Price, 'f', -1, 64)
	}
	row[columnImage] = base.QuoteField(entry.Image, ',')
	return row
}
