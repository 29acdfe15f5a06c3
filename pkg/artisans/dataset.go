// Package artisans serves the artisan directory loaded from a CSV export:
// statistics, search, filtering and the chat assistant endpoints.
package artisans

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ettle/strcase"
)

var (
	// ErrNoData is returned when no CSV rows are loaded.
	ErrNoData = errors.New("artisans: no CSV data loaded")
	// ErrDatasetNotFound is returned when none of the candidate paths exist.
	ErrDatasetNotFound = errors.New("artisans: dataset file not found")
)

// searchableColumns feed the lower-cased search_text of each record.
var searchableColumns = []string{"name", "craft_type", "state", "district", "village", "languages_spoken", "languages"}

var decimalSuffix = regexp.MustCompile(`\.\d+`)

// Record is one CSV row keyed by snake_case column name.
type Record struct {
	fields     map[string]string
	age        *float64
	searchText string
}

// Get returns the trimmed value of a column, or "" when absent.
func (r Record) Get(column string) string {
	return r.fields[column]
}

// Age returns the parsed age, if the row carries a numeric one.
func (r Record) Age() (float64, bool) {
	if r.age == nil {
		return 0, false
	}
	return *r.age, true
}

// SearchText is the lower-cased concatenation of the searchable columns.
func (r Record) SearchText() string {
	return r.searchText
}

func (r Record) first(fallback string, columns ...string) string {
	for _, col := range columns {
		if v := r.fields[col]; v != "" {
			return v
		}
	}
	return fallback
}

// Dataset is an immutable, in-memory artisan table.
type Dataset struct {
	columns []string
	index   map[string]bool
	records []Record
	source  string
}

// Columns returns the normalized column names in file order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the dataset carries column.
func (d *Dataset) HasColumn(column string) bool {
	return d.index[column]
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Empty reports whether the dataset has no records.
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Records returns the loaded rows.
func (d *Dataset) Records() []Record {
	return d.records
}

// Source returns the path the dataset was read from, if any.
func (d *Dataset) Source() string {
	return d.source
}

// Load parses CSV data. Headers are normalized to snake_case, ages are parsed
// as numbers and phone columns are reduced to their integer digits.
func Load(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Dataset{index: map[string]bool{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artisans: read header: %w", err)
	}
	columns := make([]string, len(header))
	index := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = strcase.ToSnake(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		index[columns[i]] = true
	}

	ds := &Dataset{columns: columns, index: index}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("artisans: read line %d: %w", line, err)
		}
		ds.records = append(ds.records, ds.buildRecord(row))
	}
	return ds, nil
}

// LoadFile reads a dataset from path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artisans: open %s: %w", path, err)
	}
	defer f.Close()
	ds, err := Load(f)
	if err != nil {
		return nil, err
	}
	ds.source = path
	return ds, nil
}

// LoadFirst loads the first candidate path that exists.
func LoadFirst(paths []string) (*Dataset, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	return nil, fmt.Errorf("%w: tried %s", ErrDatasetNotFound, strings.Join(paths, ", "))
}

func (d *Dataset) buildRecord(row []string) Record {
	fields := make(map[string]string, len(d.columns))
	for i, col := range d.columns {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if strings.Contains(col, "phone") && !strings.HasSuffix(col, "_boolean") {
			value = normalizePhone(value)
		}
		fields[col] = value
	}
	rec := Record{fields: fields}
	if raw := fields["age"]; raw != "" {
		if age, err := strconv.ParseFloat(raw, 64); err == nil {
			rec.age = &age
		}
	}
	parts := make([]string, 0, len(searchableColumns))
	for _, col := range searchableColumns {
		if d.index[col] {
			parts = append(parts, fields[col])
		}
	}
	rec.searchText = strings.ToLower(strings.Join(parts, " "))
	return rec
}

// normalizePhone drops a decimal suffix ("9876543210.0") and keeps the value
// only when what remains is all digits.
func normalizePhone(value string) string {
	value = decimalSuffix.ReplaceAllString(value, "")
	if value == "" {
		return ""
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return value
}
