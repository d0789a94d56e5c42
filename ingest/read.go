// Package ingest turns uploaded delimited text into typed tables.
//
// The delimiter is sniffed from the content and falls back to comma when no
// candidate is consistent. Columns are typed as Number when every non-missing
// cell parses as a float and as Text otherwise.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/sartorproj/tsforecast/errs"
)

// MissingTokens are the cell values read as missing.
var MissingTokens = []string{"", "NA", "NaN", "nan", "null", "NULL", "N/A", "n/a"}

func isMissing(s string) bool {
	s = strings.TrimSpace(s)
	for _, tok := range MissingTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// ReadFile reads and parses the file at path.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIngestion, "ingest.ReadFile", "cannot read file", err,
			map[string]any{"file": path})
	}
	return Read(filepath.Base(path), data)
}

// Read parses data, naming the result after name.
func Read(name string, data []byte) (*Table, error) {
	const op = "ingest.Read"
	details := func(kv ...any) map[string]any {
		m := map[string]any{"file": name}
		for i := 0; i+1 < len(kv); i += 2 {
			m[kv[i].(string)] = kv[i+1]
		}
		return m
	}

	if !utf8.Valid(data) {
		return nil, errs.New(errs.KindIngestion, op, "input is not valid UTF-8", details())
	}
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindIngestion, op, "cannot decode input", err, details())
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, errs.New(errs.KindIngestion, op, "input is empty", details())
	}

	delim, sniffErr := Sniff(text)

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = 0
	// Leading-space trimming would swallow empty tab-separated fields.
	reader.TrimLeadingSpace = delim != '\t'

	header, err := reader.Read()
	if err != nil {
		return nil, errs.Wrap(errs.KindIngestion, op, "cannot read header", err,
			details("delimiter", string(delim)))
	}

	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[h] {
			return nil, errs.New(errs.KindIngestion, op, "duplicate column name", details("column", h))
		}
		seen[h] = true
		names[i] = h
	}

	cells := make([][]string, len(names))
	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, errs.Wrap(errs.KindIngestion, op, "malformed row", err,
					details("line", parseErr.Line, "delimiter", string(delim)))
			}
			return nil, errs.Wrap(errs.KindIngestion, op, "malformed row", err, details())
		}
		for i, cell := range record {
			cells[i] = append(cells[i], cell)
		}
		rows++
	}
	if rows == 0 {
		return nil, errs.New(errs.KindIngestion, op, "no data rows", details("columns", len(names)))
	}

	table := &Table{
		Source:    name,
		Delimiter: delim,
		sniffed:   sniffErr == nil,
		rows:      rows,
		columns:   make([]*Column, len(names)),
	}
	for i, n := range names {
		table.columns[i] = inferColumn(n, cells[i])
	}
	return table, nil
}

func inferColumn(name string, cells []string) *Column {
	col := &Column{Name: name, Kind: Text, text: cells}

	numbers := make([]float64, len(cells))
	present := 0
	for i, s := range cells {
		if isMissing(s) {
			numbers[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsInf(v, 0) {
			return col
		}
		numbers[i] = v
		present++
	}
	if present == 0 {
		return col
	}

	col.Kind = Number
	col.numbers = numbers
	return col
}
