package ingest

import (
	"math"
	"slices"
)

// ColumnKind is the inferred type of a column.
type ColumnKind int

const (
	Text ColumnKind = iota
	Number
)

func (k ColumnKind) String() string {
	if k == Number {
		return "number"
	}
	return "text"
}

// Column is one typed column of a Table. Number columns hold NaN for
// missing cells; Text columns keep the raw cell text.
type Column struct {
	Name    string
	Kind    ColumnKind
	numbers []float64
	text    []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.text)
}

// Numbers returns a copy of the parsed values, or nil for a Text column.
func (c *Column) Numbers() []float64 {
	if c.Kind != Number {
		return nil
	}
	return slices.Clone(c.numbers)
}

// Strings returns a copy of the raw cell text.
func (c *Column) Strings() []string {
	return slices.Clone(c.text)
}

// Missing reports the number of missing cells.
func (c *Column) Missing() int {
	n := 0
	for i, s := range c.text {
		if c.Kind == Number && math.IsNaN(c.numbers[i]) || c.Kind == Text && isMissing(s) {
			n++
		}
	}
	return n
}

// Table is an immutable parsed delimited file.
type Table struct {
	Source    string
	Delimiter rune
	sniffed   bool
	columns   []*Column
	rows      int
}

// Sniffed reports whether the delimiter was detected from the content.
// False means detection failed and comma was assumed.
func (t *Table) Sniffed() bool {
	return t.sniffed
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	return t.rows
}

// Header returns the column names in file order.
func (t *Table) Header() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns copies of all columns.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.clone()
	}
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c.clone(), true
		}
	}
	return Column{}, false
}

// Preview returns up to n rows of raw cell text, header excluded.
func (t *Table) Preview(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	out := make([][]string, n)
	for r := range out {
		row := make([]string, len(t.columns))
		for i, c := range t.columns {
			row[i] = c.text[r]
		}
		out[r] = row
	}
	return out
}

func (c *Column) clone() Column {
	return Column{
		Name:    c.Name,
		Kind:    c.Kind,
		numbers: slices.Clone(c.numbers),
		text:    slices.Clone(c.text),
	}
}
