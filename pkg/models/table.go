package models

import (
	"sort"
	"time"
)

// ValueKind discriminates what a table cell holds.
type ValueKind int

const (
	// KindMissing marks an absent value. Providers encode these as empty strings.
	KindMissing ValueKind = iota
	// KindNumber is a parsed float64.
	KindNumber
	// KindText is a raw string that was not (or could not be) coerced.
	KindText
)

// Value is one cell of a quote table.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

// Number returns a numeric cell.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text returns a textual cell. Empty strings are treated as missing,
// matching how the provider reports absent fields.
func Text(s string) Value {
	if s == "" {
		return Missing()
	}
	return Value{Kind: KindText, Str: s}
}

// Missing returns an absent cell.
func Missing() Value { return Value{Kind: KindMissing} }

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Float returns the numeric value and whether the cell is numeric.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Row is one timestamped observation.
type Row struct {
	Timestamp time.Time
	Cells     map[string]Value
}

// Table is a timestamp-indexed table with a stable column order.
// It is the canonical shape every extractor returns: quote fields first,
// identifier columns (symbol, symbol_pair, currency) last.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Append adds a row. Cells for unknown columns are ignored by consumers,
// so callers should only set declared columns.
func (t *Table) Append(ts time.Time, cells map[string]Value) {
	t.Rows = append(t.Rows, Row{Timestamp: ts, Cells: cells})
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// SetConstant declares a column (if new) and sets the same value on every row.
func (t *Table) SetConstant(name string, v Value) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
	for i := range t.Rows {
		if t.Rows[i].Cells == nil {
			t.Rows[i].Cells = make(map[string]Value, len(t.Columns))
		}
		t.Rows[i].Cells[name] = v
	}
}

// SortAscending orders rows by timestamp, oldest first. Providers commonly
// return series newest-first.
func (t *Table) SortAscending() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Timestamp.Before(t.Rows[j].Timestamp)
	})
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// EarliestTimestamp returns the smallest row timestamp. The boolean is false
// for an empty table.
func (t *Table) EarliestTimestamp() (time.Time, bool) {
	if len(t.Rows) == 0 {
		return time.Time{}, false
	}
	earliest := t.Rows[0].Timestamp
	for _, r := range t.Rows[1:] {
		if r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
	}
	return earliest, true
}
