package model

import (
	"fmt"
	"strings"
)

// Dataset is the in-memory medicine table.
// Every input column is preserved so that an overwrite keeps the file intact;
// only the Usecase column is ever mutated.
type Dataset struct {
	Header []string
	Rows   [][]string

	columns map[string]int
}

// NewDataset builds a dataset from a header and rows, adding the Usecase
// column when the input does not have one. Short rows are padded; rows
// wider than the header are rejected.
func NewDataset(header []string, rows [][]string) (*Dataset, error) {
	d := &Dataset{
		Header:  append([]string(nil), header...),
		columns: make(map[string]int, len(header)+1),
	}
	for i, h := range d.Header {
		d.columns[strings.TrimSpace(h)] = i
	}

	if _, ok := d.columns[ColumnName]; !ok {
		return nil, fmt.Errorf("missing required column %q", ColumnName)
	}

	if _, ok := d.columns[ColumnUsecase]; !ok {
		d.columns[ColumnUsecase] = len(d.Header)
		d.Header = append(d.Header, ColumnUsecase)
	}

	d.Rows = make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header))
		}
		padded := make([]string, len(d.Header))
		copy(padded, row)
		d.Rows[i] = padded
	}

	return d, nil
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Record returns a view of row i
func (d *Dataset) Record(i int) Record {
	rec := Record{
		Index:   i,
		Name:    d.cell(i, ColumnName),
		Type:    d.cell(i, ColumnType),
		Usecase: d.cell(i, ColumnUsecase),
	}
	for _, col := range []string{ColumnComposition1, ColumnComposition2} {
		if v := d.cell(i, col); !isNull(v) {
			rec.Compositions = append(rec.Compositions, v)
		}
	}
	return rec
}

// SetUsecase assigns the usecase of row i
func (d *Dataset) SetUsecase(i int, v string) {
	d.Rows[i][d.columns[ColumnUsecase]] = v
}

// Unresolved returns indices in [start, end) whose usecase still needs filling
func (d *Dataset) Unresolved(start, end int) []int {
	if end > len(d.Rows) {
		end = len(d.Rows)
	}
	var out []int
	for i := start; i < end; i++ {
		if IsUnresolved(d.cell(i, ColumnUsecase)) {
			out = append(out, i)
		}
	}
	return out
}

// Stats summarizes how far enrichment has progressed
func (d *Dataset) Stats() Stats {
	s := Stats{Total: len(d.Rows)}
	for i := range d.Rows {
		v := strings.TrimSpace(d.cell(i, ColumnUsecase))
		switch {
		case v == Unknown:
			s.Unknown++
		case isNull(v):
			s.Missing++
		default:
			s.Resolved++
		}
	}
	return s
}

func (d *Dataset) cell(i int, column string) string {
	idx, ok := d.columns[column]
	if !ok || idx >= len(d.Rows[i]) {
		return ""
	}
	return strings.TrimSpace(d.Rows[i][idx])
}

func isNull(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "nan")
}

// Stats counts rows by usecase state
type Stats struct {
	Total    int `json:"total" yaml:"total"`
	Resolved int `json:"resolved" yaml:"resolved"` // Lookup or model supplied a usecase
	Unknown  int `json:"unknown" yaml:"unknown"`   // Model answered but nothing usable survived cleaning
	Missing  int `json:"missing" yaml:"missing"`   // Never processed (e.g. skipped after a rate limit)
}
