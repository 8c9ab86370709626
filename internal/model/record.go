package model

import "strings"

// Unknown marks a row the model could not resolve into a usable symptom list
const Unknown = "unknown"

// Column names of the medicine dataset
const (
	ColumnName         = "name"
	ColumnComposition1 = "short_composition1"
	ColumnComposition2 = "short_composition2"
	ColumnType         = "type"
	ColumnUsecase      = "Usecase"
)

// Record is a read view of one medicine row
type Record struct {
	Index        int      // Row position in the dataset (0-based, header excluded)
	Name         string   // Brand / product name
	Compositions []string // Non-empty short compositions, in column order
	Type         string   // Category (allopathy, ...)
	Usecase      string   // Current usecase value, possibly unresolved
}

// IsUnresolved reports whether a usecase value still needs to be filled.
// Empty cells, pandas nulls written as "nan" and the Unknown sentinel all count.
func IsUnresolved(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "nan") || v == Unknown
}

// Resolved reports whether the record already carries a usecase
func (r Record) Resolved() bool {
	return !IsUnresolved(r.Usecase)
}
