// Package search holds the preprocessed RIL100 dataset and answers ranked
// substring queries over it.
package search

import (
	"fmt"
	"strings"

	"github.com/mini-rodalies-3d/ril100/internal/static/dataset"
)

// Dataset column names.
const (
	ColumnCode           = "RL100-Code"
	ColumnLongName       = "RL100-Langname"
	ColumnTypeShort      = "Typ-Kurz"
	ColumnOperatingState = "Betriebszustand"
)

var requiredColumns = []string{ColumnCode, ColumnLongName, ColumnTypeShort, ColumnOperatingState}

// Type short codes that get ranked ahead of other operating points.
const (
	TypeStation = "Bf"
	TypeStop    = "Hp"
)

// mainStationMarker is matched against the lowercased name.
const mainStationMarker = "hbf"

// Operating states meaning the point is decommissioned or former.
var inactiveStates = map[string]bool{
	"a.B.":    true,
	"ehemals": true,
}

// Entry is one operating point with its precomputed search fields.
type Entry struct {
	Code           string
	LongName       string
	TypeShort      string
	OperatingState string

	LowercaseName string
	IsMainStation bool
	IsInactive    bool

	// Fields holds every column of the source row.
	Fields dataset.Record
}

// MissingColumnError is returned when a record lacks a required column.
type MissingColumnError struct {
	Column string
	Row    int // 0-based record index
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("record %d is missing required column %q", e.Row, e.Column)
}

// NewEntry derives the search fields for one record.
func NewEntry(r dataset.Record) Entry {
	lowercaseName := strings.ToLower(r[ColumnLongName])
	state := r[ColumnOperatingState]

	return Entry{
		Code:           r[ColumnCode],
		LongName:       r[ColumnLongName],
		TypeShort:      r[ColumnTypeShort],
		OperatingState: state,
		LowercaseName:  lowercaseName,
		IsMainStation:  strings.Contains(lowercaseName, mainStationMarker),
		IsInactive:     inactiveStates[state],
		Fields:         r,
	}
}

// Index builds entries for records, keeping their order.
func Index(records []dataset.Record) ([]Entry, error) {
	entries := make([]Entry, len(records))
	for i, r := range records {
		for _, column := range requiredColumns {
			if _, ok := r[column]; !ok {
				return nil, &MissingColumnError{Column: column, Row: i}
			}
		}
		entries[i] = NewEntry(r)
	}
	return entries, nil
}
