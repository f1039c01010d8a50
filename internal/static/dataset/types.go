package dataset

import "fmt"

// Record maps header names to cell values for one data row.
// Every record produced by a single Parse call has the same key set.
type Record map[string]string

// Get returns the value stored under column, or "" when the column is absent.
func (r Record) Get(column string) string {
	return r[column]
}

// SchemaError is returned when a data row does not have as many fields as the header.
type SchemaError struct {
	Line     int // 1-based line number after trimming the input
	Expected int
	Got      int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column count mismatch on line %d: expected %d fields, got %d", e.Line, e.Expected, e.Got)
}

// MalformedFieldError is returned when a line ends inside a quoted field.
type MalformedFieldError struct {
	Line int
	Text string
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("unterminated quoted field on line %d: %q", e.Line, e.Text)
}
