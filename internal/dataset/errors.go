package dataset

import (
	"fmt"
	"strings"
)

// SchemaError reports a required column missing from an input relation. It is
// fatal: the run aborts before computing anything.
type SchemaError struct {
	Relation string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("relation %s: missing required column(s) %s",
		e.Relation, strings.Join(e.Missing, ", "))
}

// DataFormatError reports a cell that could not be parsed into its declared
// type (a malformed date or amount). It is fatal: silently dropping rows
// would skew every downstream KPI.
type DataFormatError struct {
	Relation string
	Row      int
	Column   string
	Err      error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("relation %s row %d column %s: %v", e.Relation, e.Row, e.Column, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }
