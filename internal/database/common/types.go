package common

import "fmt"

// Field is one result column reported by a describe round trip.
type Field struct {
	Name   string
	TypeID int64
}

// Description is what the database reports for a prepared statement.
type Description struct {
	Inputs  []int64
	Outputs []Field
}

type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// StatementError is a database error raised while preparing or running a
// statement. Position is the 1-based character offset the server reported,
// or 0 when it reported none.
type StatementError struct {
	Message  string
	Detail   string
	Hint     string
	Position int
}

func (e *StatementError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("%s (at character %d)", e.Message, e.Position)
	}
	return e.Message
}
