package parser

import (
	"fmt"
)

// RawQuery is one statement cut out of a query file, before any directive or
// parameter processing.
type RawQuery struct {
	SQL  string
	Path string
	// StartLine is the 1-based line the statement text starts on.
	StartLine int
	// Line points at the @name directive once ParseName succeeds.
	Line int
}

// AnnotationError reports a missing or malformed @name directive.
type AnnotationError struct {
	Path    string
	Line    int
	Message string
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}
