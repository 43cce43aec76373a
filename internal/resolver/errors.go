package resolver

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rana718/sqlir/internal/database/common"
)

// TypeResolutionError means the database described a statement with a type
// id the catalog does not know, or with a different parameter count than
// the statement declares.
type TypeResolutionError struct {
	Path    string
	Line    int
	TypeID  int64
	Message string
}

func (e *TypeResolutionError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// DatabaseError is a database-reported SQL error located in its source file.
// Column is 1-based and counted in characters; it is 0 when the database
// reported no position.
type DatabaseError struct {
	Path    string
	Line    int
	Column  int
	Snippet string
	Message string

	Err error
}

func (e *DatabaseError) Error() string {
	var b strings.Builder
	if e.Column > 0 {
		fmt.Fprintf(&b, "%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	} else {
		fmt.Fprintf(&b, "%s:%d: %s", e.Path, e.Line, e.Message)
	}
	if e.Snippet != "" {
		b.WriteString("\n")
		b.WriteString(e.Snippet)
	}
	return b.String()
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// NewDatabaseError locates err inside text, the statement as written in path
// starting at startLine. sent is the SQL the database actually saw and
// toSource maps byte offsets in sent back to text; nil means sent == text.
// Errors that are not statement errors are wrapped with the path only.
func NewDatabaseError(path string, startLine int, text, sent string, toSource func(int) int, err error) error {
	var stmtErr *common.StatementError
	if !errors.As(err, &stmtErr) {
		return fmt.Errorf("%s: %w", path, err)
	}

	dbErr := &DatabaseError{
		Path:    path,
		Line:    startLine,
		Message: stmtErr.Message,
		Err:     err,
	}
	if stmtErr.Position <= 0 {
		return dbErr
	}

	offset := charToByte(sent, stmtErr.Position-1)
	if toSource != nil {
		offset = toSource(offset)
	}
	if offset > len(text) {
		offset = len(text)
	}

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += offset
	}

	dbErr.Line = startLine + strings.Count(text[:offset], "\n")
	dbErr.Column = utf8.RuneCountInString(text[lineStart:offset]) + 1
	dbErr.Snippet = snippet(strings.TrimRight(text[lineStart:lineEnd], "\r"), text[lineStart:offset])
	return dbErr
}

// charToByte converts a 0-based character index into a byte offset.
func charToByte(s string, chars int) int {
	for offset := range s {
		if chars == 0 {
			return offset
		}
		chars--
	}
	return len(s)
}

// snippet renders line with a caret under the character following prefix.
// Tabs in prefix are kept so the caret lines up in a terminal.
func snippet(line, prefix string) string {
	var caret strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			caret.WriteRune('\t')
		} else {
			caret.WriteRune(' ')
		}
	}
	caret.WriteRune('^')
	return "  " + line + "\n  " + caret.String()
}
