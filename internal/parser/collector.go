package parser

import (
	"strings"

	"github.com/Rana718/sqlir/internal/utils"
)

// Collector reads query files and splits them into non-empty statements.
type Collector struct {
	files utils.FileUtils
}

func NewCollector() *Collector {
	return &Collector{}
}

// Collect returns the statements of every file matched by patterns, files
// in path order and statements in source order.
func (c *Collector) Collect(patterns []string) ([]RawQuery, error) {
	files, err := c.files.ReadFiles(patterns)
	if err != nil {
		return nil, err
	}

	var queries []RawQuery
	for _, file := range files {
		queries = append(queries, Statements(file.Path, file.Content)...)
	}
	return queries, nil
}

// Statements splits content and drops whitespace-only statements.
func Statements(path, content string) []RawQuery {
	all := SplitStatements(path, content)
	queries := all[:0]
	for _, q := range all {
		if strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(q.SQL), ";")) == "" {
			continue
		}
		queries = append(queries, q)
	}
	return queries
}
