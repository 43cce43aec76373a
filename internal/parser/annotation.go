package parser

import (
	"strings"

	"github.com/Rana718/sqlir/internal/types"
)

// ParseAnnotations collects the "-- @tag: value" directives of a statement.
// A later directive with the same tag replaces an earlier one.
func ParseAnnotations(query *RawQuery) map[string]types.Annotation {
	re := GetRegexCache().Annotation
	annotations := make(map[string]types.Annotation)

	for i, line := range strings.Split(query.SQL, "\n") {
		match := re.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		annotations[match[1]] = types.Annotation{
			Value: match[2],
			Line:  query.StartLine + i,
		}
	}
	return annotations
}

// ParseName validates the @name directive and returns the export name and
// command. On success query.Line is moved to the directive's line so later
// errors point at it.
func ParseName(query *RawQuery, annotations map[string]types.Annotation) (string, types.Command, error) {
	name, ok := annotations["name"]
	if !ok {
		return "", "", &AnnotationError{
			Path:    query.Path,
			Line:    query.StartLine,
			Message: "missing @name directive",
		}
	}

	match := GetRegexCache().Name.FindStringSubmatch(strings.TrimSpace(name.Value))
	if match == nil || !types.Command(match[2]).Valid() {
		return "", "", &AnnotationError{
			Path:    query.Path,
			Line:    name.Line,
			Message: "invalid query return specifier (expected one of: :val, :one, :many, :exec)",
		}
	}

	query.Line = name.Line
	return match[1], types.Command(match[2]), nil
}

// IsExported reports whether the statement carries a @name directive.
// Statements without one are skipped silently.
func IsExported(annotations map[string]types.Annotation) bool {
	_, ok := annotations["name"]
	return ok
}
