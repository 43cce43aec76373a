package parser

// SplitStatements cuts content into statements on unquoted, uncommented
// semicolons. Each statement keeps its terminator, so joining the SQL of all
// returned statements gives back content unchanged.
//
// This is a deliberate simplification of SQL lexing: a quote is closed by the
// next occurrence of the same character (so '' escapes still balance), a
// "--" comment runs to the end of the line, and neither nested block
// comments nor dollar-quoted strings are understood.
func SplitStatements(path, content string) []RawQuery {
	queries := make([]RawQuery, 0, 8)

	var quote byte
	inComment := false
	line, startLine := 1, 1
	start := 0

	for i := 0; i < len(content); i++ {
		c := content[i]
		if c == '\n' {
			line++
		}

		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case inComment:
			if c == '\n' {
				inComment = false
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '-' && i+1 < len(content) && content[i+1] == '-':
			inComment = true
		case c == ';':
			queries = append(queries, RawQuery{
				SQL:       content[start : i+1],
				Path:      path,
				StartLine: startLine,
				Line:      startLine,
			})
			start = i + 1
			startLine = line
		}
	}

	if start < len(content) {
		queries = append(queries, RawQuery{
			SQL:       content[start:],
			Path:      path,
			StartLine: startLine,
			Line:      startLine,
		})
	}

	return queries
}
