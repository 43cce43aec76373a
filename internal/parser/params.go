package parser

import (
	"strconv"
	"strings"
)

// Param is one named placeholder, in first-occurrence order.
//
// A "$" sigil marks a non-null parameter and a "?" sigil a nullable one:
//
//	$id  $(id)  $(user.id)    -- not null
//	?id  ?(id)  ?(user.id)    -- nullable
type Param struct {
	Name    string
	NotNull bool
}

// Rewrite is the result of RewriteParameters.
type Rewrite struct {
	// SQL is the statement with placeholders turned into $1, $2, ... and
	// directive lines blanked. Line breaks are kept as in the source.
	SQL    string
	Params []Param

	origin []int
}

// SourceOffset maps a byte offset in r.SQL back to the byte offset in the
// text RewriteParameters was given.
func (r Rewrite) SourceOffset(offset int) int {
	if len(r.origin) == 0 {
		return offset
	}
	if offset < 0 {
		return 0
	}
	if offset >= len(r.origin) {
		return r.origin[len(r.origin)-1]
	}
	return r.origin[offset]
}

// RewriteParameters replaces named placeholders with native ordinal
// parameters and strips directive comments. A placeholder seen again reuses
// the ordinal of its first occurrence (and keeps its first nullability).
// Placeholders inside quoted strings or "--" comments are left untouched.
func RewriteParameters(sql string) Rewrite {
	cache := GetRegexCache()

	var b strings.Builder
	b.Grow(len(sql))
	origin := make([]int, 0, len(sql)+1)

	emit := func(s string, src int) {
		b.WriteString(s)
		for j := 0; j < len(s); j++ {
			origin = append(origin, src)
		}
	}

	ordinals := make(map[string]int)
	var params []Param

	var quote byte
	inComment := false
	lineStart := true

	for i := 0; i < len(sql); {
		if lineStart && quote == 0 && !inComment {
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			if cache.Annotation.MatchString(sql[i : i+end]) {
				i += end
				lineStart = false
				continue
			}
		}

		c := sql[i]
		lineStart = c == '\n'

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
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			inComment = true
		case (c == '$' || c == '?') && (i == 0 || !isIdentByte(sql[i-1])):
			if m := cache.Placeholder.FindStringSubmatch(sql[i:]); m != nil {
				name := m[1]
				if name == "" {
					name = m[2]
				}
				ordinal, seen := ordinals[name]
				if !seen {
					params = append(params, Param{Name: name, NotNull: c == '$'})
					ordinal = len(params)
					ordinals[name] = ordinal
				}
				emit("$"+strconv.Itoa(ordinal), i)
				i += len(m[0])
				continue
			}
		}

		b.WriteByte(c)
		origin = append(origin, i)
		i++
	}
	origin = append(origin, len(sql))

	return Rewrite{SQL: b.String(), Params: params, origin: origin}
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
