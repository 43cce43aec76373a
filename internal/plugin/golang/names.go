package golang

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{"API", "CSS", "DB", "HTML", "HTTP", "ID", "IP", "JSON", "SQL", "TLS", "URL", "UUID", "XML"} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// words splits an identifier on anything that is not a letter or a digit.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func pascalWords(words []string) string {
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
		} else {
			words[i] = rules.Capitalize(w)
		}
	}
	return strings.Join(words, "")
}

// pascal converts user_id, user.id and userId to UserID.
func pascal(s string) string {
	name := pascalWords(words(s))
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "X" + name
	}
	return name
}

// camel is pascal with the first word lowered.
func camel(s string) string {
	p := pascal(s)
	for upper := range acronyms {
		if strings.HasPrefix(p, upper) && (len(p) == len(upper) || unicode.IsUpper(rune(p[len(upper)]))) {
			return strings.ToLower(upper) + p[len(upper):]
		}
	}
	name := strings.ToLower(p[:1]) + p[1:]
	if isKeyword(name) {
		return name + "_"
	}
	return name
}

// modelName is the singular type name of a table.
func modelName(schema, table string) string {
	name := pascal(rules.Singularize(table))
	if schema != "" && schema != "public" {
		name = pascal(schema) + name
	}
	return name
}

func isKeyword(s string) bool {
	switch s {
	case "break", "case", "chan", "const", "continue", "default", "defer", "else",
		"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
		"map", "package", "range", "return", "select", "struct", "switch", "type", "var",
		"ctx", "q", "err", "row", "rows", "i", "items", "v":
		return true
	}
	return false
}

// uniqueNames makes names distinct by appending a counter to repeats.
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		seen[n]++
		if c := seen[n]; c > 1 {
			n += strconv.Itoa(c)
		}
		out[i] = n
	}
	return out
}
