package parser

import (
	"regexp"
	"sync"
)

// RegexCache holds the pre-compiled directive and placeholder patterns.
type RegexCache struct {
	// Annotation matches one "-- @tag: value" directive line. A tag not
	// followed directly by a colon still matches, with an empty value.
	Annotation *regexp.Regexp
	// Name matches the value of the @name directive.
	Name *regexp.Regexp
	// Placeholder matches a named parameter at the start of its input.
	Placeholder *regexp.Regexp
}

var (
	regexCache     *RegexCache
	regexCacheOnce sync.Once
)

// GetRegexCache returns the global regex cache (initialized once)
func GetRegexCache() *RegexCache {
	regexCacheOnce.Do(func() {
		regexCache = &RegexCache{
			Annotation:  regexp.MustCompile(`^\s*--\s*@(\w+)(?::\s*(.*?)|\b.*?)\s*$`),
			Name:        regexp.MustCompile(`^([A-Za-z_]\w*)\s+:(\w+)$`),
			Placeholder: regexp.MustCompile(`^[$?](?:([A-Za-z]\w*)|\(([A-Za-z]\w*(?:\.[A-Za-z]\w*)?)\))`),
		}
	})
	return regexCache
}
