// Package filter screens user queries for offensive language before any service is called.
package filter

import (
	"regexp"
	"strings"
)

// DefaultBlockList is intentionally short; extend it through New or config.
var DefaultBlockList = []string{"prost", "idiot", "ură", "urăsc", "nașpa"}

var wordRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}_'-]+`)

// Filter matches lower-cased word tokens against a block list.
type Filter struct {
	blocked map[string]struct{}
}

// New returns a filter blocking DefaultBlockList plus extra.
func New(extra ...string) *Filter {
	f := &Filter{blocked: make(map[string]struct{}, len(DefaultBlockList)+len(extra))}
	for _, w := range DefaultBlockList {
		f.blocked[w] = struct{}{}
	}
	for _, w := range extra {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			f.blocked[w] = struct{}{}
		}
	}
	return f
}

// IsOffensive reports whether any token of text is on the block list.
func (f *Filter) IsOffensive(text string) bool {
	for _, tok := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := f.blocked[tok]; ok {
			return true
		}
	}
	return false
}

var defaultFilter = New()

// IsOffensive checks text against DefaultBlockList.
func IsOffensive(text string) bool {
	return defaultFilter.IsOffensive(text)
}
