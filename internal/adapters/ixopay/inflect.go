package ixopay

import (
	"regexp"
	"strings"
)

var (
	acronymBoundary = regexp.MustCompile(`([A-Z\d]+)([A-Z][a-z])`)
	wordBoundary    = regexp.MustCompile(`([a-z\d])([A-Z])`)
)

// underscore converts a camelCase XML name to its lower snake case key:
// referenceId -> reference_id, XMLHttpRequest -> xml_http_request, return-type -> return_type
func underscore(name string) string {
	word := strings.ReplaceAll(name, "::", "/")
	word = acronymBoundary.ReplaceAllString(word, "${1}_${2}")
	word = wordBoundary.ReplaceAllString(word, "${1}_${2}")
	word = strings.ReplaceAll(word, "-", "_")
	return strings.ToLower(word)
}
