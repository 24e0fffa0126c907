package parser

import (
	"regexp"
	"strings"
)

// AttributeMap maps lower-cased attribute keys to trimmed values.
type AttributeMap map[string]string

// Attribute blobs arrive either with literal newlines or with the <br>
// markup the spreadsheet export embeds.
var lineBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>|\r?\n`)

// ParseAttributes splits an attribute blob into key=value pairs.
// Lines without a separator are silently dropped; blank input yields an
// empty map.
func ParseAttributes(text string) AttributeMap {
	attrs := AttributeMap{}
	if strings.TrimSpace(text) == "" {
		return attrs
	}
	for _, line := range lineBreakPattern.Split(text, -1) {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		attrs[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return attrs
}

// Get returns the value for key, or fallback when the key is absent.
func (a AttributeMap) Get(key, fallback string) string {
	if v, ok := a[key]; ok {
		return v
	}
	return fallback
}

// HasAll reports whether every given key is present.
func (a AttributeMap) HasAll(keys ...string) bool {
	for _, k := range keys {
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}
