package parser

import (
	"regexp"
	"strconv"
)

// OpenEndOrd marks a renumber range whose upper bound is still open.
// The driver closes it using the previous directive's begin ordinal; if no
// bounded directive follows, the sentinel is emitted as-is.
const OpenEndOrd = 1000

// RenumberDirective shifts the display order of every article whose
// ordinal falls in [BeginOrd, EndOrd] down by ShiftOrd.
type RenumberDirective struct {
	BeginOrd int
	EndOrd   int
	ShiftOrd int
}

// Directive phrasings recognized in the article-ID column, tested in
// order with first match winning. The single-bound forms require "shift
// down by" directly after the bound, so they never swallow the bounded
// "and order <=" phrasing.
var renumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)order\s*>\s*(\d+)\s+shift\s+down\s+by\s*\+?(\d+)`),
	regexp.MustCompile(`(?i)order\s*>=\s*(\d+)\s+shift\s+down\s+by\s*\+?(\d+)`),
	regexp.MustCompile(`(?i)order\s*>=\s*(\d+)\s+and\s+order\s*<=\s*(\d+)\s+shift\s+down\s+by\s*\+?(\d+)`),
}

// ParseRenumberDirective recognizes bulk reordering instructions embedded in
// the identifier column. Returns nil when the text is an ordinary token.
func ParseRenumberDirective(text string) *RenumberDirective {
	for i, pattern := range renumberPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) == 4 {
			return &RenumberDirective{
				BeginOrd: mustInt(m[1]),
				EndOrd:   mustInt(m[2]),
				ShiftOrd: mustInt(m[3]),
			}
		}
		begin := mustInt(m[1])
		if i == 0 {
			// Strict-greater phrasing: range starts one past the bound.
			begin++
		}
		return &RenumberDirective{BeginOrd: begin, EndOrd: OpenEndOrd, ShiftOrd: mustInt(m[2])}
	}
	return nil
}

func mustInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
