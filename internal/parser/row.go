// Package parser interprets change-log rows: it parses attribute blobs and
// renumber directives, and classifies each row's free-text action into one of
// a closed set of structural operations.
package parser

import (
	"strings"
	"time"
)

// ChangeRow is one normalized spreadsheet row.
type ChangeRow struct {
	// Line is the 1-based spreadsheet row number, used in diagnostics.
	Line int
	// ChangeDate is the effective date of the edit. Rows with a zero
	// ChangeDate are skipped entirely.
	ChangeDate time.Time
	// ArticleToken holds a numeric article ID, a temporary-ID token, a
	// renumber directive, or nothing. Pass 1 may write a synthesized
	// placeholder token back into it.
	ArticleToken string
	// ArticleName is carried through for script echo only.
	ArticleName string
	// ActionText is the free-text description of the edit.
	ActionText string
	// AttributeText is a multi-line key=value blob.
	AttributeText string
}

// Dated reports whether the row carries a change date.
func (r *ChangeRow) Dated() bool {
	return !r.ChangeDate.IsZero()
}

// Token returns the trimmed article token.
func (r *ChangeRow) Token() string {
	return strings.TrimSpace(r.ArticleToken)
}
