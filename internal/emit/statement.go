// Package emit builds the parameterized balance_api statements and
// assembles them into a reviewable script.
package emit

import (
	"fmt"
	"strings"
	"time"

	"github.com/finreport-labs/balproc/internal/parser"
)

// Category orders statements in the final output: bulk reordering first,
// then creation, then attribute changes. Later categories may reference
// articles or positions established by earlier ones.
type Category int

const (
	CategoryRenumber Category = iota
	CategoryAdd
	CategoryChange
)

// String returns the category label used in script section headers.
func (c Category) String() string {
	switch c {
	case CategoryRenumber:
		return "renumber"
	case CategoryAdd:
		return "add"
	default:
		return "change"
	}
}

// Statement is one parameterized stored-procedure call.
type Statement struct {
	Category Category
	Text     string
}

const (
	// changeDateLayout is the calendar representation the stored
	// procedures expect.
	changeDateLayout = "02.01.2006"
	// newValidDate is the far-future sentinel closing every new
	// validity range.
	newValidDate = "2099-12-31"
)

// Builder renders statements for one report. Attribute values are carried
// through verbatim apart from trimming; embedded quotes are not escaped,
// matching the stored-procedure scripts this replaces.
type Builder struct {
	reportID string
}

// NewBuilder creates a statement builder bound to a report identifier.
func NewBuilder(reportID string) *Builder {
	return &Builder{reportID: strings.TrimSpace(reportID)}
}

// Renumber shifts the display order of articles in the directive's range.
func (b *Builder) Renumber(d parser.RenumberDirective, date time.Time) Statement {
	text := fmt.Sprintf(`SELECT balance_api.fn_balance_article_renum_up_down(
    p_report_id => %s,
    p_begin_ord => %d,
    p_end_ord => %d,
    p_shift_ord => %d,
    p_old_valid_date => '%s',
    p_new_valid_date => '%s'
);`, b.reportID, d.BeginOrd, d.EndOrd, d.ShiftOrd, date.Format(changeDateLayout), newValidDate)
	return Statement{Category: CategoryRenumber, Text: text}
}

// AddArticle creates a new article under the report.
func (b *Builder) AddArticle(articleID int, parentID *int, name, ord, lvl string, date time.Time) Statement {
	text := fmt.Sprintf(`SELECT balance_api.fn_balance_article_add_1(
    p_report_id => %s,
    p_article_name => '%s',
    p_article_ord => %s,
    p_begin_date => '%s',
    p_end_date => '%s',
    p_parent_id => %s,
    p_level => %s,
    p_article_id => %d
);`, b.reportID, name, ord, date.Format(changeDateLayout), newValidDate, nullable(parentID), lvl, articleID)
	return Statement{Category: CategoryAdd, Text: text}
}

// Rename closes the old name's validity range and opens the new one.
func (b *Builder) Rename(articleID int, name string, date time.Time) Statement {
	text := fmt.Sprintf(`SELECT balance_api.fn_balance_article_rename(
    p_article_id => %d,
    p_article_name => '%s',
    p_old_date => '%s',
    p_new_valid_date => '%s'
);`, articleID, name, date.Format(changeDateLayout), newValidDate)
	return Statement{Category: CategoryChange, Text: text}
}

// OrdSet moves an article to a new display position.
func (b *Builder) OrdSet(articleID int, ord string, date time.Time) Statement {
	text := fmt.Sprintf(`SELECT balance_api.fn_balance_article_ord_set(
    p_article_id => %d,
    p_article_ord => %s,
    p_valid_date => '%s'
);`, articleID, ord, date.Format(changeDateLayout))
	return Statement{Category: CategoryChange, Text: text}
}

// LevelSet reparents an article and/or changes its hierarchy level.
func (b *Builder) LevelSet(articleID int, parentID *int, level string, date time.Time) Statement {
	text := fmt.Sprintf(`SELECT balance_api.fn_balance_article_level_set(
    p_article_id => %d,
    p_begin_date => '%s',
    p_end_date => '%s',
    p_parent_id => %s,
    p_level => %s
);`, articleID, date.Format(changeDateLayout), newValidDate, nullable(parentID), level)
	return Statement{Category: CategoryChange, Text: text}
}

// EndDateSet logically deletes an article from the document.
func (b *Builder) EndDateSet(articleID int, date time.Time) Statement {
	text := fmt.Sprintf("SELECT balance_api.fn_balance_article_end_date_set(%d, '%s', true);",
		articleID, date.Format(changeDateLayout))
	return Statement{Category: CategoryChange, Text: text}
}

func nullable(id *int) string {
	if id == nil {
		return "NULL"
	}
	return fmt.Sprintf("%d", *id)
}
