package emit

import (
	"fmt"
	"io"
	"time"
)

// FileScript holds everything emitted for one source file: the statements
// in final category order plus the commentary a generated script carries.
type FileScript struct {
	SourceFile string
	ReportID   string
	// Rows echoes the dated source rows, kept inside a block comment so
	// reviewers can see what each statement came from.
	Rows []string
	// Markers are inline comment lines for unrecognized actions and
	// row-level failures.
	Markers []string
	// Statements are ordered Renumber, then Add, then Change, preserving
	// row order within each category.
	Statements []Statement
}

// StatementCount returns the number of executable statements.
func (f *FileScript) StatementCount() int {
	return len(f.Statements)
}

// WriteScript writes all file scripts as one reviewable SQL file.
func WriteScript(w io.Writer, files []*FileScript, generatedAt time.Time) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("-- ===========================================\n")
	p("-- SQL script generated automatically\n")
	p("-- Generated at: %s\n", generatedAt.Format("2006-01-02 15:04:05"))
	p("-- ===========================================\n\n")

	for _, f := range files {
		p("-- Source: %s\n", f.SourceFile)
		p("-- Report ID: %s\n", f.ReportID)
		if len(f.Rows) > 0 {
			p("/*\n")
			for _, row := range f.Rows {
				p("%s\n", row)
			}
			p("*/\n")
		}
		for _, marker := range f.Markers {
			p("%s\n", marker)
		}
		for _, stmt := range f.Statements {
			p("%s\n", stmt.Text)
		}
		p("\n")
	}

	p("-- ===========================================\n")
	p("-- End of script\n")
	p("-- ===========================================\n")
	return err
}
