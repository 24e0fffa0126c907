package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finreport-labs/balproc/internal/emit"
	"github.com/finreport-labs/balproc/internal/ident"
	"github.com/finreport-labs/balproc/internal/parser"
	"github.com/finreport-labs/balproc/internal/testutil"
)

var processDate = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

// seqAllocator hands out identifiers from a fixed base so tests can
// predict which placeholder resolved to which ID.
func seqAllocator(base int) ident.Allocator {
	next := base
	return ident.AllocatorFunc(func(context.Context) (int, error) {
		id := next
		next++
		return id, nil
	})
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	reg := ident.NewRegistry(seqAllocator(9000), testutil.Logger(t))
	return NewProcessor(reg, "101", testutil.Logger(t))
}

func row(line int, token, name, action, attrs string) *parser.ChangeRow {
	return &parser.ChangeRow{
		Line:          line,
		ChangeDate:    processDate,
		ArticleToken:  token,
		ArticleName:   name,
		ActionText:    action,
		AttributeText: attrs,
	}
}

func statementTexts(fs *emit.FileScript) []string {
	texts := make([]string, 0, len(fs.Statements))
	for _, s := range fs.Statements {
		texts = append(texts, s.Text)
	}
	return texts
}

func TestProcess_CategoryOrdering(t *testing.T) {
	p := newTestProcessor(t)

	// Source order is change, add, renumber; output must come back
	// renumber, add, change.
	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changed name to Operating revenue", "Operating revenue"),
		row(4, "", "", "Add article", "name=Costs\nord=20\nlvl=2\nparent=120"),
		row(5, "articles with order > 50 shift down by 3", "", "", ""),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 3)

	assert.Equal(t, emit.CategoryRenumber, fs.Statements[0].Category)
	assert.Equal(t, emit.CategoryAdd, fs.Statements[1].Category)
	assert.Equal(t, emit.CategoryChange, fs.Statements[2].Category)
}

func TestProcess_OpenEndedDirectiveClosedByPrevious(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "articles with order > 50 shift down by 3", "", "", ""),
		row(4, "articles with order > 30 shift down by 2", "", "", ""),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 2)

	// The first directive has nothing above it; its open end is emitted
	// as-is. The second closes at the first one's lower bound minus one.
	assert.Contains(t, fs.Statements[0].Text, "p_begin_ord => 51")
	assert.Contains(t, fs.Statements[0].Text, "p_end_ord => 1000")
	assert.Contains(t, fs.Statements[1].Text, "p_begin_ord => 31")
	assert.Contains(t, fs.Statements[1].Text, "p_end_ord => 50")
}

func TestProcess_BoundedDirectiveKeepsItsEnd(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "articles with order > 50 shift down by 3", "", "", ""),
		row(4, "articles with order >= 10 and order <= 20 shift down by +5", "", "", ""),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 2)

	assert.Contains(t, fs.Statements[1].Text, "p_begin_ord => 10")
	assert.Contains(t, fs.Statements[1].Text, "p_end_ord => 20")
	assert.Contains(t, fs.Statements[1].Text, "p_shift_ord => 5")
}

func TestProcess_CreateRowGetsPlaceholderID(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "", "", "Add article", "name=Costs\nord=20\nlvl=2\nparent=100"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 1)

	assert.Contains(t, fs.Statements[0].Text, "p_article_id => 9000")
	assert.Contains(t, fs.Statements[0].Text, "p_parent_id => 100")
	assert.Equal(t, "TEMP_1", rows[0].ArticleToken)
}

func TestProcess_CreateRowMissingOrdSkipped(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "", "", "Add article", "name=Costs\nlvl=2\nparent=100"),
	}

	fs := p.Process(context.Background(), rows)
	assert.Empty(t, fs.Statements)
	assert.Empty(t, fs.Markers)
}

func TestProcess_ForwardReferenceSharesID(t *testing.T) {
	p := newTestProcessor(t)

	// Row 3 references ID7 as its parent before row 4 creates it.
	// Pass 1 binds the token once, so both rows see the same ID.
	rows := []*parser.ChangeRow{
		row(3, "", "", "Add article", "name=Child\nord=20\nlvl=3\nparent=ID7"),
		row(4, "ID7", "", "Add article", "name=Parent\nord=10\nlvl=2\nparent=100"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 2)

	texts := statementTexts(fs)
	assert.Contains(t, texts[0], "p_parent_id => 9000")
	assert.Contains(t, texts[1], "p_article_id => 9000")
}

func TestProcess_CompositeEmitsPerAspect(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changes name, order", "name=Operating revenue\nord=15"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 2)

	assert.Contains(t, fs.Statements[0].Text, "fn_balance_article_rename")
	assert.Contains(t, fs.Statements[1].Text, "fn_balance_article_ord_set")
	assert.Contains(t, fs.Statements[1].Text, "p_article_ord => 15")
}

func TestProcess_CompositeNameOrderIgnoresParenthetical(t *testing.T) {
	p := newTestProcessor(t)

	// No level/parent aspect is named, so the parenthetical parent plays
	// no part: exactly a rename and an order set come out.
	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changes name, order (parent=40 unchanged)", "name=Totals\nord=5"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 2)

	assert.Equal(t, emit.CategoryChange, fs.Statements[0].Category)
	assert.Equal(t, emit.CategoryChange, fs.Statements[1].Category)
	assert.Contains(t, fs.Statements[0].Text, "p_article_name => 'Totals'")
	assert.Contains(t, fs.Statements[1].Text, "p_article_ord => 5")
	assert.NotContains(t, fs.Statements[0].Text, "40")
	assert.NotContains(t, fs.Statements[1].Text, "p_parent_id")
}

func TestProcess_CompositeSkipsAspectWithoutAttribute(t *testing.T) {
	p := newTestProcessor(t)

	// Order is named as changed but no ord attribute is supplied; only
	// the rename goes out.
	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changes name, order", "name=Operating revenue"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 1)
	assert.Contains(t, fs.Statements[0].Text, "fn_balance_article_rename")
}

func TestProcess_CompositeParentheticalParent(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changes level (parent=40 unchanged)", "lvl=3"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 1)

	assert.Contains(t, fs.Statements[0].Text, "fn_balance_article_level_set")
	assert.Contains(t, fs.Statements[0].Text, "p_parent_id => 40")
	assert.Contains(t, fs.Statements[0].Text, "p_level => 3")
}

func TestProcess_ParentAttributeBeatsParenthetical(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changes level (parent=40 unchanged)", "lvl=3\nparent=55"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 1)
	assert.Contains(t, fs.Statements[0].Text, "p_parent_id => 55")
}

func TestProcess_LogicalDelete(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Logically deletes from the document", ""),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Statements, 1)
	assert.Equal(t, "SELECT balance_api.fn_balance_article_end_date_set(120, '14.03.2025', true);",
		fs.Statements[0].Text)
}

func TestProcess_DatelessRowSkipped(t *testing.T) {
	p := newTestProcessor(t)

	undated := &parser.ChangeRow{
		Line:         3,
		ArticleToken: "120",
		ActionText:   "Changed name to X",
	}

	fs := p.Process(context.Background(), []*parser.ChangeRow{undated})
	assert.Empty(t, fs.Statements)
	assert.Empty(t, fs.Rows)
	assert.Empty(t, fs.Markers)
}

func TestProcess_UnrecognizedActionMarker(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(7, "120", "Revenue", "Recalculates totals", ""),
	}

	fs := p.Process(context.Background(), rows)
	assert.Empty(t, fs.Statements)
	require.Len(t, fs.Markers, 1)
	assert.Equal(t, "-- Unknown action type in row 7", fs.Markers[0])
}

func TestProcess_RenameWithoutNameSkipped(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changed name to", "   "),
	}

	fs := p.Process(context.Background(), rows)
	assert.Empty(t, fs.Statements)
	assert.Empty(t, fs.Markers)
}

func TestProcess_UnresolvableTokenSkipsRow(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "Revenue totals", "", "Changed name to X", "X"),
	}

	fs := p.Process(context.Background(), rows)
	assert.Empty(t, fs.Statements)
}

func TestProcess_RowEcho(t *testing.T) {
	p := newTestProcessor(t)

	rows := []*parser.ChangeRow{
		row(3, "120", "Revenue", "Changed name to X", "X"),
	}

	fs := p.Process(context.Background(), rows)
	require.Len(t, fs.Rows, 1)
	assert.True(t, strings.HasPrefix(fs.Rows[0], "14.03.2025\t120\tRevenue"), fs.Rows[0])
}

func TestProcess_AllocatorFailureBecomesWarning(t *testing.T) {
	failing := ident.AllocatorFunc(func(context.Context) (int, error) {
		return 0, assert.AnError
	})
	reg := ident.NewRegistry(failing, testutil.Logger(t))
	p := NewProcessor(reg, "101", testutil.Logger(t))

	rows := []*parser.ChangeRow{
		row(3, "ID9", "", "Changed name to X", "X"),
	}

	fs := p.Process(context.Background(), rows)
	assert.Empty(t, fs.Statements)
}
