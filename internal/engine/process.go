package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/finreport-labs/balproc/internal/emit"
	"github.com/finreport-labs/balproc/internal/ident"
	"github.com/finreport-labs/balproc/internal/parser"
)

// Processor runs the two passes over one file's rows: pass 1 pre-allocates
// identifiers so later rows can forward-reference them, pass 2 classifies
// each row and emits its statements into category buckets.
type Processor struct {
	reg     *ident.Registry
	builder *emit.Builder
	logger  *slog.Logger
}

// NewProcessor creates a processor for one file. The registry must be
// fresh: token bindings never survive across files.
func NewProcessor(reg *ident.Registry, reportID string, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		reg:     reg,
		builder: emit.NewBuilder(reportID),
		logger:  logger,
	}
}

// Attribute keys a creation row must carry.
var addArticleKeys = []string{"name", "ord", "lvl", "parent"}

// pass2 accumulates emission state across rows: the category buckets, the
// script commentary, and the lower bound of the last renumber directive
// (used to close a preceding open-ended range; directives are expected in
// descending range order, anything else is unsupported input).
type pass2 struct {
	script             *emit.FileScript
	renum, add, change []emit.Statement
	previousBegin      int
	havePrevious       bool
}

// Process converts the rows into an ordered set of statements. Row-level
// faults are downgraded to markers and warnings; only the surrounding I/O
// can fail the file.
func (p *Processor) Process(ctx context.Context, rows []*parser.ChangeRow) *emit.FileScript {
	p.preallocate(ctx, rows)

	st := &pass2{script: &emit.FileScript{}}
	for _, row := range rows {
		if !row.Dated() {
			continue
		}

		st.script.Rows = append(st.script.Rows, fmt.Sprintf("%s\t%s\t%s\t%s\t%q",
			row.ChangeDate.Format("02.01.2006"), row.ArticleToken, row.ArticleName,
			row.ActionText, row.AttributeText))

		if err := p.processRow(ctx, row, st); err != nil {
			st.script.Markers = append(st.script.Markers,
				fmt.Sprintf("-- ERROR in row %d: %v", row.Line, err))
			p.logger.Error("row processing failed", slog.Int("row", row.Line), slog.Any("error", err))
		}
	}

	st.script.Statements = append(st.script.Statements, st.renum...)
	st.script.Statements = append(st.script.Statements, st.add...)
	st.script.Statements = append(st.script.Statements, st.change...)
	return st.script
}

// preallocate is pass 1: resolve every identifier the file will need
// before any statement is built. Creation rows with a blank identifier
// column get a synthesized placeholder token written back into the row.
func (p *Processor) preallocate(ctx context.Context, rows []*parser.ChangeRow) {
	tempCounter := 1
	for _, row := range rows {
		if !row.Dated() {
			continue
		}

		token := row.Token()
		if token != "" && parser.ParseRenumberDirective(token) == nil {
			p.resolveLenient(ctx, token, row.Line)
		}

		attrs := parser.ParseAttributes(row.AttributeText)
		if parent, ok := attrs["parent"]; ok {
			p.resolveLenient(ctx, parent, row.Line)
		}

		if token == "" && attrs.HasAll(addArticleKeys...) {
			placeholder := fmt.Sprintf("TEMP_%d", tempCounter)
			tempCounter++
			row.ArticleToken = placeholder
			p.resolveLenient(ctx, placeholder, row.Line)
		}
	}
}

// resolveLenient resolves a token for pre-allocation purposes only,
// logging allocation failures instead of propagating them. Pass 2 retries
// the same token and handles the failure per operation.
func (p *Processor) resolveLenient(ctx context.Context, token string, line int) {
	if _, _, err := p.reg.Resolve(ctx, token); err != nil {
		p.logger.Warn("pre-allocation failed",
			slog.String("token", token), slog.Int("row", line), slog.Any("error", err))
	}
}

// processRow classifies one row and appends its statements to the proper
// bucket. A panic while handling the row is recovered into the returned
// error so the remaining rows still run.
func (p *Processor) processRow(ctx context.Context, row *parser.ChangeRow, st *pass2) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	op := parser.Classify(row)

	switch op.Kind {
	case parser.OpRenumber:
		d := *op.Directive
		if d.EndOrd == parser.OpenEndOrd && st.havePrevious {
			d.EndOrd = st.previousBegin - 1
		}
		st.renum = append(st.renum, p.builder.Renumber(d, row.ChangeDate))
		st.previousBegin = d.BeginOrd
		st.havePrevious = true

	case parser.OpRename:
		newName := strings.TrimSpace(row.AttributeText)
		if newName == "" {
			p.warnSkip(row, "rename without a new name")
			return nil
		}
		articleID, ok := p.resolveArticle(ctx, row)
		if !ok {
			return nil
		}
		st.change = append(st.change, p.builder.Rename(articleID, newName, row.ChangeDate))

	case parser.OpAddArticle:
		if !op.Attrs.HasAll(addArticleKeys...) {
			p.warnSkip(row, "add article with incomplete attributes")
			return nil
		}
		articleID, ok := p.resolveArticle(ctx, row)
		if !ok {
			return nil
		}
		parentID := p.resolveParent(ctx, op.Attrs["parent"], row)
		st.add = append(st.add, p.builder.AddArticle(articleID, parentID,
			op.Attrs["name"], op.Attrs["ord"], op.Attrs["lvl"], row.ChangeDate))

	case parser.OpLogicalDelete:
		articleID, ok := p.resolveArticle(ctx, row)
		if !ok {
			return nil
		}
		st.change = append(st.change, p.builder.EndDateSet(articleID, row.ChangeDate))

	case parser.OpSetLevelParent:
		articleID, ok := p.resolveArticle(ctx, row)
		if !ok {
			return nil
		}
		parentID := p.resolveParent(ctx, op.Attrs.Get("parent", ""), row)
		level := op.Attrs.Get("lvl", "-1")
		if parentID == nil && level == "-1" {
			p.warnSkip(row, "level change without parent or level")
			return nil
		}
		st.change = append(st.change, p.builder.LevelSet(articleID, parentID, level, row.ChangeDate))

	case parser.OpComposite:
		articleID, ok := p.resolveArticle(ctx, row)
		if !ok {
			return nil
		}
		p.emitComposite(ctx, &op, articleID, st)

	case parser.OpUnrecognized:
		st.script.Markers = append(st.script.Markers,
			fmt.Sprintf("-- Unknown action type in row %d", row.Line))

	case parser.OpNone:
		// Nothing actionable on this row.
	}

	return nil
}

// emitComposite evaluates the sub-operations of a "changes X, Y" row.
// Each one emits independently when its preconditions hold.
func (p *Processor) emitComposite(ctx context.Context, op *parser.Operation, articleID int, st *pass2) {
	row := op.Row

	if op.HasAspect("name", "title") {
		if name, ok := op.Attrs["name"]; ok {
			st.change = append(st.change, p.builder.Rename(articleID, name, row.ChangeDate))
		}
	}

	if op.HasAspect("ord", "order", "position") {
		if ord, ok := op.Attrs["ord"]; ok {
			st.change = append(st.change, p.builder.OrdSet(articleID, ord, row.ChangeDate))
		}
	}

	if op.HasAspect("level", "parent") {
		parentToken := op.Attrs.Get("parent", "")
		if parentToken == "" {
			// The parenthetical annotation only backs up a missing
			// parent attribute.
			parentToken = op.ActionParent
		}
		parentID := p.resolveParent(ctx, parentToken, row)
		level := op.Attrs.Get("lvl", "-1")
		if parentID == nil && level == "-1" {
			p.warnSkip(row, "level change without parent or level")
			return
		}
		st.change = append(st.change, p.builder.LevelSet(articleID, parentID, level, row.ChangeDate))
	}
}

// resolveArticle resolves the row's own identifier token. An unresolved
// token skips the row's operation with a warning.
func (p *Processor) resolveArticle(ctx context.Context, row *parser.ChangeRow) (int, bool) {
	id, ok, err := p.reg.Resolve(ctx, row.ArticleToken)
	if err != nil {
		p.logger.Warn("article ID unresolved",
			slog.String("token", row.Token()), slog.Int("row", row.Line), slog.Any("error", err))
		return 0, false
	}
	if !ok {
		p.warnSkip(row, "article token did not resolve")
		return 0, false
	}
	return id, true
}

// resolveParent resolves an optional parent reference; nil means the
// statement carries an explicit NULL parent.
func (p *Processor) resolveParent(ctx context.Context, token string, row *parser.ChangeRow) *int {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	id, ok, err := p.reg.Resolve(ctx, token)
	if err != nil || !ok {
		p.logger.Warn("parent reference unresolved",
			slog.String("token", token), slog.Int("row", row.Line), slog.Any("error", err))
		return nil
	}
	return &id
}

func (p *Processor) warnSkip(row *parser.ChangeRow, reason string) {
	p.logger.Warn("row skipped", slog.Int("row", row.Line), slog.String("reason", reason))
}
