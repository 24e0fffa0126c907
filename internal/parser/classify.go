package parser

import (
	"regexp"
	"strings"
)

// OpKind identifies the structural operation a row represents.
type OpKind string

const (
	OpRenumber       OpKind = "renumber"
	OpRename         OpKind = "rename"
	OpAddArticle     OpKind = "add_article"
	OpLogicalDelete  OpKind = "logical_delete"
	OpSetLevelParent OpKind = "set_level_parent"
	OpComposite      OpKind = "composite"
	OpUnrecognized   OpKind = "unrecognized"
	// OpNone means the row carries nothing actionable (blank action and
	// no create-article shape). No statement, no marker.
	OpNone OpKind = "none"
)

// Operation is a classified row together with the typed parameters its
// statement needs.
type Operation struct {
	Kind  OpKind
	Row   *ChangeRow
	Attrs AttributeMap

	// Directive is set for OpRenumber.
	Directive *RenumberDirective
	// Aspects lists the changed aspects of an OpComposite row
	// ("name", "order", "level", ...), parentheticals stripped.
	Aspects []string
	// ActionParent holds the article ID from a "(parent=NNN unchanged)"
	// annotation, used only when no parent attribute is supplied.
	ActionParent string
}

// parentUnchangedPattern captures the parenthetical parent annotation in
// composite action text.
var parentUnchangedPattern = regexp.MustCompile(`\(parent=(\d+) unchanged\)`)

// Attribute keys a creation row must carry.
var addArticleKeys = []string{"name", "ord", "lvl", "parent"}

// classifyRule pairs a predicate over the row with the builder for its
// operation. Rules are evaluated top to bottom, first match wins.
type classifyRule struct {
	match func(action string, row *ChangeRow, attrs AttributeMap) bool
	build func(action string, row *ChangeRow, attrs AttributeMap) Operation
}

var classifyRules = []classifyRule{
	{
		match: func(action string, _ *ChangeRow, _ AttributeMap) bool {
			return strings.Contains(action, "changed name to")
		},
		build: func(_ string, row *ChangeRow, attrs AttributeMap) Operation {
			return Operation{Kind: OpRename, Row: row, Attrs: attrs}
		},
	},
	{
		match: func(action string, _ *ChangeRow, attrs AttributeMap) bool {
			return strings.Contains(action, "add article") ||
				(action == "" && attrs.HasAll(addArticleKeys...))
		},
		build: func(_ string, row *ChangeRow, attrs AttributeMap) Operation {
			return Operation{Kind: OpAddArticle, Row: row, Attrs: attrs}
		},
	},
	{
		match: func(action string, _ *ChangeRow, _ AttributeMap) bool {
			return strings.Contains(action, "logically deletes from the document")
		},
		build: func(_ string, row *ChangeRow, attrs AttributeMap) Operation {
			return Operation{Kind: OpLogicalDelete, Row: row, Attrs: attrs}
		},
	},
	{
		match: func(action string, _ *ChangeRow, _ AttributeMap) bool {
			return strings.Contains(action, "changes level and parent") ||
				strings.Contains(action, "changes level, parent")
		},
		build: func(_ string, row *ChangeRow, attrs AttributeMap) Operation {
			return Operation{Kind: OpSetLevelParent, Row: row, Attrs: attrs}
		},
	},
	{
		match: func(action string, _ *ChangeRow, _ AttributeMap) bool {
			return strings.Contains(action, "changes ")
		},
		build: func(action string, row *ChangeRow, attrs AttributeMap) Operation {
			return Operation{
				Kind:         OpComposite,
				Row:          row,
				Attrs:        attrs,
				Aspects:      compositeAspects(action),
				ActionParent: parentFromAction(action),
			}
		},
	},
}

// Classify determines which structural operation a row represents.
// A renumber directive in the identifier column short-circuits everything
// else; otherwise the action text is matched against the rule list.
func Classify(row *ChangeRow) Operation {
	if d := ParseRenumberDirective(row.ArticleToken); d != nil {
		return Operation{Kind: OpRenumber, Row: row, Directive: d}
	}

	attrs := ParseAttributes(row.AttributeText)
	action := strings.ToLower(strings.TrimSpace(row.ActionText))

	for _, rule := range classifyRules {
		if rule.match(action, row, attrs) {
			return rule.build(action, row, attrs)
		}
	}

	if action == "" {
		return Operation{Kind: OpNone, Row: row, Attrs: attrs}
	}
	return Operation{Kind: OpUnrecognized, Row: row, Attrs: attrs}
}

// compositeAspects extracts the changed aspects from generic "changes ..."
// text: the tail is split on commas and any parenthetical suffix dropped.
func compositeAspects(action string) []string {
	_, tail, found := strings.Cut(action, "changes ")
	if !found {
		return nil
	}
	var aspects []string
	for _, part := range strings.Split(tail, ",") {
		part, _, _ = strings.Cut(part, " (")
		part = strings.TrimSpace(part)
		if part != "" {
			aspects = append(aspects, part)
		}
	}
	return aspects
}

func parentFromAction(action string) string {
	if m := parentUnchangedPattern.FindStringSubmatch(action); m != nil {
		return m[1]
	}
	return ""
}

// HasAspect reports whether any of the given names appears among the
// operation's changed aspects.
func (o *Operation) HasAspect(names ...string) bool {
	for _, aspect := range o.Aspects {
		for _, name := range names {
			if aspect == name {
				return true
			}
		}
	}
	return false
}
