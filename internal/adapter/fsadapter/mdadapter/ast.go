package mdadapter

import (
	"github.com/yuin/goldmark/ast"
)

var (
	KindSectionLink = ast.NewNodeKind("SectionLink")
	KindCountdown   = ast.NewNodeKind("Countdown")
)

// SectionLink is an in-page anchor written as [[#id]] or [[#id|Label]].
// HTML is filled at parse time when a TemplateResolver is in the context.
type SectionLink struct {
	ast.BaseInline
	ID    string
	Label string
	HTML  []byte
	Error error
}

func (n *SectionLink) Kind() ast.NodeKind {
	return KindSectionLink
}

func (n *SectionLink) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"ID":    n.ID,
		"Label": n.Label,
	}, nil)
}

// Countdown marks where the live countdown widget goes ([[COUNTDOWN]]).
type Countdown struct {
	ast.BaseInline
	HTML  []byte
	Error error
}

func (n *Countdown) Kind() ast.NodeKind {
	return KindCountdown
}

func (n *Countdown) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}
