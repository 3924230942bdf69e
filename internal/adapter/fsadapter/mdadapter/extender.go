package mdadapter

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// DirectiveExtension adds section links and the countdown directive.
// It runs ahead of the link parser so [[...]] is not taken as a link.
type DirectiveExtension struct{}

func NewDirectiveExtension() goldmark.Extender {
	return &DirectiveExtension{}
}

func (e *DirectiveExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewDirectiveParser(), 199),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewDirectiveRenderer(), 199),
		),
	)
}
