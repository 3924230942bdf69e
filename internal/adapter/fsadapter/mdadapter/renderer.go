package mdadapter

import (
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

type DirectiveRenderer struct{}

func NewDirectiveRenderer() renderer.NodeRenderer {
	return &DirectiveRenderer{}
}

func (r *DirectiveRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindSectionLink, r.renderSectionLink)
	reg.Register(KindCountdown, r.renderCountdown)
}

func (r *DirectiveRenderer) renderSectionLink(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	link, ok := n.(*SectionLink)
	if !ok {
		return ast.WalkStop, fmt.Errorf("unexpected node %T, expected *SectionLink", n)
	}

	if link.Error != nil {
		return ast.WalkStop, fmt.Errorf("cannot render link to %s: %w", link.ID, link.Error)
	}

	if link.HTML != nil {
		_, _ = w.Write(link.HTML)

		return ast.WalkContinue, nil
	}

	id := util.EscapeHTML([]byte(link.ID))
	_, _ = fmt.Fprintf(w, `<a href="#%s" class="section-link" data-scroll-to="%s">%s</a>`, id, id, util.EscapeHTML([]byte(link.Label)))

	return ast.WalkContinue, nil
}

func (r *DirectiveRenderer) renderCountdown(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	cd, ok := n.(*Countdown)
	if !ok {
		return ast.WalkStop, fmt.Errorf("unexpected node %T, expected *Countdown", n)
	}

	if cd.Error != nil {
		return ast.WalkStop, fmt.Errorf("cannot render countdown: %w", cd.Error)
	}

	if cd.HTML != nil {
		_, _ = w.Write(cd.HTML)

		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString(`<span class="countdown" data-countdown></span>`)

	return ast.WalkContinue, nil
}
