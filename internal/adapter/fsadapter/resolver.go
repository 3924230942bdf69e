package fsadapter

import (
	"fmt"
	"html/template"

	"github.com/jgivc/harmonyfest/internal/adapter/fsadapter/mdadapter"
)

// templateResolver renders markdown directives with the named templates of
// the page template.
type templateResolver struct {
	linkTemplate      *template.Template
	countdownTemplate *template.Template
	countdown         CountdownContext
}

func newTemplateResolver(tmpl *template.Template, cd CountdownContext) (*templateResolver, error) {
	r := &templateResolver{
		linkTemplate:      tmpl.Lookup(templateNameSectionLink),
		countdownTemplate: tmpl.Lookup(templateNameCountdown),
		countdown:         cd,
	}

	if r.linkTemplate == nil {
		return nil, fmt.Errorf("cannot find template %s", templateNameSectionLink)
	}

	if r.countdownTemplate == nil {
		return nil, fmt.Errorf("cannot find template %s", templateNameCountdown)
	}

	return r, nil
}

func (r *templateResolver) RenderSectionLink(link *mdadapter.SectionLink) ([]byte, error) {
	content, err := buildTemplate(r.linkTemplate, link)
	if err != nil {
		return nil, err
	}

	return []byte(content), nil
}

func (r *templateResolver) RenderCountdown() ([]byte, error) {
	content, err := buildTemplate(r.countdownTemplate, r.countdown)
	if err != nil {
		return nil, err
	}

	return []byte(content), nil
}

var _ mdadapter.TemplateResolver = (*templateResolver)(nil)
