package mdadapter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var source = `# About

See the [[#schedule|line-up]] and the [[#faq]].
Starts in [[COUNTDOWN]]

[[not a directive]] and [a link](https://example.com).
Broken [[#bad id!]] and again [[#schedule]].
`

type MockTemplateResolver struct {
	mock.Mock
}

func (m *MockTemplateResolver) RenderSectionLink(link *SectionLink) ([]byte, error) {
	args := m.Called(link.ID, link.Label)

	var b []byte
	if v, ok := args.Get(0).([]byte); ok {
		b = v
	}

	return b, args.Error(1)
}

func (m *MockTemplateResolver) RenderCountdown() ([]byte, error) {
	args := m.Called()

	var b []byte
	if v, ok := args.Get(0).([]byte); ok {
		b = v
	}

	return b, args.Error(1)
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(NewDirectiveExtension()))
}

func convert(t *testing.T, md goldmark.Markdown, src string, pc parser.Context) (string, error) {
	t.Helper()

	doc := md.Parser().Parse(text.NewReader([]byte(src)), parser.WithContext(pc))

	var buf bytes.Buffer
	err := md.Renderer().Render(&buf, []byte(src), doc)

	return buf.String(), err
}

func TestDirectivesDefaultRendering(t *testing.T) {
	out, err := convert(t, newMarkdown(), source, parser.NewContext())
	require.NoError(t, err)

	require.Contains(t, out, `<a href="#schedule" class="section-link" data-scroll-to="schedule">line-up</a>`)
	require.Contains(t, out, `<a href="#faq" class="section-link" data-scroll-to="faq">Faq</a>`)
	require.Contains(t, out, `<span class="countdown" data-countdown></span>`)
	require.Contains(t, out, `[[not a directive]]`)
	require.Contains(t, out, `<a href="https://example.com">a link</a>`)
	require.Contains(t, out, `[[#bad id!]]`)
}

func TestDirectivesWithResolver(t *testing.T) {
	m := new(MockTemplateResolver)
	m.On("RenderSectionLink", "schedule", "line-up").Return([]byte(`<a href="#schedule">LINEUP</a>`), nil)
	m.On("RenderSectionLink", "schedule", "Schedule").Return([]byte(`<a href="#schedule">SCHEDULE</a>`), nil)
	m.On("RenderSectionLink", "faq", "Faq").Return([]byte(`<a href="#faq">FAQ</a>`), nil)
	m.On("RenderCountdown").Return([]byte(`<div id="cd">00</div>`), nil)

	pc := parser.NewContext()
	pc.Set(TemplateResolverKey, m)

	out, err := convert(t, newMarkdown(), source, pc)
	require.NoError(t, err)

	require.Contains(t, out, `<a href="#schedule">LINEUP</a>`)
	require.Contains(t, out, `<a href="#schedule">SCHEDULE</a>`)
	require.Contains(t, out, `<a href="#faq">FAQ</a>`)
	require.Contains(t, out, `<div id="cd">00</div>`)
	m.AssertExpectations(t)
}

func TestDirectiveResolverError(t *testing.T) {
	m := new(MockTemplateResolver)
	m.On("RenderCountdown").Return(nil, errors.New("no COUNTDOWN template"))

	pc := parser.NewContext()
	pc.Set(TemplateResolverKey, m)

	_, err := convert(t, newMarkdown(), "Soon: [[COUNTDOWN]]", pc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no COUNTDOWN template")
}

func TestCollectLinks(t *testing.T) {
	md := newMarkdown()
	doc := md.Parser().Parse(text.NewReader([]byte(source)))

	require.Equal(t, []string{"schedule", "faq"}, CollectLinks(doc))
}

func TestLabelEscaped(t *testing.T) {
	out, err := convert(t, newMarkdown(), `[[#tickets|<b>Buy</b>]]`, parser.NewContext())
	require.NoError(t, err)

	require.Contains(t, out, `&lt;b&gt;Buy&lt;/b&gt;`)
}

func TestDefaultLabel(t *testing.T) {
	testCases := map[string]string{
		"faq":         "Faq",
		"food-drinks": "Food drinks",
		"art_zone":    "Art zone",
		"":            "",
	}

	for in, expected := range testCases {
		require.Equal(t, expected, DefaultLabel(in))
	}
}
