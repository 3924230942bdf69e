package mdadapter

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var (
	startSeq     = []byte{'[', '['}
	endSeq       = []byte{']', ']'}
	labelSeq     = []byte{'|'}
	anchorPrefix = []byte{'#'}
	countdownSeq = []byte("COUNTDOWN")

	idRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

	// TemplateResolverKey holds the TemplateResolver used while parsing.
	TemplateResolverKey = parser.NewContextKey()
)

// TemplateResolver renders directive nodes with the page templates.
type TemplateResolver interface {
	RenderSectionLink(link *SectionLink) ([]byte, error)
	RenderCountdown() ([]byte, error)
}

/*
 * [[#schedule]]            - link to section "schedule"
 * [[#schedule|Line-up]]    - same, with a label
 * [[COUNTDOWN]]            - countdown widget
 * Anything else in double brackets is left to the other inline parsers.
 */
type DirectiveParser struct{}

func NewDirectiveParser() parser.InlineParser {
	return &DirectiveParser{}
}

func (p *DirectiveParser) Trigger() []byte {
	return []byte{'['}
}

func (p *DirectiveParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if !bytes.HasPrefix(line, startSeq) {
		return nil
	}

	end := bytes.Index(line[len(startSeq):], endSeq)
	if end < 0 {
		return nil
	}

	body := bytes.TrimSpace(line[len(startSeq) : len(startSeq)+end])
	resolver, _ := pc.Get(TemplateResolverKey).(TemplateResolver)

	var node ast.Node

	switch {
	case bytes.Equal(body, countdownSeq):
		n := &Countdown{}
		if resolver != nil {
			n.HTML, n.Error = resolver.RenderCountdown()
		}
		node = n

	case bytes.HasPrefix(body, anchorPrefix):
		target, label, _ := bytes.Cut(body[len(anchorPrefix):], labelSeq)

		id := string(bytes.TrimSpace(target))
		if !idRegexp.MatchString(id) {
			return nil
		}

		n := &SectionLink{
			ID:    id,
			Label: string(bytes.TrimSpace(label)),
		}
		if n.Label == "" {
			n.Label = DefaultLabel(id)
		}
		if resolver != nil {
			n.HTML, n.Error = resolver.RenderSectionLink(n)
		}
		node = n

	default:
		return nil
	}

	block.Advance(len(startSeq) + end + len(endSeq))

	return node
}

// DefaultLabel makes a label out of a section id: "food-drinks" -> "Food drinks".
func DefaultLabel(id string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(id)
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// CollectLinks returns the section ids referenced by links under doc, in
// document order, without duplicates.
func CollectLinks(doc ast.Node) []string {
	var (
		links []string
		seen  = make(map[string]struct{})
	)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if link, ok := n.(*SectionLink); ok {
			if _, exists := seen[link.ID]; !exists {
				seen[link.ID] = struct{}{}
				links = append(links, link.ID)
			}
		}

		return ast.WalkContinue, nil
	})

	return links
}
