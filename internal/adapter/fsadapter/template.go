package fsadapter

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	_ "embed"

	"github.com/jgivc/harmonyfest/internal/countdown"
	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/spf13/afero"
)

const (
	templateNameSectionLink = "SECTION_LINK"
	templateNameCountdown   = "COUNTDOWN"

	countdownSnapshotPath = "/api/countdown"
	countdownStreamPath   = "/api/countdown/stream"
	subscribePath         = "/api/subscribe"
)

//go:embed templates/page.html
var defaultTemplateContent []byte

type NavItem struct {
	ID    string
	Label string
}

type FestivalContext struct {
	Name       string
	Tagline    string
	Dates      string
	Venue      string
	TicketsURL string
	About      string
	Email      string
	Phone      string
	Address    string
	Start      string // RFC3339, empty when unknown
	Year       int
}

// CountdownContext feeds the COUNTDOWN template. The page is cached, so the
// fields start at zero and the client fills them from the stream.
type CountdownContext struct {
	Fields      []countdown.Field
	SnapshotURL string
	StreamURL   string
}

type PageSection struct {
	*entity.Section
	ContentHTML template.HTML
}

type PageContext struct {
	URL          string
	SubscribeURL string
	Festival     FestivalContext
	Countdown    CountdownContext
	Nav          []NavItem
	Sections     []*PageSection
}

func (a *fsAdapter) countdownContext() CountdownContext {
	return CountdownContext{
		Fields:      countdown.Sample{}.Fields(),
		SnapshotURL: countdownSnapshotPath,
		StreamURL:   countdownStreamPath,
	}
}

// getTemplate loads page.html from the content dir, or the embedded page.
func (a *fsAdapter) getTemplate() (*template.Template, error) {
	content := defaultTemplateContent

	if a.cfg.TemplateFileName != "" {
		fileName := filepath.Join(a.cfg.Dir, a.cfg.TemplateFileName)
		if a.fileExists(fileName) {
			data, err := afero.ReadFile(a.fs, fileName)
			if err != nil {
				return nil, fmt.Errorf("cannot read template file: %s: %w", fileName, err)
			}

			content = data
		}
	}

	return parseTemplate(content)
}

func parseTemplate(content []byte) (*template.Template, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("cannot get template content")
	}

	tmpl, err := template.New("").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("cannot parse template content: %w", err)
	}

	return tmpl, nil
}

func buildTemplate(tmpl *template.Template, data any) (string, error) {
	buf := bytes.Buffer{}

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.String(), nil
}
