package fsadapter

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jgivc/harmonyfest/internal/adapter/fsadapter/mdadapter"
	"github.com/jgivc/harmonyfest/internal/clock"
	"github.com/jgivc/harmonyfest/internal/config"
	"github.com/jgivc/harmonyfest/internal/entity"
	"github.com/jgivc/harmonyfest/internal/util"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

const (
	maxSections   = 100
	sectionExt    = ".md"
	envFileName   = ".env"
	defaultLayout = entity.LayoutText
)

var (
	idRegexp     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	prefixRegexp = regexp.MustCompile(`^(\d+)[-_]`)
)

type Frontmatter struct {
	ID        string            `yaml:"id"`
	Title     string            `yaml:"title"`
	Subtitle  string            `yaml:"subtitle"`
	Order     *int              `yaml:"order"`
	Nav       string            `yaml:"nav"`
	Hidden    bool              `yaml:"hidden"`
	Layout    string            `yaml:"layout"`
	Image     string            `yaml:"image"`
	Cards     []entity.Card     `yaml:"cards"`
	Days      []entity.Day      `yaml:"days"`
	Questions []entity.Question `yaml:"questions"`
	MapURL    string            `yaml:"map_url"`
	Address   string            `yaml:"address"`
}

type fsAdapter struct {
	fs        afero.Fs
	cfg       *config.FSAdapterConfig
	skipFiles map[string]struct{}
	md        goldmark.Markdown
	clock     clock.Clock

	log *slog.Logger
}

func NewFSAdapter(cfg *config.FSAdapterConfig, log *slog.Logger) (*fsAdapter, error) {
	return NewFSAdapterWithFS(afero.NewOsFs(), cfg, clock.NewSystem(), log)
}

func NewFSAdapterWithFS(fs afero.Fs, cfg *config.FSAdapterConfig, c clock.Clock, log *slog.Logger) (*fsAdapter, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("content dir must be set")
	}

	skipFilesMap := make(map[string]struct{})
	skipFilesMap[cfg.TemplateFileName] = struct{}{}
	skipFilesMap[envFileName] = struct{}{}
	for _, file := range cfg.SkipFiles {
		skipFilesMap[file] = struct{}{}
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
			extension.GFM,
			mdadapter.NewDirectiveExtension(),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	if c == nil {
		c = clock.NewSystem()
	}

	return &fsAdapter{
		fs:        fs,
		cfg:       cfg,
		skipFiles: skipFilesMap,
		md:        md,
		clock:     c,
		log:       log.With(slog.String("item", "FSAdapter")),
	}, nil
}

// ListSections returns the markdown files of the content dir in name order.
func (a *fsAdapter) ListSections() ([]string, error) {
	entries, err := afero.ReadDir(a.fs, a.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read content dir %s: %w", a.cfg.Dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != sectionExt {
			continue
		}

		if _, exists := a.skipFiles[entry.Name()]; exists {
			a.log.Info("Skip file", slog.String("name", entry.Name()))

			continue
		}

		files = append(files, filepath.Join(a.cfg.Dir, entry.Name()))

		if len(files) >= maxSections {
			a.log.Warn("Too many sections, the rest are ignored", slog.Int("max", maxSections))

			break
		}
	}

	sort.Strings(files)

	return files, nil
}

// ToSection reads one markdown file: front matter describes the section,
// the body becomes its HTML content.
func (a *fsAdapter) ToSection(fileName string) (*entity.Section, error) {
	if strings.Contains(fileName, "..") {
		return nil, fmt.Errorf("invalid section path")
	}

	src, err := afero.ReadFile(a.fs, fileName)
	if err != nil {
		return nil, fmt.Errorf("cannot read section file: %w", err)
	}

	tmpl, err := a.getTemplate()
	if err != nil {
		return nil, fmt.Errorf("cannot get page template: %w", err)
	}

	tResolver, err := newTemplateResolver(tmpl, a.countdownContext())
	if err != nil {
		// A custom page template may leave the directive templates out,
		// take them from the embedded one.
		dtmpl, err := parseTemplate(defaultTemplateContent)
		if err != nil {
			return nil, fmt.Errorf("cannot get own template: %w", err)
		}

		tResolver, err = newTemplateResolver(dtmpl, a.countdownContext())
		if err != nil {
			return nil, fmt.Errorf("cannot get template: %w", err)
		}
	}

	pc := parser.NewContext()
	pc.Set(mdadapter.TemplateResolverKey, tResolver)

	doc := a.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	var fm Frontmatter
	if data := frontmatter.Get(pc); data != nil {
		if err := data.Decode(&fm); err != nil {
			return nil, fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	section, err := a.newSection(fileName, &fm)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := a.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("cannot render markdown: %w", err)
	}

	section.Content = buf.String()
	section.Links = mdadapter.CollectLinks(doc)

	return section, nil
}

func (a *fsAdapter) newSection(fileName string, fm *Frontmatter) (*entity.Section, error) {
	stem := strings.TrimSuffix(filepath.Base(fileName), sectionExt)

	order := 0
	if m := prefixRegexp.FindStringSubmatch(stem); m != nil {
		order, _ = strconv.Atoi(m[1])
		stem = stem[len(m[0]):]
	}

	section := &entity.Section{
		ID:         strings.ToLower(stem),
		Title:      fm.Title,
		Subtitle:   fm.Subtitle,
		Order:      order,
		Nav:        fm.Nav,
		Hidden:     fm.Hidden,
		Layout:     entity.Layout(strings.ToLower(fm.Layout)),
		Image:      fm.Image,
		Cards:      fm.Cards,
		Days:       fm.Days,
		Questions:  fm.Questions,
		MapURL:     fm.MapURL,
		Address:    fm.Address,
		SourcePath: fileName,
	}

	if fm.ID != "" {
		section.ID = fm.ID
	}

	if fm.Order != nil {
		section.Order = *fm.Order
	}

	if section.Layout == "" {
		section.Layout = defaultLayout
	}

	if !idRegexp.MatchString(section.ID) {
		return nil, fmt.Errorf("invalid section id %q", section.ID)
	}

	if !section.Layout.Valid() {
		return nil, fmt.Errorf("unknown layout %q in section %s", section.Layout, section.ID)
	}

	return section, nil
}

// RenderPage puts the sections into the page template.
func (a *fsAdapter) RenderPage(sections []*entity.Section) (*entity.Page, error) {
	tmpl, err := a.getTemplate()
	if err != nil {
		return nil, fmt.Errorf("cannot get page template: %w", err)
	}

	a.checkLinks(sections)

	content, err := buildTemplate(tmpl, a.pageContext(sections))
	if err != nil {
		return nil, fmt.Errorf("cannot build page: %w", err)
	}

	return &entity.Page{
		Content:  content,
		Hash:     util.GetIDFromString(&content),
		Sections: len(sections),
		BuiltAt:  a.clock.Now(),
	}, nil
}

// checkLinks reports section links that point nowhere. They still render.
func (a *fsAdapter) checkLinks(sections []*entity.Section) {
	ids := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		ids[s.ID] = struct{}{}
	}

	for _, s := range sections {
		for _, link := range s.Links {
			if _, exists := ids[link]; !exists {
				a.log.Warn("Link to unknown section", slog.String("section", s.ID), slog.String("target", link))
			}
		}
	}
}

func (a *fsAdapter) pageContext(sections []*entity.Section) *PageContext {
	pc := &PageContext{
		URL:          a.cfg.URL,
		SubscribeURL: subscribePath,
		Festival:     a.festivalContext(),
		Countdown:    a.countdownContext(),
		Sections:     make([]*PageSection, 0, len(sections)),
	}

	for _, s := range sections {
		if s.Nav != "" {
			pc.Nav = append(pc.Nav, NavItem{ID: s.ID, Label: s.Nav})
		}

		pc.Sections = append(pc.Sections, &PageSection{
			Section:     s,
			ContentHTML: template.HTML(s.Content),
		})
	}

	return pc
}

func (a *fsAdapter) festivalContext() FestivalContext {
	f := a.cfg.Festival
	fc := FestivalContext{
		Name:       f.Name,
		Tagline:    f.Tagline,
		Dates:      f.Dates,
		Venue:      f.Venue,
		TicketsURL: f.TicketsURL,
		About:      f.About,
		Email:      f.Email,
		Phone:      f.Phone,
		Address:    f.Address,
	}

	start, err := f.StartTime()
	if err != nil {
		a.log.Warn("Festival start is not set", slog.Any("error", err))

		return fc
	}

	fc.Start = start.Format("2006-01-02T15:04:05Z07:00")
	fc.Year = start.Year()

	return fc
}

func (a *fsAdapter) fileExists(path string) bool {
	if path == "" {
		return false
	}

	ok, err := afero.Exists(a.fs, path)
	if err != nil {
		a.log.Error("Cannot check file", slog.String("path", path), slog.Any("error", err))

		return false
	}

	return ok
}
