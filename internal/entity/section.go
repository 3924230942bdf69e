package entity

// Layout selects how the page template renders a section.
type Layout string

const (
	LayoutText     Layout = "text"
	LayoutCards    Layout = "cards"
	LayoutSchedule Layout = "schedule"
	LayoutFAQ      Layout = "faq"
	LayoutMap      Layout = "map"
	LayoutCTA      Layout = "cta"
)

func (l Layout) Valid() bool {
	switch l {
	case LayoutText, LayoutCards, LayoutSchedule, LayoutFAQ, LayoutMap, LayoutCTA:
		return true
	}

	return false
}

type Card struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
	Icon  string `yaml:"icon"`
	Image string `yaml:"image"`
}

// Slot is one entry of a festival day.
type Slot struct {
	Time        string `yaml:"time"`
	Title       string `yaml:"title"`
	Stage       string `yaml:"stage"`
	Description string `yaml:"description"`
}

type Day struct {
	Name  string `yaml:"name"`
	Date  string `yaml:"date"`
	Items []Slot `yaml:"items"`
}

type Question struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Section is one block of the page, read from a markdown file.
type Section struct {
	ID        string
	Title     string
	Subtitle  string
	Order     int
	Nav       string // menu label, empty keeps it out of the menu
	Hidden    bool
	Layout    Layout
	Image     string
	Cards     []Card
	Days      []Day
	Questions []Question
	MapURL    string
	Address   string

	Content    string   // rendered markdown body
	Links      []string // section ids referenced from the body
	SourcePath string
}
