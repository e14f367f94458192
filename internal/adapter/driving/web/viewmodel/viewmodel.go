// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// LayoutViewModel holds the page chrome shared by every full-page render.
type LayoutViewModel struct {
	SiteTitle string
	Title     string
	Nav       []NavItemViewModel

	// Admin switches to the admin chrome with the sign-out control.
	Admin     bool
	UserEmail string
	CSRFToken string

	// RefreshURL, when set, makes the browser navigate there after
	// RefreshAfter seconds.
	RefreshURL   string
	RefreshAfter int
}

// NavItemViewModel is one navigation link.
type NavItemViewModel struct {
	Label  string
	Href   string
	Active bool
}

// HomeViewModel holds the landing page.
type HomeViewModel struct {
	SiteTitle string
	Tagline   string
	Pages     []PageLinkViewModel
}

// PageLinkViewModel links to one public page.
type PageLinkViewModel struct {
	Title    string
	Subtitle string
	Href     string
}

// PageViewModel holds a public page with its record sections.
type PageViewModel struct {
	Title    string
	Subtitle string
	Path     string
	Sections []SectionViewModel

	Filter *FilterViewModel

	SearchEnabled bool
	Query         string
}

// FilterViewModel is the set of filter chips of a page. Active is the
// selected value, empty for "All".
type FilterViewModel struct {
	Active  string
	Options []FilterOptionViewModel
}

// FilterOptionViewModel is one filter chip.
type FilterOptionViewModel struct {
	Label  string
	Href   string
	Active bool
}

// SectionViewModel is one collection rendered as cards.
type SectionViewModel struct {
	Heading string
	Cards   []CardViewModel
	Empty   string
}

// CardViewModel is one record rendered as a card. BodyHTML is sanitized.
type CardViewModel struct {
	Title    string
	Meta     []string
	BodyHTML string
	Years    []string
	Link     string
	Image    string
}

// DashboardViewModel holds the admin landing page.
type DashboardViewModel struct {
	Email string
	Tiles []TileViewModel
}

// TileViewModel links to one collection with its record count.
type TileViewModel struct {
	Label    string
	Href     string
	Count    int
	Fallback bool
}

// LoginViewModel holds the magic-link sign-in page.
type LoginViewModel struct {
	Email     string
	Error     string
	Sent      bool
	Forbidden bool
	CSRFToken string
}

// TableViewModel holds an admin record list.
type TableViewModel struct {
	Title     string
	Singular  string
	NewURL    string
	DeleteURL string
	CSRFToken string

	// Mode is "loading", "empty" or "rows".
	Mode    string
	Columns []string
	Rows    []RowViewModel
	ArmedID string

	// Fallback marks rows served from bundled data; they are read-only.
	Fallback bool
	Error    string
	Notice   string
}

// RowViewModel is one table row.
type RowViewModel struct {
	ID        string
	Cells     []CellViewModel
	Armed     bool
	ReadOnly  bool
	ViewURL   string
	EditURL   string
	CancelURL string
}

// CellViewModel is one table cell. HTML, when set, is trusted markup and
// takes precedence over Text.
type CellViewModel struct {
	Text string
	HTML string
}

// FormViewModel holds a create or edit form.
type FormViewModel struct {
	Title       string
	Action      string
	CancelURL   string
	CSRFToken   string
	SubmitLabel string

	// Status is the form status name: "idle", "submitting" or "succeeded".
	Status string
	Error  string

	Fields []FieldViewModel
}

// FieldViewModel is one form control.
type FieldViewModel struct {
	Name        string
	Label       string
	Kind        string
	Value       string
	Required    bool
	Placeholder string
	Accept      string
	MinLength   int
	MaxLength   int
	Min         string
	Max         string
	Error       string

	// CurrentImage is the stored URL of an image field.
	CurrentImage string
	ValidateURL  string
}

// DetailViewModel holds the read-only view of one record.
type DetailViewModel struct {
	Title   string
	Fields  []DetailFieldViewModel
	EditURL string
	BackURL string
}

// DetailFieldViewModel is one labelled value of a record.
type DetailFieldViewModel struct {
	Label string
	Text  string
	HTML  string
}

// MessageViewModel is a simple titled message page.
type MessageViewModel struct {
	Title   string
	Message string
	BackURL string
}
