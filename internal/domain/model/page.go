package model

// Card maps record keys onto the slots of a public card.
type Card struct {
	Title string
	Meta  []string
	Body  string
	Years string
	Link  string
	Image string
}

// Section is one collection rendered on a public page.
type Section struct {
	Collection string
	Heading    string
	Order      Order
	Card       Card
}

// FilterOption is one selectable value of a page filter.
type FilterOption struct {
	Value string
	Label string
}

// Page is a public portfolio page composed of record sections. When FilterKey
// is set, records can be narrowed to those whose FilterKey value matches one
// of Filters; SearchKeys are matched case-insensitively by a free-text query.
type Page struct {
	Slug       string
	Title      string
	Subtitle   string
	Sections   []Section
	FilterKey  string
	Filters    []FilterOption
	SearchKeys []string
}
