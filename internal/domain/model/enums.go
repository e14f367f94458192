package model

// FieldKind is the input kind of a form field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldDate     FieldKind = "date"
	FieldEmail    FieldKind = "email"
	FieldNumber   FieldKind = "number"
	FieldImage    FieldKind = "image"
)

// Valid reports whether k is one of the known field kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldText, FieldTextarea, FieldDate, FieldEmail, FieldNumber, FieldImage:
		return true
	}
	return false
}

// Direction is a sort direction for record listings.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ColumnFormat selects how a table cell or card value is rendered.
type ColumnFormat string

const (
	FormatPlain    ColumnFormat = "plain"
	FormatMarkdown ColumnFormat = "markdown"
	FormatYears    ColumnFormat = "years"
	FormatImage    ColumnFormat = "image"
	FormatLink     ColumnFormat = "link"
)

// Valid reports whether f is one of the known column formats.
func (f ColumnFormat) Valid() bool {
	switch f {
	case FormatPlain, FormatMarkdown, FormatYears, FormatImage, FormatLink:
		return true
	}
	return false
}

// Role is the role claim attached to an authenticated identity.
type Role string

const (
	RoleNone  Role = ""
	RoleAdmin Role = "admin"
)
