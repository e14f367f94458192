package model

// Field describes one input of a record form.
type Field struct {
	Name        string
	Label       string
	Kind        FieldKind
	Required    bool
	MinLength   *int
	MaxLength   *int
	Min         *float64
	Max         *float64
	Pattern     string
	Accept      string
	Placeholder string
}

// Column describes one column of a record table.
type Column struct {
	Key    string
	Label  string
	Format ColumnFormat
}

// Order is the ordering applied to a record listing.
type Order struct {
	Key       string
	Direction Direction
	NullsLast bool
}

// Normalize fills defaults: created_at when no key is set, descending when no
// direction is set.
func (o Order) Normalize() Order {
	if o.Key == "" {
		o.Key = "created_at"
	}
	if o.Direction != Ascending {
		o.Direction = Descending
	}
	return o
}

// Collection is a named, homogeneous set of records managed through the admin
// panel.
type Collection struct {
	Name     string
	Label    string
	Singular string
	Order    Order
	Bucket   string
	Public   bool
	Fields   []Field
	Columns  []Column
}

// Field returns the field with the given name.
func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ImageFields returns the fields of kind FieldImage.
func (c Collection) ImageFields() []Field {
	var out []Field
	for _, f := range c.Fields {
		if f.Kind == FieldImage {
			out = append(out, f)
		}
	}
	return out
}
