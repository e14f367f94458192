// Package catalog defines the managed collections, their forms and tables,
// and the public pages built from them. The definitions are baked into the
// binary from collections.yaml.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

//go:embed collections.yaml
var embeddedCatalog []byte

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Catalog is an immutable, validated set of collections and pages.
type Catalog struct {
	collections []model.Collection
	byName      map[string]int
	pages       []model.Page
	bySlug      map[string]int
}

type fileDoc struct {
	Collections []collectionDoc `yaml:"collections"`
	Pages       []pageDoc       `yaml:"pages"`
}

type orderDoc struct {
	Key       string `yaml:"key"`
	Direction string `yaml:"direction"`
	NullsLast bool   `yaml:"nulls_last"`
}

type fieldDoc struct {
	Name        string   `yaml:"name"`
	Label       string   `yaml:"label"`
	Kind        string   `yaml:"kind"`
	Required    bool     `yaml:"required"`
	MinLength   *int     `yaml:"min_length"`
	MaxLength   *int     `yaml:"max_length"`
	Min         *float64 `yaml:"min"`
	Max         *float64 `yaml:"max"`
	Pattern     string   `yaml:"pattern"`
	Accept      string   `yaml:"accept"`
	Placeholder string   `yaml:"placeholder"`
}

type columnDoc struct {
	Key    string `yaml:"key"`
	Label  string `yaml:"label"`
	Format string `yaml:"format"`
}

type collectionDoc struct {
	Name     string      `yaml:"name"`
	Label    string      `yaml:"label"`
	Singular string      `yaml:"singular"`
	Public   bool        `yaml:"public"`
	Bucket   string      `yaml:"bucket"`
	Order    orderDoc    `yaml:"order"`
	Fields   []fieldDoc  `yaml:"fields"`
	Columns  []columnDoc `yaml:"columns"`
}

type cardDoc struct {
	Title string   `yaml:"title"`
	Meta  []string `yaml:"meta"`
	Body  string   `yaml:"body"`
	Years string   `yaml:"years"`
	Link  string   `yaml:"link"`
	Image string   `yaml:"image"`
}

type sectionDoc struct {
	Collection string    `yaml:"collection"`
	Heading    string    `yaml:"heading"`
	Order      *orderDoc `yaml:"order"`
	Card       cardDoc   `yaml:"card"`
}

type filterDoc struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type pageDoc struct {
	Slug       string       `yaml:"slug"`
	Title      string       `yaml:"title"`
	Subtitle   string       `yaml:"subtitle"`
	FilterKey  string       `yaml:"filter_key"`
	Filters    []filterDoc  `yaml:"filters"`
	SearchKeys []string     `yaml:"search_keys"`
	Sections   []sectionDoc `yaml:"sections"`
}

// Load parses and validates the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Parse parses and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		byName: make(map[string]int, len(doc.Collections)),
		bySlug: make(map[string]int, len(doc.Pages)),
	}

	for _, cd := range doc.Collections {
		coll, err := cd.toModel()
		if err != nil {
			return nil, err
		}
		if _, dup := c.byName[coll.Name]; dup {
			return nil, fmt.Errorf("collection %q: defined twice", coll.Name)
		}
		c.byName[coll.Name] = len(c.collections)
		c.collections = append(c.collections, coll)
	}

	for _, pd := range doc.Pages {
		page, err := c.pageFromDoc(pd)
		if err != nil {
			return nil, err
		}
		if _, dup := c.bySlug[page.Slug]; dup {
			return nil, fmt.Errorf("page %q: defined twice", page.Slug)
		}
		c.bySlug[page.Slug] = len(c.pages)
		c.pages = append(c.pages, page)
	}

	return c, nil
}

func (o orderDoc) toModel() model.Order {
	return model.Order{
		Key:       o.Key,
		Direction: model.Direction(o.Direction),
		NullsLast: o.NullsLast,
	}.Normalize()
}

func (cd collectionDoc) toModel() (model.Collection, error) {
	if !namePattern.MatchString(cd.Name) {
		return model.Collection{}, fmt.Errorf("collection %q: invalid name", cd.Name)
	}
	if cd.Bucket != "" && !namePattern.MatchString(cd.Bucket) {
		return model.Collection{}, fmt.Errorf("collection %q: invalid bucket %q", cd.Name, cd.Bucket)
	}
	if len(cd.Fields) == 0 {
		return model.Collection{}, fmt.Errorf("collection %q: no fields", cd.Name)
	}

	coll := model.Collection{
		Name:     cd.Name,
		Label:    cd.Label,
		Singular: cd.Singular,
		Public:   cd.Public,
		Bucket:   cd.Bucket,
		Order:    cd.Order.toModel(),
	}
	if coll.Label == "" {
		coll.Label = cd.Name
	}
	if coll.Singular == "" {
		coll.Singular = coll.Label
	}

	seen := make(map[string]bool, len(cd.Fields))
	for _, fd := range cd.Fields {
		field, err := fd.toModel()
		if err != nil {
			return model.Collection{}, fmt.Errorf("collection %q: %w", cd.Name, err)
		}
		if seen[field.Name] {
			return model.Collection{}, fmt.Errorf("collection %q: field %q defined twice", cd.Name, field.Name)
		}
		if field.Kind == model.FieldImage && coll.Bucket == "" {
			return model.Collection{}, fmt.Errorf("collection %q: image field %q needs a bucket", cd.Name, field.Name)
		}
		seen[field.Name] = true
		coll.Fields = append(coll.Fields, field)
	}

	for _, col := range cd.Columns {
		format := model.ColumnFormat(col.Format)
		if format == "" {
			format = model.FormatPlain
		}
		if !format.Valid() {
			return model.Collection{}, fmt.Errorf("collection %q: column %q: unknown format %q", cd.Name, col.Key, col.Format)
		}
		coll.Columns = append(coll.Columns, model.Column{Key: col.Key, Label: col.Label, Format: format})
	}

	return coll, nil
}

func (fd fieldDoc) toModel() (model.Field, error) {
	if !namePattern.MatchString(fd.Name) {
		return model.Field{}, fmt.Errorf("field %q: invalid name", fd.Name)
	}

	kind := model.FieldKind(fd.Kind)
	if !kind.Valid() {
		return model.Field{}, fmt.Errorf("field %q: unknown kind %q", fd.Name, fd.Kind)
	}
	if fd.Pattern != "" {
		if _, err := regexp.Compile(fd.Pattern); err != nil {
			return model.Field{}, fmt.Errorf("field %q: pattern: %w", fd.Name, err)
		}
	}
	if fd.Min != nil && fd.Max != nil && *fd.Min > *fd.Max {
		return model.Field{}, fmt.Errorf("field %q: min exceeds max", fd.Name)
	}

	label := fd.Label
	if label == "" {
		label = fd.Name
	}

	return model.Field{
		Name:        fd.Name,
		Label:       label,
		Kind:        kind,
		Required:    fd.Required,
		MinLength:   fd.MinLength,
		MaxLength:   fd.MaxLength,
		Min:         fd.Min,
		Max:         fd.Max,
		Pattern:     fd.Pattern,
		Accept:      fd.Accept,
		Placeholder: fd.Placeholder,
	}, nil
}

func (c *Catalog) pageFromDoc(pd pageDoc) (model.Page, error) {
	if pd.Slug == "" {
		return model.Page{}, errors.New("page without slug")
	}
	if len(pd.Sections) == 0 {
		return model.Page{}, fmt.Errorf("page %q: no sections", pd.Slug)
	}

	page := model.Page{
		Slug:       pd.Slug,
		Title:      pd.Title,
		Subtitle:   pd.Subtitle,
		FilterKey:  pd.FilterKey,
		SearchKeys: pd.SearchKeys,
	}

	if len(pd.Filters) > 0 && pd.FilterKey == "" {
		return model.Page{}, fmt.Errorf("page %q: filters without filter_key", pd.Slug)
	}
	for _, fd := range pd.Filters {
		if fd.Value == "" {
			return model.Page{}, fmt.Errorf("page %q: filter without value", pd.Slug)
		}
		label := fd.Label
		if label == "" {
			label = fd.Value
		}
		page.Filters = append(page.Filters, model.FilterOption{Value: fd.Value, Label: label})
	}

	for _, sd := range pd.Sections {
		coll, ok := c.Collection(sd.Collection)
		if !ok {
			return model.Page{}, fmt.Errorf("page %q: unknown collection %q", pd.Slug, sd.Collection)
		}
		if !coll.Public {
			return model.Page{}, fmt.Errorf("page %q: collection %q is not public", pd.Slug, sd.Collection)
		}
		if sd.Card.Title == "" {
			return model.Page{}, fmt.Errorf("page %q: section %q has no card title", pd.Slug, sd.Collection)
		}

		order := coll.Order
		if sd.Order != nil {
			order = sd.Order.toModel()
		}

		page.Sections = append(page.Sections, model.Section{
			Collection: sd.Collection,
			Heading:    sd.Heading,
			Order:      order,
			Card: model.Card{
				Title: sd.Card.Title,
				Meta:  sd.Card.Meta,
				Body:  sd.Card.Body,
				Years: sd.Card.Years,
				Link:  sd.Card.Link,
				Image: sd.Card.Image,
			},
		})
	}

	return page, nil
}

// Collection returns the collection with the given name.
func (c *Catalog) Collection(name string) (model.Collection, bool) {
	i, ok := c.byName[name]
	if !ok {
		return model.Collection{}, false
	}
	return c.collections[i], true
}

// Collections returns all collections in catalog order.
func (c *Catalog) Collections() []model.Collection {
	return c.collections
}

// Names returns the collection names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.collections))
	for _, coll := range c.collections {
		names = append(names, coll.Name)
	}
	sort.Strings(names)
	return names
}

// Page returns the public page with the given slug.
func (c *Catalog) Page(slug string) (model.Page, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return model.Page{}, false
	}
	return c.pages[i], true
}

// Pages returns all public pages in catalog order.
func (c *Catalog) Pages() []model.Page {
	return c.pages
}
