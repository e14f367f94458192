package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SyntheticIDPrefix marks ids that were generated for bundled fallback records.
// Such ids exist only for list keys and never reach a row store.
const SyntheticIDPrefix = "fallback:"

// Values is the flat key-value payload of a record, as edited by a form.
type Values map[string]any

// Clone returns a shallow copy of v. File pointers are shared.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Text returns the value under key rendered as text. Missing and nil values
// yield "". Whole floats are printed without a fractional part.
func (v Values) Text(key string) string {
	return ValueText(v[key])
}

// ValueText renders a scalar record value as text.
func ValueText(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case *File:
		if t == nil {
			return ""
		}
		return t.Name
	default:
		return fmt.Sprint(t)
	}
}

// Record is one row of a managed content collection.
type Record struct {
	ID         string
	Collection string
	Values     Values
	CreatedAt  time.Time

	// Synthetic is set on records built from bundled fallback data.
	Synthetic bool
}

// Text is a shorthand for r.Values.Text(key).
func (r Record) Text(key string) string {
	return r.Values.Text(key)
}

// SyntheticID returns the deterministic list key for the index-th bundled
// record of a collection.
func SyntheticID(collection string, index int) string {
	return SyntheticIDPrefix + collection + ":" + strconv.Itoa(index)
}

// IsSyntheticID reports whether id was produced by SyntheticID.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

// ParseYears splits a free-text years field on newlines and commas, trimming
// whitespace and dropping empty entries.
func ParseYears(text string) []string {
	if text == "" {
		return nil
	}

	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == ','
	})

	years := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			years = append(years, p)
		}
	}
	return years
}
