package application

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ericfisherdev/folio/internal/domain/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateField checks value against the rules of field and returns the first
// failing rule's message, or "" when the value is acceptable. initial is the
// value the field held in the snapshot the form was opened with; it only
// matters for image fields, where an existing URL satisfies required.
//
// Rules run in a fixed order: required, email shape, min length, max length,
// numeric min, numeric max, pattern.
func ValidateField(field model.Field, value, initial any) string {
	if field.Kind == model.FieldImage {
		return validateImage(field, value, initial)
	}

	if field.Required && isEmpty(value) {
		return field.Label + " is required"
	}

	text, isText := value.(string)
	present := !isEmpty(value)

	if field.Kind == model.FieldEmail && present && isText && !emailPattern.MatchString(text) {
		return "Please enter a valid email address"
	}

	if field.MinLength != nil && isText && text != "" && utf8.RuneCountInString(text) < *field.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", field.Label, *field.MinLength)
	}

	if field.MaxLength != nil && isText && text != "" && utf8.RuneCountInString(text) > *field.MaxLength {
		return fmt.Sprintf("%s must not exceed %d characters", field.Label, *field.MaxLength)
	}

	if num, ok := numericValue(value); ok && present {
		if field.Min != nil && num < *field.Min {
			return fmt.Sprintf("%s must be at least %s", field.Label, formatNumber(*field.Min))
		}
		if field.Max != nil && num > *field.Max {
			return fmt.Sprintf("%s must not exceed %s", field.Label, formatNumber(*field.Max))
		}
	}

	if field.Pattern != "" && present {
		re, err := regexp.Compile(field.Pattern)
		if err != nil || !re.MatchString(model.ValueText(value)) {
			return field.Label + " format is invalid"
		}
	}

	return ""
}

func validateImage(field model.Field, value, initial any) string {
	if !field.Required {
		return ""
	}

	if file, ok := value.(*model.File); ok && file != nil {
		return ""
	}
	if url, ok := value.(string); ok && url != "" {
		return ""
	}
	if url, ok := initial.(string); ok && url != "" {
		return ""
	}

	return field.Label + " is required"
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case *model.File:
		return v == nil
	}
	return false
}

// numericValue parses value the way a loose number input would: numbers pass
// through and strings are parsed after trimming. Anything else is not numeric.
func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
