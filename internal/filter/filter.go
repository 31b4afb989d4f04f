package filter

import "strings"

// All is the criterion that selects every row
const All = ""

// Project returns the rows whose field equals criterion, ignoring case.
// An empty criterion returns rows unchanged. rows is never modified.
func Project[T any](rows []T, criterion string, field func(T) string) []T {
	if criterion == All {
		return rows
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if strings.EqualFold(field(r), criterion) {
			out = append(out, r)
		}
	}
	return out
}

// Option is one entry of a filter menu
type Option struct {
	// Value is the lowercased criterion, or All
	Value string
	// Label is the name shown for the option
	Label string
}

// Options builds a filter menu: All first, then each distinct value
// case-insensitively, in first-seen order, labelled with its first spelling
func Options(values []string, allLabel string) []Option {
	options := []Option{{Value: All, Label: allLabel}}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if key == All || seen[key] {
			continue
		}
		seen[key] = true
		options = append(options, Option{Value: key, Label: v})
	}
	return options
}

// Label returns the menu label for criterion, or allLabel when the criterion
// is empty or unknown
func Label(options []Option, criterion string) string {
	for _, o := range options {
		if o.Value == strings.ToLower(criterion) {
			return o.Label
		}
	}
	if len(options) > 0 {
		return options[0].Label
	}
	return criterion
}
