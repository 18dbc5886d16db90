package view

import (
	"strings"

	"golang.org/x/text/cases"
)

// Searchable is a row that exposes the text of its visible fields.
type Searchable interface {
	Values() []string
}

// Filter keeps the rows where any visible field contains term, ignoring
// case. An empty term returns rows unchanged. Matching rows keep their
// relative order.
func Filter[R Searchable](rows []R, term string) []R {
	if term == "" {
		return rows
	}

	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]R, 0, len(rows))
	for _, r := range rows {
		for _, v := range r.Values() {
			if strings.Contains(fold.String(v), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
