package content

import (
	"strings"
	"unicode"

	"omerhsa-quotes/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// AllCategories is the category value that disables category filtering.
const AllCategories = "Todos"

// Query is the listing filter. The zero value matches everything.
type Query struct {
	Category string `json:"category" form:"category"`
	Search   string `json:"q" form:"q"`
}

// Clear resets the filter to every category and no search term.
func (q Query) Clear() Query {
	return Query{Category: AllCategories}
}

func (q Query) allCategories() bool {
	return q.Category == "" || q.Category == AllCategories
}

var folder = cases.Fold()

// Fold lowercases s and strips diacritics so "Médico" matches "medico".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return folder.String(stripped)
}

// Matches applies the category and search rules to one item.
func (q Query) Matches(item models.ContentItem) bool {
	if !q.allCategories() && item.Category != q.Category {
		return false
	}
	term := Fold(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	return strings.Contains(Fold(item.Title), term) || strings.Contains(Fold(item.Excerpt), term)
}

// Filter keeps the items matching q, preserving order.
func Filter(items []models.ContentItem, q Query) []models.ContentItem {
	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if q.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}

var printer = message.NewPrinter(language.Spanish)

// ResultLabel renders the result count the listing shows.
func ResultLabel(n int) string {
	if n == 1 {
		return "1 resultado"
	}
	return printer.Sprintf("%d resultados", n)
}
