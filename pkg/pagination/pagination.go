// Package pagination provides the page math and link helpers behind
// forum, topic and reply listings.
package pagination

import (
	"fmt"
	"strings"
)

// DefaultPerPage matches the classic board default of fifteen items
// per listing page.
const DefaultPerPage = 15

// Params is a normalized page request.
type Params struct {
	Page    int // 1-based
	PerPage int
}

// Normalize clamps params to sane values: page >= 1, per-page between
// 1 and maxPerPage (falling back to DefaultPerPage when unset).
func Normalize(page, perPage, maxPerPage int) Params {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Params{Page: page, PerPage: perPage}
}

// TotalPages returns the page count for total items.
func TotalPages(total int64, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// PageURL appends the page segment to base. Page 1 is the listing
// itself, so no segment is added for it.
func PageURL(base string, page int) string {
	base = strings.TrimSuffix(base, "/")
	if page <= 1 {
		return base + "/"
	}
	return fmt.Sprintf("%s/page/%d/", base, page)
}

// StripFirstPage removes redundant "/page/1/" segments from rendered
// link markup, mirroring the text substitution the host applies to
// its own pagination output.
func StripFirstPage(markup string) string {
	return strings.ReplaceAll(markup, "/page/1/", "/")
}
