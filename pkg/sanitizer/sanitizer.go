// Package sanitizer cleans user-posted forum content.
//
// Stored topic and reply bodies pass through the safe policy before
// rendering; notification emails use PlainText to strip all markup
// from the quoted reply.
package sanitizer

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Basic formatting for forum posts; everything else is stripped,
		// including scripts, event handlers and javascript: URLs.
		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)
	})
}

// SanitizeHTML keeps safe formatting tags and drops everything else.
// Applied to post content at write time.
func SanitizeHTML(s string) string {
	initPolicies()
	return safePolicy.Sanitize(s)
}

// PlainText strips all HTML, returning text only.
func PlainText(s string) string {
	initPolicies()
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// Excerpt strips all HTML and truncates to at most n runes, appending
// an ellipsis when content was cut. Used for the quoted reply body in
// notification emails.
func Excerpt(s string, n int) string {
	text := PlainText(s)
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
