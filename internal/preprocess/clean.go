// Package preprocess normalizes raw post text before embedding. The rules
// are total and deterministic: the same input always yields the same output.
package preprocess

import (
	"regexp"
	"strings"
)

var (
	urlPattern          = regexp.MustCompile(`http\S+|www\.\S+`)
	markdownLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	charsetPattern      = regexp.MustCompile(`[^a-z0-9\s.,;!?'"-]`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// Clean lowercases the text, strips URLs, unwraps markdown links to their
// label, drops characters outside a basic charset, and collapses runs of
// whitespace.
func Clean(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = markdownLinkPattern.ReplaceAllString(text, "$1")
	text = charsetPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
