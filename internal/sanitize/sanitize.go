// Package sanitize cleans text pulled from corpora and remote content
// services before it reaches the backend.
package sanitize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// script and style blocks are dropped together with their contents
var blockRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)

var (
	tagRe   = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe = regexp.MustCompile(`[\r\n\t ]+`)
	slugRe  = regexp.MustCompile(`[^a-z0-9_\-]`)
	digitRe = regexp.MustCompile(`^\s*[+-]?(\d+)`)
)

// StripTags removes markup and trims surrounding whitespace.
// Line breaks inside the text are kept.
func StripTags(s string) string {
	s = blockRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Line removes markup and collapses every run of whitespace, including
// line breaks, into a single space.
func Line(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(StripTags(s), " "))
}

// Title upper-cases the first letter of every word and leaves the rest alone.
func Title(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

// Slug lower-cases s and drops everything outside [a-z0-9_-].
func Slug(s string) string {
	return slugRe.ReplaceAllString(strings.ToLower(s), "")
}

// Int coerces the leading integer of s to its absolute value.
// Anything without a leading integer yields 0.
func Int(s string) int {
	m := digitRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
