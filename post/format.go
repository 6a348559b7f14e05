package post

import (
	"strings"
	"unicode/utf8"
)

// ExcerptLength is the number of characters of content kept when an excerpt is derived.
const ExcerptLength = 150

// Slugify converts a title to a URL-safe slug: lowercase, every run of
// characters outside [a-z0-9] becomes a single hyphen, and hyphens are
// trimmed from both ends.
func Slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	pending := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	return b.String()
}

// Excerpt derives a summary from content: its first ExcerptLength characters followed by "...".
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content + "..."
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength]) + "..."
}

// CanonicalURL returns the public path for a post in category with slug.
func CanonicalURL(c Category, slug string) string {
	switch c {
	case CategoryTravel:
		return "/travel/" + slug
	case CategoryWork:
		return "/ai/" + slug
	default:
		return "/blog/" + slug
	}
}

// SectionPath returns the listing page for a category.
func SectionPath(c Category) string {
	switch c {
	case CategoryTravel:
		return "/travel/"
	case CategoryWork:
		return "/ai/"
	default:
		return "/blog/"
	}
}

// SplitTags parses a comma-separated tag field, dropping blanks.
func SplitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
