package views

// Site holds site-wide settings passed to every page so nothing is hardcoded.
type Site struct {
	Name        string // SITE_NAME
	URL         string // SITE_URL
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string // optional structured data block
}

// FormState is the state of a submitted (or fresh) form: what the visitor typed,
// per-field validation messages, and the outcome banner.
type FormState struct {
	Values  map[string]string
	Errors  map[string]string
	Sent    bool
	Failure string
}

// Value returns the submitted value for field.
func (f FormState) Value(field string) string {
	return f.Values[field]
}

// Error returns the validation message for field, if any.
func (f FormState) Error(field string) string {
	return f.Errors[field]
}
