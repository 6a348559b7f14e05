package folio

import (
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/kabuchi/folio/post"
)

// ErrInvalidDate is returned by ParseDate for values in no accepted format.
var ErrInvalidDate = errors.New("invalid date")

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// ParseDate accepts RFC 3339 timestamps, YYYY-MM-DD dates and Unix
// milliseconds. An empty value yields now. Years outside 0-9999 are
// rejected since they cannot round-trip through the stored format.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if y := t.Year(); y < 0 || y > 9999 {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}

// categoryNames lists the accepted categories for error responses.
func categoryNames() []string {
	names := make([]string, 0, len(post.Categories))
	for _, c := range post.Categories {
		names = append(names, string(c))
	}
	return names
}
