package folio

import (
	"errors"
	"testing"
	"time"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://example.com", nil, "https://example.com"},
		{"https://example.com", []string{"travel"}, "https://example.com/travel/"},
		{"https://example.com", []string{"/ai/build-log"}, "https://example.com/ai/build-log/"},
		{"https://example.com/site", []string{"blog", "post"}, "https://example.com/site/blog/post/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %q) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", now},
		{"  ", now},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-05-01T10:00:00+02:00", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
		{"2024-05-01T10:00:00.5Z", time.Date(2024, 5, 1, 10, 0, 0, 500000000, time.UTC)},
		{"1700000000000", time.UnixMilli(1700000000000).UTC()},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in, now)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"yesterday", "2024-13-01", "01/02/2024", "253402300800000", "-62167219200001"} {
		if _, err := ParseDate(bad, now); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestPostInputTagsAndDate(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{``, 0},
		{`null`, 0},
		{`"a,b"`, 0},
		{`["a", " ", "b"]`, 2},
		{`[1, 2]`, 0},
	}
	for _, tt := range tests {
		in := PostInput{Tags: []byte(tt.raw)}
		if got := in.tags(); got == nil || len(got) != tt.want {
			t.Errorf("tags(%s) = %#v, want %d tags", tt.raw, got, tt.want)
		}
	}

	if got := (PostInput{Date: []byte(`"2024-01-02"`)}).date(); got != "2024-01-02" {
		t.Errorf("date(string) = %q", got)
	}
	if got := (PostInput{Date: []byte(`1700000000000`)}).date(); got != "1700000000000" {
		t.Errorf("date(number) = %q", got)
	}
	if got := (PostInput{Date: []byte(`null`)}).date(); got != "" {
		t.Errorf("date(null) = %q", got)
	}
}
