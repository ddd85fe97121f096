package util

import (
	"testing"
	"time"
)

func TestExtensionOrDefault(t *testing.T) {
	cases := []struct {
		path, fallback, want string
	}{
		{"photo.PNG", ".img", ".png"},
		{"clip.jpeg", ".img", ".jpeg"},
		{"noext", ".img", ".img"},
		{"trailing.", ".img", ".img"},
		{"archive.tar.gz", ".img", ".gz"},
	}

	for _, c := range cases {
		if got := ExtensionOrDefault(c.path, c.fallback); got != c.want {
			t.Errorf("ExtensionOrDefault(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{90 * time.Second, "00:01:30.000"},
		{3661500 * time.Millisecond, "01:01:01.500"},
		{0, "00:00:00.000"},
	}

	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
