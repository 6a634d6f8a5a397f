package handlers

import (
	"errors"
	"strings"
	"testing"
)

func TestParseImageSource_Local(t *testing.T) {
	cases := map[string]string{
		"/img/a.png":         "/img/a.png",
		"/img/../a.png":      "/a.png",
		"/../../etc/passwd":  "/etc/passwd",
		"/img/a.png?w=640":   "/img/a.png",
		"/img//a.png#anchor": "/img/a.png",
	}
	for raw, want := range cases {
		src, err := parseImageSource(raw)
		if err != nil {
			t.Errorf("parseImageSource(%q) error: %v", raw, err)
			continue
		}
		if src.local != want || src.remote != nil {
			t.Errorf("parseImageSource(%q) = %+v, want local %q", raw, src, want)
		}
	}
}

func TestParseImageSource_Rejects(t *testing.T) {
	cases := []struct {
		raw  string
		want error
	}{
		{"", errMissingURL},
		{"/" + strings.Repeat("a", maxImageURLLen), errURLTooLong},
		{"http://conseil-orientation.com/a.png", errUnsupported},
		{"https://conseil-orientation.com:444/a.png", errUnsupported},
		{"https://u:p@conseil-orientation.com/a.png", errUnsupported},
		{"img/a.png", errUnsupported},
		{"/img\\a.png", errUnsupported},
	}
	for _, tc := range cases {
		if _, err := parseImageSource(tc.raw); !errors.Is(err, tc.want) {
			t.Errorf("parseImageSource(%q) error = %v, want %v", tc.raw, err, tc.want)
		}
	}
}

func TestSanitizeLogInput(t *testing.T) {
	if got := sanitizeLogInput("hello\nworld\r"); got != "helloworld" {
		t.Errorf("expected %q, got %q", "helloworld", got)
	}
}
