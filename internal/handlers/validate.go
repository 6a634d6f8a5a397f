package handlers

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

const maxImageURLLen = 2048

var (
	errMissingURL   = errors.New("url is required")
	errURLTooLong   = errors.New("url is too long")
	errUnsupported  = errors.New("url must be a site path or an https URL")
	errHostNotAllow = errors.New("url host is not allowed")
)

// imageSource is a parsed _image url parameter: either a site-local path
// (already cleaned) or a remote URL still to be checked against the policy.
type imageSource struct {
	local  string
	remote *url.URL
}

func parseImageSource(raw string) (imageSource, error) {
	if raw == "" {
		return imageSource{}, errMissingURL
	}
	if len(raw) > maxImageURLLen {
		return imageSource{}, errURLTooLong
	}
	if strings.ContainsAny(raw, "\x00\r\n\\") {
		return imageSource{}, errUnsupported
	}

	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		local := raw
		if i := strings.IndexAny(local, "?#"); i >= 0 {
			local = local[:i]
		}
		return imageSource{local: path.Clean(local)}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" || u.User != nil || u.Port() != "" {
		return imageSource{}, errUnsupported
	}
	return imageSource{remote: u}, nil
}

func sanitizeLogInput(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
