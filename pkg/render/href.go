package render

import (
	"net/url"
	"regexp"
	"strings"
)

var colorPattern = regexp.MustCompile(`^#?[A-Za-z0-9]+$`)

// SafeColor reports whether color is a bare color name or hex value that can
// be placed inside markup without escaping.
func SafeColor(color string) (string, bool) {
	trimmed := strings.TrimSpace(color)
	if !colorPattern.MatchString(trimmed) {
		return "", false
	}
	return trimmed, true
}

// SafeHref reports whether href may be emitted as a link target: absolute
// http, https and mailto URLs only.
func SafeHref(href string) (string, bool) {
	trimmed := strings.TrimSpace(href)
	if trimmed == "" {
		return "", false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "", false
		}
		return trimmed, true
	case "mailto":
		return trimmed, true
	default:
		return "", false
	}
}
