package epubnav

import (
	"net/url"
	"path"
	"strings"
)

// StripAnchor returns href without its fragment: the substring before the
// first '#', or href unchanged when it carries none. Every href comparison
// in this package goes through StripAnchor.
func StripAnchor(href string) string {
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		return href[:idx]
	}
	return href
}

// resolveRelativePath resolves href relative to the directory of basePath.
// The fragment, if any, is preserved. An empty string is returned when the
// result would escape the container root or href is absolute.
func resolveRelativePath(basePath, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "/") {
		return ""
	}

	target, fragment := href, ""
	if idx := strings.IndexByte(href, '#'); idx >= 0 {
		target, fragment = href[:idx], href[idx:]
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	if target == "" {
		// Fragment-only reference points into basePath itself.
		return basePath + fragment
	}

	cleaned := path.Clean(path.Join(path.Dir(basePath), target))
	if !isSafePath(cleaned) {
		return ""
	}
	return cleaned + fragment
}

// isSafePath checks whether p does not escape the archive root.
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
