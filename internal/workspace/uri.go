package workspace

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// URIToPath converts a file URI to a filesystem path. Non-file schemes are
// rejected: the cache only fronts the local disk.
func URIToPath(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}

	if parsed.Scheme != "" && parsed.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", parsed.Scheme)
	}

	path := parsed.Path
	if parsed.Scheme == "" {
		path = uri
	}

	if unescaped, unescapeErr := url.PathUnescape(path); unescapeErr == nil {
		path = unescaped
	}

	return filepath.FromSlash(path), nil
}

// PathToURI converts a filesystem path to a file URI.
func PathToURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}

	return u.String()
}
