// Package storage provides the blob stores backing the catalog documents and
// uploaded media, and the versioned JSON document store built on top of them.
package storage

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidPathname is returned for keys that are empty, absolute or that
// try to escape the bucket root
var ErrInvalidPathname = errors.New("invalid blob pathname")

// CleanPathname normalizes a blob key: backslashes become slashes, duplicate
// slashes collapse and "." segments disappear. Absolute keys and keys with
// ".." segments are rejected.
func CleanPathname(pathname string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(pathname), "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPathname
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPathname
		}
	}
	trailing := strings.HasSuffix(p, "/")
	p = path.Clean(p)
	if p == "." || p == "" {
		return "", ErrInvalidPathname
	}
	if trailing {
		p += "/"
	}
	return p, nil
}

// objectURL joins base and an escaped key
func objectURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}

// trimETag strips the quotes S3-compatible servers put around ETags
func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// quoteETag restores the quoted form expected by If-Match
func quoteETag(etag string) string {
	if etag == "" || etag == "*" || strings.HasPrefix(etag, `"`) {
		return etag
	}
	return `"` + etag + `"`
}
