package utils

import (
	"errors"
	"path"
	"strings"
)

// Path scope validation errors
var (
	ErrPathEmpty     = errors.New("path cannot be empty")
	ErrPathTraversal = errors.New("path cannot contain parent references")
)

// NormalizePath brings a bucket-relative path into canonical form: leading
// slash, no trailing slash, no duplicate separators. The root folder
// normalizes to "/".
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}

	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return p
}

// ValidatePathScope checks that a share path scope is usable before it gets
// baked into a token. Tokens travel between devices, so a scope with parent
// references could escape the bucket it claims to cover.
func ValidatePathScope(p string) error {
	if strings.TrimSpace(p) == "" {
		return ErrPathEmpty
	}
	for _, segment := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if segment == ".." {
			return ErrPathTraversal
		}
	}
	return nil
}

// PathsOverlap reports whether one normalized path covers the other in either
// direction: a share of a parent folder covers a child file, and a share of a
// child shows up when browsing its parent. Matching is segment-aware, so
// "/ab" never covers "/a".
func PathsOverlap(a, b string) bool {
	a = NormalizePath(a)
	b = NormalizePath(b)

	if a == b {
		return true
	}
	if a == "/" || b == "/" {
		return true
	}
	return strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")
}
