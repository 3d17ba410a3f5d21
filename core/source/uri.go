package source

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// NormalizeURI gives every spelling of the same file one key: the scheme is
// lowercased, percent-escapes are decoded then re-encoded canonically, and a
// Windows drive letter is lowercased. Strings that don't parse as URIs are
// returned unchanged.
func NormalizeURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return uri
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "file" {
		p := u.Path
		if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
			p = "/" + strings.ToLower(p[1:2]) + p[2:]
		}
		u.Path = path.Clean(p)
		u.RawPath = ""
	}
	return u.String()
}

// FileURI builds a normalized file URI from a filesystem path.
func FileURI(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return NormalizeURI((&url.URL{Scheme: "file", Path: p}).String())
}

// URIToPath returns the filesystem path of a file URI.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

// SceneName returns the scene a URI refers to: its base name without the
// .txt extension.
func SceneName(uri string) string {
	base := path.Base(uri)
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}
	return strings.TrimSuffix(base, ".txt")
}

// SiblingURI returns the URI of the scene file named scene in the same
// directory as uri.
func SiblingURI(uri, scene string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return path.Join(path.Dir(uri), scene+".txt")
	}
	u.Path = path.Join(path.Dir(u.Path), scene+".txt")
	u.RawPath = ""
	return NormalizeURI(u.String())
}
