// Package urlutil implements the URL model: parsing, normalization, and
// domain classification for the crawler.
package urlutil

import "strings"

// Record is the canonical 4-tuple representation of a crawlable URL:
// scheme, lowercase host, literal port (":nnn" or empty), and a path that
// begins with "/" or is empty, with any trailing "/" removed.
type Record struct {
	Scheme string
	Host   string
	Port   string
	Path   string
}

// String renders the canonical form scheme://host:port/path. Two Records
// are equal iff their canonical strings are equal.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Scheme)
	b.WriteString("://")
	b.WriteString(r.Host)
	b.WriteString(r.Port)
	b.WriteString(r.Path)
	return b.String()
}

// IsZero reports whether r is the empty Record, the conventional "discard
// this href" sentinel returned by ParseHref.
func (r Record) IsZero() bool {
	return r == Record{}
}

// trimTrailingSlash removes a single trailing "/" from path, per the
// canonical-string invariant. A lone "/" becomes "".
func trimTrailingSlash(path string) string {
	if path == "/" {
		return ""
	}
	return strings.TrimSuffix(path, "/")
}

// Registrable derives the registrable domain D from a hostname: the last
// two dot-separated labels, or the whole hostname if it has fewer than two
// dots.
func Registrable(host string) string {
	host = strings.ToLower(host)
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	return labels[len(labels)-2] + "." + labels[len(labels)-1]
}

// InDomain reports whether host is in-domain for the registrable domain D.
// This is deliberately permissive substring containment, not suffix
// matching: it admits e.g. "example.com.evil.org" as in-domain for
// D="example.com". See spec.md §9 "Open questions".
func InDomain(host, d string) bool {
	return strings.Contains(strings.ToLower(host), strings.ToLower(d))
}
