package urlutil

import "strings"

// discardPrefixes are href prefixes that are never followed: anchors,
// non-HTTP link schemes, and the template/JSON-ish prefixes '{' and '+'
// that sometimes leak into HTML from broken templating.
var discardPrefixes = []string{"#", "mailto:", "tel:", "file:", "javascript:", "{", "+"}

// ParseHref parses a raw href attribute value against a base Record and
// returns the resolved, normalized Record. The second return value is false
// when the href must be discarded (empty, a non-HTTP scheme, a fragment, or
// a malformed relative reference).
func ParseHref(raw string, base Record) (Record, bool) {
	if raw == "" {
		return Record{}, false
	}

	// Replace the literal HTML entity for '/' and the backslash-escaped
	// scheme separator some hand-written HTML emits.
	s := strings.ReplaceAll(raw, "&#x2F;", "/")
	s = strings.ReplaceAll(s, `:\/\/`, "://")

	lower := strings.ToLower(s)
	for _, prefix := range discardPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return Record{}, false
		}
	}

	if strings.HasPrefix(lower, "http") && strings.Contains(s, "://") {
		return parseAbsolute(s)
	}

	if strings.HasPrefix(s, "/") {
		return Record{
			Scheme: base.Scheme,
			Host:   base.Host,
			Port:   base.Port,
			Path:   trimTrailingSlash(stripQuery(s)),
		}, true
	}

	// Relative references that aren't rooted at "/" are discarded: the
	// loader and extractor only ever resolve against a known base path,
	// and spec.md §4.5 step 6 only defines the rooted-path case.
	return Record{}, false
}

// parseAbsolute splits an absolute href of the form scheme://host[:port]/path
// (or scheme://host[:port]?query) into a Record.
func parseAbsolute(s string) (Record, bool) {
	idx := strings.Index(s, "://")
	if idx < 0 {
		return Record{}, false
	}
	scheme := strings.ToLower(s[:idx])
	rest := s[idx+3:]
	if rest == "" {
		return Record{}, false
	}

	slashIdx := strings.IndexByte(rest, '/')
	qIdx := strings.IndexByte(rest, '?')

	var hostport, path string
	switch {
	case slashIdx >= 0:
		hostport = rest[:slashIdx]
		path = rest[slashIdx:]
	case qIdx >= 0:
		hostport = rest[:qIdx]
		path = ""
	default:
		hostport = rest
		path = ""
	}

	host, port := splitHostPort(hostport)
	host = strings.TrimRight(host, `\`)
	if host == "" {
		return Record{}, false
	}

	return Record{
		Scheme: scheme,
		Host:   strings.ToLower(host),
		Port:   port,
		Path:   trimTrailingSlash(stripQuery(path)),
	}, true
}

// splitHostPort splits "host:port" into host and the literal ":port"
// suffix. If there's no trailing numeric port, port is "".
func splitHostPort(hostport string) (host, port string) {
	idx := strings.LastIndexByte(hostport, ':')
	if idx < 0 {
		return hostport, ""
	}
	candidate := hostport[idx+1:]
	if candidate != "" && isAllDigits(candidate) {
		return hostport[:idx], hostport[idx:]
	}
	return hostport, ""
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func stripQuery(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		return path[:idx]
	}
	return path
}
