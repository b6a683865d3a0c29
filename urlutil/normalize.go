package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ParseSeed parses the crawler's single command-line argument into a
// Record. Unlike ParseHref, which implements spec.md §4.5's literal
// href-scanning rules, the seed URL is expected to be a well-formed
// absolute URL, so it is parsed with net/url and then reduced to the
// 4-tuple canonical form.
func ParseSeed(rawURL string) (Record, error) {
	if rawURL == "" {
		return Record{}, errors.New("cannot parse empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Record{}, fmt.Errorf("parse seed URL %q: %w", rawURL, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return Record{}, fmt.Errorf("seed URL %q must use http or https", rawURL)
	}
	if parsed.Hostname() == "" {
		return Record{}, fmt.Errorf("seed URL %q has no host", rawURL)
	}

	port := ""
	if p := parsed.Port(); p != "" {
		port = ":" + p
	}

	return Record{
		Scheme: scheme,
		Host:   strings.ToLower(parsed.Hostname()),
		Port:   port,
		Path:   trimTrailingSlash(parsed.EscapedPath()),
	}, nil
}
