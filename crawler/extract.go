package crawler

import (
	"regexp"
	"strings"

	"github.com/rickabrac/rickbot/urlutil"
)

// MaxTagWindow bounds how far the extractor looks ahead from a '<' for a
// closing '>' before giving up on that position (spec.md §4.6, §8 property 7).
const MaxTagWindow = 666

// tagPattern matches a well-formed XML-ish tag starting at the beginning of
// the window. The '*?' makes the repetition lazy so the match ends at the
// first viable '>', reproducing spec.md §4.6's "shortest following prefix
// that matches" rather than Go regexp's default greedy behavior.
var tagPattern = regexp.MustCompile(`^<(?:"[^"]*"|'[^']*'|[^'">])*?>`)

// ExtractLinks scans body (already decoded to a string) for <a href=…> tags
// and returns the normalized Records for hrefs worth following, deduplicated
// within this page (spec.md §4.6 step 7's per-page portion; global
// visited-set and worker requested-set dedup happen in the caller, which
// alone holds that state).
func ExtractLinks(body string, base urlutil.Record) []urlutil.Record {
	var out []urlutil.Record
	seen := make(map[string]bool)

	for i := 0; i < len(body); {
		if body[i] != '<' {
			i++
			continue
		}

		end := i + MaxTagWindow
		if end > len(body) {
			end = len(body)
		}
		window := body[i:end]

		loc := tagPattern.FindStringIndex(window)
		if loc == nil {
			i++
			continue
		}

		tag := window[loc[0]:loc[1]]
		if rec, ok := extractAnchorHref(tag, base); ok {
			key := rec.String()
			if !seen[key] {
				seen[key] = true
				out = append(out, rec)
			}
		}

		i += loc[1]
	}

	return out
}

// extractAnchorHref implements spec.md §4.6 steps 1-6 against a single
// matched tag.
func extractAnchorHref(tag string, base urlutil.Record) (urlutil.Record, bool) {
	body := tag[1:] // past '<'
	i := 0
	for i < len(body) && body[i] == ' ' {
		i++
	}
	if i >= len(body) || (body[i] != 'a' && body[i] != 'A') {
		return urlutil.Record{}, false
	}

	lower := strings.ToLower(tag)
	hrefIdx := strings.Index(lower, " href")
	if hrefIdx < 0 {
		return urlutil.Record{}, false
	}
	pos := hrefIdx + len(" href")

	for pos < len(tag) && tag[pos] == ' ' {
		pos++
	}
	if pos >= len(tag) || tag[pos] != '=' {
		return urlutil.Record{}, false
	}
	pos++
	for pos < len(tag) && tag[pos] == ' ' {
		pos++
	}
	if pos >= len(tag) {
		return urlutil.Record{}, false
	}

	var quote byte
	escaped := false
	switch {
	case tag[pos] == '"' || tag[pos] == '\'':
		quote = tag[pos]
		pos++
	case tag[pos] == '\\' && pos+1 < len(tag) && (tag[pos+1] == '"' || tag[pos+1] == '\''):
		quote = tag[pos+1]
		escaped = true
		pos += 2
	default:
		return urlutil.Record{}, false
	}

	start := pos
	for pos < len(tag) {
		if tag[pos] == '\\' && pos+1 < len(tag) && tag[pos+1] == quote {
			if escaped {
				break
			}
			pos += 2
			continue
		}
		if tag[pos] == quote {
			break
		}
		pos++
	}
	if pos >= len(tag) {
		return urlutil.Record{}, false
	}

	return urlutil.ParseHref(tag[start:pos], base)
}
