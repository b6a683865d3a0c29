package crawler

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractTitle finds the page's <title> text using a real HTML tokenizer,
// for the enrichment report's Title field (SPEC_FULL.md DS-3). This is
// deliberately separate from ExtractLinks: the link extractor must
// reproduce spec.md §4.6's exact windowed-regex algorithm byte for byte,
// but nothing in the spec constrains how a page title is obtained, so this
// supplementary field uses a normalizing parser instead of hand-rolled
// scanning.
func ExtractTitle(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "title" {
				inTitle = false
			}
		}
	}
}
