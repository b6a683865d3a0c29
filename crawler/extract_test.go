package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rickabrac/rickbot/urlutil"
)

func testBase() urlutil.Record {
	return urlutil.Record{Scheme: "https", Host: "example.com"}
}

func TestExtractLinksBasic(t *testing.T) {
	body := `<html><body><a href="/about">About</a><a href="mailto:x@y">Mail</a></body></html>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "https://example.com/about", links[0].String())
	}
}

func TestExtractLinksUppercaseTag(t *testing.T) {
	body := `<A HREF="/up">Up</A>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "https://example.com/up", links[0].String())
	}
}

func TestExtractLinksWithOtherAttributesBeforeHref(t *testing.T) {
	body := `<a class="nav" id="x" href="/ok">link</a>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "https://example.com/ok", links[0].String())
	}
}

func TestExtractLinksEscapedQuote(t *testing.T) {
	body := `<a href=\"/escaped\">link</a>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "https://example.com/escaped", links[0].String())
	}
}

func TestExtractLinksAbsoluteForeignLeftToCaller(t *testing.T) {
	// ExtractLinks has no notion of the registrable domain: a foreign link is
	// returned, and the Worker drops it when it classifies the page's links.
	body := `<a href="https://evil.example.org/">evil</a>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "evil.example.org", links[0].Host)
		assert.False(t, urlutil.InDomain(links[0].Host, urlutil.Registrable(testBase().Host)))
	}
}

func TestExtractLinksDedupPerPage(t *testing.T) {
	body := `<a href="/dup">one</a><a href="/dup">two</a>`
	links := ExtractLinks(body, testBase())
	assert.Len(t, links, 1)
}

func TestExtractLinksSkipsOversizedTag(t *testing.T) {
	huge := "<div " + strings.Repeat("x", MaxTagWindow+10) + ">"
	body := huge + `<a href="/after">after</a>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "https://example.com/after", links[0].String())
	}
}

func TestExtractLinksNonAnchorTagIgnored(t *testing.T) {
	body := `<link href="/style.css"><a href="/page">page</a>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "https://example.com/page", links[0].String())
	}
}

func TestExtractLinksRootedPathPreservesScheme(t *testing.T) {
	body := `<a href="/sub/page?x=1">page</a>`
	links := ExtractLinks(body, testBase())
	if assert.Len(t, links, 1) {
		assert.Equal(t, "https://example.com/sub/page", links[0].String())
	}
}
