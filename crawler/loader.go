package crawler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rickabrac/rickbot/output"
	"github.com/rickabrac/rickbot/urlutil"
)

// LoadOutcome is the result of attempting to fetch and parse one URL
// (spec.md §4.4's state machine terminal states).
type LoadOutcome struct {
	StatusCode int
	Links      []urlutil.Record
	Title      string // page <title>, for the supplemented report (DS-3); not part of the crawl algorithm itself
	Success    bool   // a 200 text/* page was fetched, parsed, and scanned for links
	Skipped    bool   // dropped silently: bad scheme, ignored extension, non-text, non-HTML doctype, foreign redirect
	ErrMessage string // set for network exceptions and failed redirect retries, for the per-page report
}

// Loader fetches one URL, follows at most one explicit redirect hop, and
// extracts outgoing links (spec.md §4.4). Robots allow/delay decisions are
// made by the caller before Load is invoked; Load assumes the fetch is
// already cleared to proceed.
type Loader struct {
	client *http.Client
	sink   output.Sink
	domain string // registrable domain D, for the post-redirect in-domain check
}

// NewLoader creates a Loader. client must not follow redirects transparently
// (see RobotsManager's constructor doc for why).
func NewLoader(client *http.Client, sink output.Sink, domain string) *Loader {
	return &Loader{client: client, sink: sink, domain: domain}
}

// Load fetches rec per spec.md §4.4's state machine. A non-nil error is
// always ErrSwitchingProtocols, fatal to the whole run.
func (l *Loader) Load(ctx context.Context, rec urlutil.Record) (LoadOutcome, error) {
	if rec.Scheme != "http" && rec.Scheme != "https" {
		return LoadOutcome{Skipped: true}, nil
	}
	if urlutil.IsIgnoredExtension(rec.Path) {
		return LoadOutcome{Skipped: true}, nil
	}

	resp, body, err := l.fetch(ctx, rec.String())
	if err != nil {
		if err == ErrSwitchingProtocols {
			l.sink.Printf("  ERROR 101 Switching Protocols not supported. [%s]\n", rec.String())
			return LoadOutcome{}, err
		}
		l.sink.Printf("  ERROR %s [%s]\n", err.Error(), rec.String())
		return LoadOutcome{ErrMessage: err.Error()}, nil
	}

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		return l.followRedirect(ctx, resp, rec)
	}

	if resp.StatusCode != http.StatusOK {
		l.sink.Printf("  ERROR %d [%s]\n", resp.StatusCode, rec.String())
		return LoadOutcome{StatusCode: resp.StatusCode}, nil
	}

	if !isTextContentType(resp.Header.Get("Content-Type")) {
		return LoadOutcome{Skipped: true, StatusCode: resp.StatusCode}, nil
	}

	return l.parse(body, rec, resp.StatusCode)
}

// followRedirect implements the single explicit 301/302 hop: resolve
// Location against rec, drop it if the target left the registrable domain,
// otherwise retry the GET once.
func (l *Loader) followRedirect(ctx context.Context, resp *http.Response, rec urlutil.Record) (LoadOutcome, error) {
	loc := resp.Header.Get("Location")
	target, ok := urlutil.ParseHref(loc, rec)
	if !ok || !urlutil.InDomain(target.Host, l.domain) {
		return LoadOutcome{Skipped: true}, nil
	}

	resp2, body2, err := l.fetch(ctx, target.String())
	if err != nil {
		if err == ErrSwitchingProtocols {
			return LoadOutcome{}, err
		}
		l.sink.Printf("  REDIRECT FAILED TO %s\n", target.String())
		return LoadOutcome{ErrMessage: "redirect failed"}, nil
	}
	if resp2.StatusCode != http.StatusOK || !isTextContentType(resp2.Header.Get("Content-Type")) {
		l.sink.Printf("  REDIRECT FAILED TO %s\n", target.String())
		return LoadOutcome{StatusCode: resp2.StatusCode, ErrMessage: "redirect failed"}, nil
	}

	return l.parse(body2, target, resp2.StatusCode)
}

func (l *Loader) parse(body []byte, base urlutil.Record, status int) (LoadOutcome, error) {
	text := string(body)
	if isNonHTMLDoctype(text) {
		return LoadOutcome{Skipped: true, StatusCode: status}, nil
	}
	return LoadOutcome{
		StatusCode: status,
		Links:      ExtractLinks(text, base),
		Title:      ExtractTitle(text),
		Success:    true,
	}, nil
}

// fetch issues a single GET with the headers spec.md §4.4 mandates,
// surfacing HTTP 101 as ErrSwitchingProtocols and leaving 3xx responses
// unfollowed so the caller can implement the single explicit redirect hop.
func (l *Loader) fetch(ctx context.Context, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSwitchingProtocols {
		return nil, nil, ErrSwitchingProtocols
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	return resp, data, nil
}

func isTextContentType(ct string) bool {
	return strings.HasPrefix(strings.TrimSpace(strings.ToLower(ct)), "text")
}

// isNonHTMLDoctype reports whether body opens with a DOCTYPE declaration
// whose root element is not "html" (spec.md §4.4 Parse state).
func isNonHTMLDoctype(body string) bool {
	trimmed := strings.TrimLeft(body, " \t\r\n")
	lower := strings.ToLower(trimmed)
	const prefix = "<!doctype "
	if !strings.HasPrefix(lower, prefix) {
		return false
	}
	rest := strings.TrimLeft(lower[len(prefix):], " ")
	return !strings.HasPrefix(rest, "html")
}
