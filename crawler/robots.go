package crawler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/rickabrac/rickbot/output"
)

// RobotsStatus is the per-host robots.txt acquisition state (spec.md §3).
type RobotsStatus int

const (
	RobotsMissing RobotsStatus = iota
	RobotsPresent
)

// RobotsState is the cached outcome of fetching and parsing one host's
// robots.txt. A nil *RobotsState (not yet cached) corresponds to spec.md's
// "absent" state.
type RobotsState struct {
	Status RobotsStatus
	Rules  *robotstxt.RobotsData
	Delay  int // seconds; meaningful only when Status == RobotsPresent
}

// RobotsManager lazily fetches, parses, and caches robots.txt per host, and
// answers allow/delay queries (spec.md §4.3).
type RobotsManager struct {
	client *http.Client
	sink   output.Sink

	mu    sync.Mutex
	cache map[string]*RobotsState
}

// NewRobotsManager creates a RobotsManager. client must not follow
// redirects transparently: callers need the raw Location header to
// implement the single explicit 301/302 hop spec.md §4.3 describes.
func NewRobotsManager(client *http.Client, sink output.Sink) *RobotsManager {
	return &RobotsManager{
		client: client,
		sink:   sink,
		cache:  make(map[string]*RobotsState),
	}
}

// Lookup returns the cached state for host, or nil if robots.txt has not
// yet been fetched ("absent").
func (r *RobotsManager) Lookup(host string) *RobotsState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[host]
}

// Count returns the number of hosts whose robots.txt has been resolved
// (fetched and cached as present or missing), for the final
// "<N> pages crawled." tally (spec.md §6).
func (r *RobotsManager) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// EnsureFetched performs the acquisition protocol for host (spec.md §4.3)
// unless its state is already cached, and returns the resulting state. The
// cache is checked before the fetch and written after it, with the lock
// released in between: concurrent first calls for the same host are not
// coordinated and each issues its own fetch. In the crawler only the
// Worker for a host calls this, one target at a time.
func (r *RobotsManager) EnsureFetched(ctx context.Context, scheme, host string) (*RobotsState, error) {
	r.mu.Lock()
	if st, ok := r.cache[host]; ok {
		r.mu.Unlock()
		return st, nil
	}
	r.mu.Unlock()

	robotsURL := scheme + "://" + host + "/robots.txt"
	status, body, location, err := r.fetchOnce(ctx, robotsURL)
	if err != nil {
		return nil, err
	}

	if status == http.StatusMovedPermanently || status == http.StatusFound {
		if location != "" {
			status, body, _, err = r.fetchOnce(ctx, location)
			if err != nil {
				return nil, err
			}
		}
	}

	var st RobotsState
	if status == http.StatusOK {
		rules, parseErr := robotstxt.FromBytes(body)
		if parseErr == nil {
			st = RobotsState{Status: RobotsPresent, Rules: rules, Delay: parseCrawlDelay(body)}
			r.sink.Printf("OK %s crawl-delay=%d\n", robotsURL, st.Delay)
		} else {
			st = RobotsState{Status: RobotsMissing}
			r.sink.Printf("NO %s\n", robotsURL)
		}
	} else {
		st = RobotsState{Status: RobotsMissing}
		r.sink.Printf("NO %s\n", robotsURL)
	}

	r.mu.Lock()
	r.cache[host] = &st
	r.mu.Unlock()

	return &st, nil
}

// fetchOnce issues a single GET with no transparent redirect following,
// returning the status code, body, and raw Location header (if any).
func (r *RobotsManager) fetchOnce(ctx context.Context, url string) (status int, body []byte, location string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, "", nil //nolint:nilerr // network/build errors resolve to "missing", not fatal
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text")

	resp, doErr := r.client.Do(req)
	if doErr != nil {
		return 0, nil, "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusSwitchingProtocols {
		return 0, nil, "", ErrSwitchingProtocols
	}

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return 0, nil, "", nil
	}

	return resp.StatusCode, data, resp.Header.Get("Location"), nil
}

// Allowed reports whether path is permitted for userAgent given the cached
// robots state for its host. A missing/absent robots state is fully
// permissive (spec.md §4.3 "Allowance").
func Allowed(st *RobotsState, path string) bool {
	if st == nil || st.Status != RobotsPresent || st.Rules == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	return st.Rules.TestAgent(path, userAgent)
}

// DelayFor returns the crawl delay (seconds) to honor for a host, given its
// cached robots state. Hosts with no crawl-delay directive, or with robots
// missing entirely, use a 1-second default.
func DelayFor(st *RobotsState) int {
	if st != nil && st.Status == RobotsPresent && st.Delay > 0 {
		return st.Delay
	}
	return 1
}

// parseCrawlDelay implements spec.md §4.3's literal scan: the first
// case-insensitive occurrence of "crawl-delay:" followed by optional
// spaces and a decimal integer terminated by whitespace or line end. This
// intentionally does not use robotstxt.RobotsData's own notion of
// crawl-delay (which is scoped per user-agent group and may not surface a
// bare integer), because spec.md's test fixtures and §8 properties pin
// down this exact scanning behavior independent of user-agent grouping.
func parseCrawlDelay(body []byte) int {
	const token = "crawl-delay:"
	lower := strings.ToLower(string(body))
	idx := strings.Index(lower, token)
	if idx < 0 {
		return 1
	}
	rest := lower[idx+len(token):]
	i := 0
	for i < len(rest) && rest[i] == ' ' {
		i++
	}
	start := i
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == start {
		return 1
	}
	if i < len(rest) && rest[i] != ' ' && rest[i] != '\t' && rest[i] != '\r' && rest[i] != '\n' {
		return 1
	}
	n, err := strconv.Atoi(rest[start:i])
	if err != nil {
		return 1
	}
	return n
}
