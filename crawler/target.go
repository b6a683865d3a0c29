package crawler

import "github.com/rickabrac/rickbot/urlutil"

// Target is a frontier entry: a URL plus a hint that its host's robots.txt
// has not yet been fetched (spec.md §3 "Frontier target").
type Target struct {
	URL         urlutil.Record
	NeedsRobots bool
}
