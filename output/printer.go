package output

import (
	"fmt"
	"io"
)

// PrintSummary writes a human-readable error summary of the crawl to w,
// listing each failed page (an error message or a status of 400 or more)
// with its error or status, in report order. It is supplementary reporting (§1's
// "emitting a per-page report"); the bit-stable `<N> pages crawled.` line
// is emitted exactly once, by the Coordinator itself as it finishes.
func PrintSummary(w io.Writer, res *Result) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	failed := 0
	for _, p := range res.Pages {
		if p.Error != "" || p.StatusCode >= 400 {
			failed++
		}
	}

	if failed == 0 {
		writef("No errors encountered.\n")
		return
	}

	writef("Errors:\n")
	for _, p := range res.Pages {
		if p.Error == "" && p.StatusCode < 400 {
			continue
		}
		writef("  URL: %s\n", p.URL)
		if p.Error != "" {
			writef("  Error: %s\n", p.Error)
		} else {
			writef("  Status: %d\n", p.StatusCode)
		}
	}
}
