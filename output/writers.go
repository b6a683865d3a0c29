package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteJSON writes the per-page reports as a formatted JSON array.
func WriteJSON(w io.Writer, pages []PageReport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pages); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteCSV writes the per-page reports as CSV, always including a header
// row even when there are no reports.
func WriteCSV(w io.Writer, pages []PageReport) error {
	cw := csv.NewWriter(w)

	header := []string{"url", "host", "status_code", "error_type", "disallowed", "crawl_delay"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range pages {
		record := []string{
			p.URL,
			p.Host,
			statusCodeStr(p.StatusCode),
			string(p.Category),
			strconv.FormatBool(p.Disallowed),
			strconv.Itoa(p.CrawlDelay),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record for %s: %w", p.URL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func statusCodeStr(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}
