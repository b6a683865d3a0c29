package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintSummaryNoErrors(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &Result{
		Pages: []PageReport{{URL: "https://example.com/", StatusCode: 200}},
		Stats: Stats{PagesCrawled: 1, RobotsFetch: 1},
	})
	assert.Contains(t, buf.String(), "No errors encountered.")
}

func TestPrintSummaryWithErrors(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &Result{
		Pages: []PageReport{
			{URL: "https://example.com/broken", StatusCode: 500},
		},
		Stats: Stats{PagesCrawled: 1, RobotsFetch: 0},
	})
	out := buf.String()
	assert.Contains(t, out, "Errors:")
	assert.Contains(t, out, "https://example.com/broken")
}
