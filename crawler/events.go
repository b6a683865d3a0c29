package crawler

// CrawlEvent reports progress for a single dispatched fetch, consumed by
// the optional --tui dashboard (AS-5). Events are sent only when an event
// channel is set; the bit-stable log lines are written to the sink
// separately.
type CrawlEvent struct {
	URL         string
	Host        string
	WorkerIndex int
	WorkerCount int
	StatusCode  int
	Error       string
	LocalRate   float64
	GlobalRate  float64
	LocalCount  int
	GlobalCount int
}
