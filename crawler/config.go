package crawler

import "time"

// userAgent is the literal User-Agent token spec.md mandates for both
// robots.txt acquisition and page requests, and the agent name rules are
// matched against.
const userAgent = "rickbot"

// BackpressureK is the tunable constant in the quadratic global
// back-pressure formula (spec.md §4.7): throttle = floor(K × W²) seconds.
const BackpressureK = 0.02

// MaxConcurrentTasks bounds the worker pool (spec.md §5): at most this many
// Subdomain Worker goroutines run at once. Each Worker runs its Page Loader
// calls inside its own goroutine.
const MaxConcurrentTasks = 100

// QuiescencePollInterval is how often the Coordinator checks memory
// pressure while workers drain (spec.md §5).
const QuiescencePollInterval = 10 * time.Second

// Config holds crawl-wide configuration.
type Config struct {
	SeedURL        string
	RequestTimeout time.Duration
	MemoryLimitMB  int64
}

// DefaultConfig returns sensible defaults for Config.
func DefaultConfig(seedURL string) Config {
	return Config{
		SeedURL:        seedURL,
		RequestTimeout: 10 * time.Second,
		MemoryLimitMB:  512,
	}
}
