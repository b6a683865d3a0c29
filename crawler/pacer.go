package crawler

import (
	"math"
	"sync"
	"time"
)

// Pacer enforces per-host crawl-delay spacing and a global quadratic
// back-pressure heuristic tied to worker fan-out (spec.md §4.7). It
// replaces the teacher's RTT-adaptive AdaptiveLimiter: instead of reacting
// to observed response latency, the single adaptation signal here is the
// count of currently active Subdomain Workers, per spec.md's explicit
// formula `throttle = floor(K * W^2)`.
type Pacer struct {
	mu              sync.Mutex
	lastFetchMillis int64
	delaySeconds    int

	activeWorkers func() int
}

// NewPacer creates a Pacer for one Subdomain Worker. activeWorkers reports
// the current live worker count for the global back-pressure term.
func NewPacer(delaySeconds int, activeWorkers func() int) *Pacer {
	return &Pacer{delaySeconds: delaySeconds, activeWorkers: activeWorkers}
}

// SetDelay updates the per-host crawl delay once robots.txt has been
// fetched for this worker's host.
func (p *Pacer) SetDelay(delaySeconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delaySeconds = delaySeconds
}

// Wait blocks until both the per-host delay window and the global
// back-pressure throttle have elapsed, then records the dispatch time.
func (p *Pacer) Wait() {
	p.mu.Lock()
	delay := p.delaySeconds
	last := p.lastFetchMillis
	p.mu.Unlock()

	now := time.Now().UnixMilli()
	if last != 0 {
		elapsed := now - last
		needed := int64(delay) * 1000
		if elapsed < needed {
			time.Sleep(time.Duration(needed-elapsed) * time.Millisecond)
		}
	}

	if p.activeWorkers != nil {
		w := float64(p.activeWorkers())
		throttle := int(math.Floor(BackpressureK * w * w))
		if throttle > 0 {
			time.Sleep(time.Duration(throttle) * time.Second)
		}
	}

	p.mu.Lock()
	p.lastFetchMillis = time.Now().UnixMilli()
	p.mu.Unlock()
}
