package crawler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickabrac/rickbot/output"
	"github.com/rickabrac/rickbot/urlutil"
)

// Coordinator owns all process-wide crawl state: the registrable domain,
// the global visited set, the robots cache, and the worker registry
// (spec.md §3 "Global state", §4.1).
type Coordinator struct {
	sink   output.Sink
	client *http.Client
	robots *RobotsManager
	loader *Loader
	hint   *VisitedHint
	memory *MemoryWatcher

	domain    string
	startTime time.Time

	visitedMu sync.Mutex
	visited   map[string]bool

	workersMu sync.Mutex
	workers   map[string]*Worker
	spawned   int

	active       int64 // currently running worker goroutines
	successCount int64

	reportsMu sync.Mutex
	reports   []output.PageReport

	runningGroup *errgroup.Group
	runningCtx   context.Context

	events chan<- CrawlEvent
}

// SetEventChannel wires an optional structured-event stream, consumed by
// the --tui live dashboard (AS-5). Sends are non-blocking: a full or absent
// channel never slows down a Worker.
func (c *Coordinator) SetEventChannel(ch chan<- CrawlEvent) {
	c.events = ch
}

func (c *Coordinator) emitEvent(ev CrawlEvent) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- ev:
	default:
	}
}

// NewCoordinator builds a Coordinator from cfg. client should not follow
// redirects transparently (both RobotsManager and Loader rely on seeing the
// raw 3xx response).
func NewCoordinator(cfg Config, client *http.Client, sink output.Sink) *Coordinator {
	hint, err := NewVisitedHint()
	if err != nil {
		// A VisitedHint is a pre-check optimization, not a correctness
		// requirement (tryVisit uses the exact map alone when the hint is
		// nil); a failure to allocate its backing mmap must not abort the
		// crawl.
		hint = nil
		sink.Printf("  WARN visited-hint disabled: %s\n", err.Error())
	}

	c := &Coordinator{
		sink:    sink,
		client:  client,
		robots:  NewRobotsManager(client, sink),
		hint:    hint,
		visited: make(map[string]bool),
		workers: make(map[string]*Worker),
	}
	c.memory = NewMemoryWatcher(cfg.MemoryLimitMB, c.pendingTargetCount)
	return c
}

// Run parses seedURL, derives the registrable domain, and crawls until
// every worker's frontier and inbox are empty, returning the pages-crawled
// count (spec.md §4.1, §6).
func (c *Coordinator) Run(ctx context.Context, seedURL string) (int, error) {
	seed, err := urlutil.ParseSeed(seedURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSeed, err.Error())
	}

	c.domain = urlutil.Registrable(seed.Host)
	c.loader = NewLoader(c.client, c.sink, c.domain)
	c.startTime = time.Now()

	c.memory.SetThrottleCallback(func(level ThrottleLevel) {
		c.sink.Printf("  MEMORY throttle level changed: %d\n", level)
	})

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(MaxConcurrentTasks)
	c.runningGroup = group
	c.runningCtx = gctx

	// The quiescence poll runs on its own context, cancelled explicitly once
	// Wait returns below. It must never be a member of group: errgroup's
	// context is only cancelled when Wait returns (or a member errors), so a
	// poll goroutine waiting on gctx.Done() while also being one of the
	// goroutines Wait is waiting for would deadlock every successful run.
	pollCtx, pollCancel := context.WithCancel(ctx)
	defer pollCancel()
	go c.pollQuiescence(pollCtx)

	c.tryVisit(seed.String())
	w := c.spawnWorker(seed.Host)
	w.enqueue(Target{URL: seed, NeedsRobots: true})
	c.runWorker(group, gctx, w)

	if err := group.Wait(); err != nil {
		return 0, err
	}

	if c.hint != nil {
		_ = c.hint.Close()
	}

	n := c.totalCount()
	c.sink.Printf("%d pages crawled.\n", n)
	return n, nil
}

// runWorker launches w.run under group, tracking the active-worker count
// the Pacer's global back-pressure term (spec.md §4.7) depends on.
func (c *Coordinator) runWorker(group *errgroup.Group, ctx context.Context, w *Worker) {
	atomic.AddInt64(&c.active, 1)
	group.Go(func() error {
		defer atomic.AddInt64(&c.active, -1)
		return w.run(ctx)
	})
}

// spawnWorker returns the registered Worker for host, creating one if
// absent. The registry lookup-plus-create is atomic per host (spec.md §9).
func (c *Coordinator) spawnWorker(host string) *Worker {
	w, _ := c.getOrCreateWorker(host)
	return w
}

// getOrCreateWorker is spawnWorker plus a "created" flag, so callers that
// need to launch the Worker's run loop exactly once can tell whether they
// are the one responsible for doing so. A newly created Worker is marked
// active, since every caller that creates one launches it immediately.
func (c *Coordinator) getOrCreateWorker(host string) (*Worker, bool) {
	c.workersMu.Lock()
	defer c.workersMu.Unlock()

	if w, ok := c.workers[host]; ok {
		return w, false
	}
	c.spawned++
	w := newWorker(host, c.spawned, c)
	w.active = true
	c.workers[host] = w
	return w, true
}

// route delivers link to its host's Worker, spawning and launching that
// Worker if this is the first link ever routed to it, or relaunching it if
// its run loop has already exited for lack of work (spec.md §4.2 "route
// them", §9 "dynamic-dispatch handoff"; §5 "a worker exits only once no
// work remains for its host anywhere in the registry"). Without the
// relaunch, a link discovered after a sibling worker already drained and
// returned would sit in that worker's inbox forever: tryVisit has already
// marked it visited, so it would never be retried either.
func (c *Coordinator) route(link urlutil.Record) {
	w, created := c.getOrCreateWorker(link.Host)
	w.enqueue(Target{URL: link, NeedsRobots: true})

	needsLaunch := created
	if !created {
		c.workersMu.Lock()
		if !w.active {
			w.active = true
			needsLaunch = true
		}
		c.workersMu.Unlock()
	}

	if needsLaunch && c.runningGroup != nil {
		c.runWorker(c.runningGroup, c.runningCtx, w)
	}
}

// deactivate marks w inactive iff its inbox is still empty at the instant
// this check runs, under the same lock route uses to decide whether a
// relaunch is needed. This closes the race between "w's run loop decides to
// exit" and "a sibling routes w new work": whichever side observes the
// inbox state second (enqueue vs. this check, both serialized through
// workersMu relative to each other) resolves correctly — either w sees the
// new work and loops instead of returning, or route sees w already inactive
// and relaunches it. w.run() calls this only from its own goroutine.
func (c *Coordinator) deactivate(w *Worker) bool {
	c.workersMu.Lock()
	defer c.workersMu.Unlock()
	if w.hasPending() {
		return false
	}
	w.active = false
	return true
}

// pendingTargetCount sums the inbox+frontier backlog across every
// registered worker, used as an early-warning signal for memory pressure
// (DS-5/memory.go): a stalled or slow-paced crawl can grow this backlog
// long before heap stats reflect it.
func (c *Coordinator) pendingTargetCount() int {
	c.workersMu.Lock()
	workers := make([]*Worker, 0, len(c.workers))
	for _, w := range c.workers {
		workers = append(workers, w)
	}
	c.workersMu.Unlock()

	total := 0
	for _, w := range workers {
		total += w.pendingCount()
	}
	return total
}

// tryVisit performs the atomic test-and-set insertion into the global
// visited set (spec.md §3 "Visited set"). It returns true iff this call
// performed the insertion, i.e. this caller won the race for url.
func (c *Coordinator) tryVisit(url string) bool {
	c.visitedMu.Lock()
	defer c.visitedMu.Unlock()

	if c.hint != nil && !c.hint.MaybeVisited(url) {
		c.visited[url] = true
		c.hint.Add(url)
		return true
	}

	if c.visited[url] {
		return false
	}
	c.visited[url] = true
	if c.hint != nil {
		c.hint.Add(url)
	}
	return true
}

func (c *Coordinator) recordSuccess() {
	atomic.AddInt64(&c.successCount, 1)
}

func (c *Coordinator) addReport(rep output.PageReport) {
	c.reportsMu.Lock()
	c.reports = append(c.reports, rep)
	c.reportsMu.Unlock()
}

// Reports returns the per-page report collected over the run, for the
// -o/--json/--csv structured output (spec.md §1 "emitting a per-page
// report").
func (c *Coordinator) Reports() []output.PageReport {
	c.reportsMu.Lock()
	defer c.reportsMu.Unlock()
	out := make([]output.PageReport, len(c.reports))
	copy(out, c.reports)
	return out
}

// Result builds the structured output.Result for this run, combining the
// collected per-page reports with summary stats.
func (c *Coordinator) Result() *output.Result {
	return &output.Result{
		Pages: c.Reports(),
		Stats: output.Stats{
			PagesCrawled: int(atomic.LoadInt64(&c.successCount)),
			RobotsFetch:  c.robots.Count(),
			Duration:     time.Since(c.startTime),
		},
	}
}

// totalCount is N = |successful fetches| + |robots cache entries|, spec.md
// §6's summary-line formula.
func (c *Coordinator) totalCount() int {
	return int(atomic.LoadInt64(&c.successCount)) + c.robots.Count()
}

func (c *Coordinator) workerCount() int {
	c.workersMu.Lock()
	defer c.workersMu.Unlock()
	return c.spawned
}

func (c *Coordinator) activeWorkerCount() int {
	return int(atomic.LoadInt64(&c.active))
}

// pollQuiescence checks memory pressure every QuiescencePollInterval until
// ctx is cancelled (spec.md §5 "the coordinator polls for global
// quiescence every 10 s"). Actual quiescence detection is structural (every
// Worker goroutine returns when its frontier and inbox drain, which ends
// the errgroup via normal WaitGroup semantics); this poll is the ambient
// memory-pressure observability MemoryWatcher provides (DS-5).
func (c *Coordinator) pollQuiescence(ctx context.Context) {
	ticker := time.NewTicker(QuiescencePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.memory.Check()
		}
	}
}
