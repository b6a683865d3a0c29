package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickabrac/rickbot/output"
	"github.com/rickabrac/rickbot/urlutil"
)

// Worker runs breadth-first search over the subgraph restricted to one
// hostname (spec.md §4.2). A single Worker dispatches one Page Loader task
// at a time; it never fetches concurrently with itself.
type Worker struct {
	Host  string
	Index int

	coordinator *Coordinator
	loader      *Loader
	sink        output.Sink
	pacer       *Pacer

	startTime  time.Time
	localCount int
	requested  map[string]bool

	// active is owned by the Coordinator's workersMu: it is read/written only
	// while holding it (registry operations and the deactivate/reactivate
	// handshake below). frontier is owned by this Worker's own run
	// goroutine, which alone reads and mutates it, with frontierLen kept in
	// sync atomically so other goroutines (the memory watcher's pending-
	// backlog estimate) can read its size without racing the run loop.
	active      bool
	frontier    []Target
	frontierLen int64

	inboxMu sync.Mutex
	inbox   []Target
}

// setFrontier replaces the worker's frontier, keeping frontierLen visible to
// other goroutines in sync. Called only from this Worker's own run goroutine.
func (w *Worker) setFrontier(t []Target) {
	w.frontier = t
	atomic.StoreInt64(&w.frontierLen, int64(len(t)))
}

// pendingCount reports the total backlog (inbox + frontier) for this worker,
// for the Coordinator's memory-pressure estimate. Safe from any goroutine.
func (w *Worker) pendingCount() int {
	w.inboxMu.Lock()
	n := len(w.inbox)
	w.inboxMu.Unlock()
	return n + int(atomic.LoadInt64(&w.frontierLen))
}

func newWorker(host string, index int, coord *Coordinator) *Worker {
	return &Worker{
		Host:        host,
		Index:       index,
		coordinator: coord,
		loader:      coord.loader,
		sink:        coord.sink,
		startTime:   time.Now(),
		requested:   make(map[string]bool),
		pacer:       NewPacer(1, coord.activeWorkerCount),
	}
}

// enqueue appends target to the worker's inbox. Safe for any caller,
// including the Coordinator and other Workers (spec.md §4.2 "enqueue").
func (w *Worker) enqueue(t Target) {
	w.inboxMu.Lock()
	w.inbox = append(w.inbox, t)
	w.inboxMu.Unlock()
}

func (w *Worker) drainInbox() []Target {
	w.inboxMu.Lock()
	defer w.inboxMu.Unlock()
	if len(w.inbox) == 0 {
		return nil
	}
	drained := w.inbox
	w.inbox = nil
	return drained
}

func (w *Worker) hasPending() bool {
	w.inboxMu.Lock()
	n := len(w.inbox)
	w.inboxMu.Unlock()
	return n > 0 || len(w.frontier) > 0
}

// run drains the frontier level by level, classifying and routing every
// discovered link, until both the frontier and inbox are empty (spec.md
// §4.2 "run"). It returns a non-nil error only for a fatal condition
// (HTTP 101), which the Coordinator propagates to abort the whole crawl.
func (w *Worker) run(ctx context.Context) error {
	for {
		w.setFrontier(append(w.frontier, w.drainInbox()...))
		if len(w.frontier) == 0 {
			if w.coordinator.deactivate(w) {
				return nil
			}
			// A sibling enqueued work in the window between the drain
			// above and deactivate's check; loop and pick it up instead
			// of exiting out from under it.
			continue
		}

		level := w.frontier
		w.setFrontier(nil)

		var next []Target
		for _, target := range level {
			if ctx.Err() != nil {
				return nil
			}

			links, err := w.process(ctx, target)
			if err != nil {
				return err
			}

			for _, link := range links {
				if !urlutil.InDomain(link.Host, w.coordinator.domain) {
					continue
				}
				if !w.coordinator.tryVisit(link.String()) {
					continue
				}
				if link.Host == w.Host {
					next = append(next, Target{URL: link})
				} else {
					w.coordinator.route(link)
				}
			}
		}

		w.setFrontier(append(next, w.drainInbox()...))
	}
}

// process consults the Robots Manager, paces the fetch, invokes the Page
// Loader, and returns the newly discovered links (spec.md §4.2's per-target
// sequence, §4.4).
func (w *Worker) process(ctx context.Context, target Target) ([]urlutil.Record, error) {
	key := target.URL.String()
	if w.requested[key] {
		return nil, nil
	}
	w.requested[key] = true

	st, err := w.coordinator.robots.EnsureFetched(ctx, target.URL.Scheme, target.URL.Host+target.URL.Port)
	if err != nil {
		return nil, err
	}
	w.pacer.SetDelay(DelayFor(st))

	if !Allowed(st, target.URL.Path) {
		w.sink.Printf("  /robots.txt DISALLOW [%s]\n", key)
		w.coordinator.addReport(output.PageReport{
			URL: key, Host: w.Host, Disallowed: true, CrawlDelay: DelayFor(st),
		})
		return nil, nil
	}

	w.pacer.Wait()

	outcome, err := w.loader.Load(ctx, target.URL)
	if err != nil {
		return nil, err
	}
	if outcome.Skipped {
		return nil, nil
	}

	rep := output.PageReport{
		URL: key, Host: w.Host, StatusCode: outcome.StatusCode, CrawlDelay: DelayFor(st), Title: outcome.Title,
	}
	if outcome.Success {
		w.localCount++
		w.coordinator.recordSuccess()
		w.logSuccess(target.URL)
	} else {
		rep.Error = outcome.ErrMessage
		rep.Category = output.ClassifyError(errors.New(fallback(outcome.ErrMessage, "http error")), outcome.StatusCode)
		w.coordinator.emitEvent(CrawlEvent{
			URL:         key,
			Host:        w.Host,
			WorkerIndex: w.Index,
			WorkerCount: w.coordinator.workerCount(),
			StatusCode:  outcome.StatusCode,
			Error:       fallback(outcome.ErrMessage, fmt.Sprintf("status %d", outcome.StatusCode)),
		})
	}
	w.coordinator.addReport(rep)

	return outcome.Links, nil
}

func fallback(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// logSuccess emits the bit-stable multi-threaded success line (spec.md §6):
// "• <local_rate>/<global_rate> Crawler[<index>/<count>] <url> [<local>/<global>]".
func (w *Worker) logSuccess(url urlutil.Record) {
	localElapsed := time.Since(w.startTime).Seconds()
	localRate := 0.0
	if localElapsed > 0 {
		localRate = float64(w.localCount) / localElapsed
	}

	globalElapsed := time.Since(w.coordinator.startTime).Seconds()
	globalCount := w.coordinator.totalCount()
	globalRate := 0.0
	if globalElapsed > 0 {
		globalRate = float64(globalCount) / globalElapsed
	}

	w.sink.Printf("• %.1f/%.1f Crawler[%d/%d] %s [%d/%d]\n",
		localRate, globalRate, w.Index, w.coordinator.workerCount(),
		url.String(), w.localCount, globalCount)

	w.coordinator.emitEvent(CrawlEvent{
		URL:         url.String(),
		Host:        w.Host,
		WorkerIndex: w.Index,
		WorkerCount: w.coordinator.workerCount(),
		StatusCode:  http.StatusOK,
		LocalRate:   localRate,
		GlobalRate:  globalRate,
		LocalCount:  w.localCount,
		GlobalCount: globalCount,
	})
}
