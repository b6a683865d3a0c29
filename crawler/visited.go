package crawler

import (
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

// VisitedHint is a disk-backed bloom filter used as a probabilistic
// pre-check inside the Coordinator's visited-set test-and-set, which reads
// and updates it only while holding the visited-set mutex (spec.md §3's
// global visited set). Bloom filters have no false negatives, so "probably
// not visited" is always trusted; "probably visited" still falls through to
// the exact map for the authoritative test-and-set. This never weakens
// spec.md §3's invariant ("a URL appears in the visited set at most once");
// it only lets a definitely-new URL skip the map lookup.
//
// Adapted from the teacher's VisitedTracker (crawler/visited.go in
// lukemcguire/zombiecrawl), which used the same bloom+mmap structure as the
// crawl's sole (approximate) visited set. Here it is explicitly demoted to
// a hint: spec.md §8 property 1 requires exactly one terminal line per
// visited URL, a guarantee a probabilistic structure alone cannot provide.
type VisitedHint struct {
	mu      sync.Mutex
	filter  *bloom.BloomFilter
	file    *os.File
	mmap    mmap.MMap
	tmpPath string
}

// NewVisitedHint creates a disk-backed bloom filter sized for 100,000 URLs
// at a 0.1% false-positive rate, comfortably above the ~50-host, many
// page-per-host scale spec.md §5 describes.
func NewVisitedHint() (*VisitedHint, error) {
	filter := bloom.NewWithEstimates(100000, 0.001)

	tmpFile, err := os.CreateTemp(os.TempDir(), "rickbot-visited-*.bloom")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	filterSize := int64(filter.Cap())
	if err := tmpFile.Truncate(filterSize); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("truncate temp file: %w", err)
	}

	mapped, err := mmap.MapRegion(tmpFile, int(filterSize), mmap.RDWR, 0, 0)
	if err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("mmap temp file: %w", err)
	}

	data, err := filter.MarshalBinary()
	if err != nil {
		_ = mapped.Unmap()
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) > len(mapped) {
		_ = mapped.Unmap()
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("filter data (%d) exceeds mmap size (%d)", len(data), len(mapped))
	}
	copy(mapped, data)

	return &VisitedHint{filter: filter, file: tmpFile, mmap: mapped, tmpPath: tmpPath}, nil
}

// MaybeVisited reports whether url might already be in the visited set. A
// false return is a guarantee: the URL is definitely new.
func (v *VisitedHint) MaybeVisited(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter.TestString(url)
}

// Add records url in the hint after it has been inserted into the exact
// visited set.
func (v *VisitedHint) Add(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter.AddString(url)
	data, err := v.filter.MarshalBinary()
	if err != nil || len(data) > len(v.mmap) {
		return
	}
	copy(v.mmap, data)
}

// Close unmaps and removes the backing temp file.
func (v *VisitedHint) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mmap != nil {
		_ = v.mmap.Flush()
		_ = v.mmap.Unmap()
		v.mmap = nil
	}
	if v.file != nil {
		_ = v.file.Close()
		v.file = nil
	}
	if v.tmpPath != "" {
		err := os.Remove(v.tmpPath)
		v.tmpPath = ""
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove temp file: %w", err)
		}
	}
	return nil
}
