package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacerEnforcesPerHostDelay(t *testing.T) {
	p := NewPacer(1, func() int { return 1 }) // W=1 => throttle = floor(0.02) = 0
	start := time.Now()
	p.Wait()
	p.Wait()
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, time.Second)
}

func TestPacerZeroDelayNoWorkersNoStall(t *testing.T) {
	p := NewPacer(0, func() int { return 0 })
	start := time.Now()
	p.Wait()
	p.Wait()
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestPacerBackpressureScalesWithWorkerCount(t *testing.T) {
	// W=10 => throttle = floor(0.02 * 100) = 2s
	p := NewPacer(0, func() int { return 10 })
	start := time.Now()
	p.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Second)
}

func TestPacerSetDelayTakesEffect(t *testing.T) {
	p := NewPacer(5, func() int { return 0 })
	p.SetDelay(0)
	start := time.Now()
	p.Wait()
	p.Wait()
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
