package sensor

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

// ErrUnsupported is returned where the process CPU time cannot be read.
var ErrUnsupported = errors.New("sensor: process cpu time is not available on " + runtime.GOOS)

// Process reports the CPU used by the current process between two
// consecutive samples, as a percentage of one core. The first sample only
// establishes a baseline and reads 0.
type Process struct {
	cpuTime func() (float64, error)
	now     func() time.Time

	mu       sync.Mutex
	lastCPU  float64
	lastWall time.Time
}

// NewProcess returns a sensor for the running process.
func NewProcess() *Process {
	return &Process{cpuTime: processCPUTime, now: time.Now}
}

// Sample implements ports.CPUSensor.
func (p *Process) Sample(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cpu, err := p.cpuTime()
	if err != nil {
		return 0, err
	}
	wall := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()
	prevCPU, prevWall := p.lastCPU, p.lastWall
	p.lastCPU, p.lastWall = cpu, wall

	if prevWall.IsZero() {
		return 0, nil
	}
	elapsed := wall.Sub(prevWall).Seconds()
	if elapsed <= 0 {
		return 0, nil
	}
	pct := (cpu - prevCPU) / elapsed * 100
	if pct < 0 {
		pct = 0
	}
	return pct, nil
}
