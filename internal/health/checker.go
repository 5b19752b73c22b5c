package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// Status is the outcome of one probe.
type Status struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Latency int64  `json:"latencyMs"`
}

// Report is the outcome of every registered probe.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]Status `json:"checks"`
}

// Checker runs named probes concurrently.
type Checker struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewChecker returns a checker without probes.
func NewChecker() *Checker {
	return &Checker{probes: make(map[string]Probe)}
}

// Register adds or replaces a probe.
func (c *Checker) Register(name string, p Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = p
}

// Names lists the registered probes in sorted order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes every probe and collects the results.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	probes := make(map[string]Probe, len(c.probes))
	for k, v := range c.probes {
		probes[k] = v
	}
	c.mu.RUnlock()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = Report{OK: true, Checks: make(map[string]Status, len(probes))}
	)
	for name, probe := range probes {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()
			start := time.Now()
			err := probe(ctx)
			st := Status{OK: err == nil, Latency: time.Since(start).Milliseconds()}
			if err != nil {
				st.Error = err.Error()
			}
			mu.Lock()
			out.Checks[name] = st
			if err != nil {
				out.OK = false
			}
			mu.Unlock()
		}(name, probe)
	}
	wg.Wait()
	return out
}
