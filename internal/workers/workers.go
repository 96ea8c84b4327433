// Package workers runs the engine's periodic background sweeps. Each
// sweep is an independent scheduled task with its own stop handle so a
// failing or stopped sweep never takes the other down with it.
package workers

import (
	"sync"
	"time"
)

// Sweep runs fn on a fixed interval until stopped. fn must be
// idempotent and safe to run concurrently with foreground traffic.
type Sweep struct {
	name     string
	interval time.Duration
	fn       func()
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSweep(name string, interval time.Duration, fn func()) *Sweep {
	return &Sweep{
		name:     name,
		interval: interval,
		fn:       fn,
		stopChan: make(chan struct{}),
	}
}

// Start launches the ticker loop. Restart after Stop requires a new Sweep.
func (s *Sweep) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.fn()
			case <-s.stopChan:
				return
			}
		}
	}()
}

func (s *Sweep) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
