// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"time"

	"chirp/internal/analysis"
	applog "chirp/internal/log"
)

// defaultStateInterval paces state broadcasts when no interval is given.
const defaultStateInterval = 100 * time.Millisecond

// StateSource provides the live state a StatePublisher broadcasts. The
// engine implements it; all methods must be safe to call from the
// publisher goroutine (they return copies, not live state).
type StateSource interface {
	Triggered() bool
	FlapCount() uint32
	Snapshot() analysis.Snapshot
}

// StatePublisher periodically samples a StateSource and sends a
// StateEvent through a Transport, feeding browser tuning UIs over the
// WebSocket sink. It runs in its own goroutine managed by Start and Stop.
type StatePublisher struct {
	sink     Transport
	source   StateSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.
}

// NewStatePublisher creates a StatePublisher. An interval <= 0 defaults
// to 100ms.
func NewStatePublisher(interval time.Duration, sink Transport, source StateSource) *StatePublisher {
	if interval <= 0 {
		interval = defaultStateInterval
	}
	return &StatePublisher{
		sink:     sink,
		source:   source,
		interval: interval,
	}
}

// Start launches the publisher goroutine. Calling Start on a running
// publisher is a no-op.
func (p *StatePublisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker != nil {
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-p.ticker.C:
				if err := p.publish(); err != nil {
					applog.Warnf("Transport: state publish failed: %v", err)
				}
			case <-p.doneChan:
				return
			}
		}
	}()

	applog.Infof("Transport: state publisher started (interval %s)", p.interval)
}

// Stop halts the goroutine and waits for it to finish. Safe to call
// multiple times.
func (p *StatePublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticker == nil {
		return
	}

	p.stopOnce.Do(func() {
		p.ticker.Stop()
		close(p.doneChan)
	})
	p.wg.Wait()
	p.ticker = nil
}

// publish builds a StateEvent from the current snapshot and sends it.
func (p *StatePublisher) publish() error {
	snap := p.source.Snapshot()

	return p.sink.Send(StateEvent{
		Type:        "state",
		Triggered:   p.source.Triggered(),
		LoudCounter: snap.LoudCounter,
		NoiseFloor:  snap.NoiseFloor,
		RMS:         snap.RMS,
		BandRatio:   snap.BandRatio,
		Centroids:   snap.RecentCentroids,
		Onsets:      snap.RecentOnsets,
	})
}
