// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"chirp/internal/analysis"
	applog "chirp/internal/log"
)

// Packet layout, little-endian, 24 bytes:
//
//	offset  size  field
//	0       2     magic 0x4346 ("CF")
//	2       1     version (1)
//	3       1     flags (bit 0: triggered)
//	4       4     sequence number
//	8       4     flap count
//	12      4     noise floor (float32)
//	16      4     rms (float32)
//	20      4     band ratio (float32)
const (
	packetMagic   uint16 = 0x4346
	packetVersion uint8  = 1
	flagTriggered uint8  = 1 << 0
)

// StateSource provides the trigger state the publisher packs. The engine
// implements it; all methods must be safe to call from the publisher
// goroutine (they return copies, not live state).
type StateSource interface {
	Triggered() bool
	FlapCount() uint32
	Snapshot() analysis.Snapshot
}

// Publisher periodically samples a StateSource, packs the state into the
// binary packet above, and sends it via a Sender. It runs in its own
// goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	source   StateSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32
	packetBuf   *bytes.Buffer // Reused between sends.
}

// NewPublisher creates a Publisher. An interval <= 0 defaults to 33ms.
func NewPublisher(interval time.Duration, sender *Sender, source StateSource) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDP publisher requires a sender")
	}
	if source == nil {
		return nil, fmt.Errorf("UDP publisher requires a state source")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("Transport: invalid UDP publish interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:    sender,
		source:    source,
		interval:  interval,
		packetBuf: bytes.NewBuffer(make([]byte, 0, 24)),
	}, nil
}

// Start launches the publisher goroutine. Calling Start on a running
// publisher is a no-op.
func (p *Publisher) Start() {
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
					applog.Warnf("Transport: UDP publish failed: %v", err)
				}
			case <-p.doneChan:
				return
			}
		}
	}()

	applog.Infof("Transport: UDP publisher started (interval %s)", p.interval)
}

// Stop halts the goroutine and waits for it to finish. Safe to call
// multiple times.
func (p *Publisher) Stop() {
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

// publish packs the current state and sends one packet.
func (p *Publisher) publish() error {
	snap := p.source.Snapshot()

	var flags uint8
	if p.source.Triggered() {
		flags |= flagTriggered
	}

	p.packetBuf.Reset()
	binary.Write(p.packetBuf, binary.LittleEndian, packetMagic)
	binary.Write(p.packetBuf, binary.LittleEndian, packetVersion)
	binary.Write(p.packetBuf, binary.LittleEndian, flags)
	binary.Write(p.packetBuf, binary.LittleEndian, p.sequenceNum)
	binary.Write(p.packetBuf, binary.LittleEndian, p.source.FlapCount())
	binary.Write(p.packetBuf, binary.LittleEndian, float32(snap.NoiseFloor))
	binary.Write(p.packetBuf, binary.LittleEndian, float32(snap.RMS))
	binary.Write(p.packetBuf, binary.LittleEndian, float32(snap.BandRatio))
	p.sequenceNum++

	return p.sender.Send(p.packetBuf.Bytes())
}
