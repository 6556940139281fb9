// SPDX-License-Identifier: MIT
//
// Package udp publishes a compact binary trigger-state packet at a fixed
// interval, for a game process that polls rather than holding a
// WebSocket open.
package udp

import (
	"fmt"
	"net"
	"sync"

	applog "chirp/internal/log"
)

// Sender handles sending raw datagrams to a single target.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex // Protects conn during Close.
	closed bool
}

// NewSender creates a Sender targeting "host:port", e.g. "127.0.0.1:9090".
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	// No local bind needed for sending; nil local address.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	applog.Infof("Transport: UDP sender established to %s", conn.RemoteAddr())

	return &Sender{conn: conn}, nil
}

// Send transmits one datagram. Returns an error if the sender is closed.
func (s *Sender) Send(packet []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("UDP sender is closed")
	}
	if _, err := s.conn.Write(packet); err != nil {
		return fmt.Errorf("UDP send failed: %w", err)
	}
	return nil
}

// Close shuts the underlying connection. Safe to call more than once.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
