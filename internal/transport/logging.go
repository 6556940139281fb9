// SPDX-License-Identifier: MIT
package transport

import applog "chirp/internal/log"

// LoggingTransport implements Transport by logging flap events at debug
// level. It is the default sink when no network transport is enabled.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	return &LoggingTransport{}
}

// Send logs the event. Never fails.
func (lt *LoggingTransport) Send(data any) error {
	if ev, ok := data.(FlapEvent); ok {
		applog.Debugf("Transport: flap %d", ev.Count)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
