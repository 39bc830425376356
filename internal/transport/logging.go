// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"

	applog "musicviz/internal/log"
)

// LoggingTransport implements Transport by writing each frame to the debug
// log. Useful for inspecting the stream without a connected consumer.
type LoggingTransport struct{}

// NewLoggingTransport creates a LoggingTransport.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the data at debug level. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	if payload, err := json.Marshal(data); err == nil {
		applog.Debugf("LoggingTransport: %s", payload)
	} else {
		applog.Debugf("LoggingTransport: (%T) %+v", data, data)
	}
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
