// SPDX-License-Identifier: MIT
package transport

import "musicviz/internal/analysis"

// Transport defines a generic interface for delivering analysis results to
// consumers. Implementations must be safe for concurrent use and must never
// block the analysis path; drop data instead.
type Transport interface {
	Send(data any) error
	Close() error
}

// FrameProvider supplies the latest analysis state to pull-based publishers
// such as the UDP transport, decoupling them from the concrete engine.
// *analysis.SharedEngine satisfies it.
type FrameProvider interface {
	LatestFrame() (analysis.AnalysisFrame, bool, error)
}
