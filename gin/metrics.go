package gin

import "time"

// Route labels reported to Metrics.
const (
	RouteExplain = "explain"
	RouteVisual  = "visual"
)

// Upstream failure phases reported to Metrics.
const (
	PhaseBeforeHeaders = "before_headers"
	PhaseMidStream     = "mid_stream"
)

// Metrics receives request outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveRequest(route string, status int, duration time.Duration)
	ObserveStream(fragments, bytes int)
	UpstreamFailure(route, phase string)
	ClientDisconnect(route string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRequest(string, int, time.Duration) {}
func (nopMetrics) ObserveStream(int, int)                    {}
func (nopMetrics) UpstreamFailure(string, string)            {}
func (nopMetrics) ClientDisconnect(string)                   {}
