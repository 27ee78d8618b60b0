package ports

import "time"

// MetricsRecorder receives application measurements
type MetricsRecorder interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
	ObserveSegmentation(slides int, d time.Duration)
	IncMetadataFallback()
	IncSessionsPurged(kind string, n int)
}

// NopMetrics records nothing
type NopMetrics struct{}

func (NopMetrics) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (NopMetrics) ObserveSegmentation(int, time.Duration)                {}
func (NopMetrics) IncMetadataFallback()                                  {}
func (NopMetrics) IncSessionsPurged(string, int)                         {}
