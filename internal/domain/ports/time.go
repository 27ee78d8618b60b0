package ports

import "time"

// TimeProvider abstracts the clock for testability
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using the standard clock
type RealTimeProvider struct{}

// NewRealTimeProvider creates a new real time provider implementation
func NewRealTimeProvider() TimeProvider {
	return RealTimeProvider{}
}

// Now returns the current time
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}
