package services

import (
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

// fakeRenderer wraps markdown in a tag named after the profile
type fakeRenderer struct{}

func (fakeRenderer) Render(profile ports.Profile, markdown string) (string, error) {
	return fmt.Sprintf("<%s>%s</%s>", profile, markdown, profile), nil
}

// MockRenderer is a mock implementation of ports.MarkdownRenderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(profile ports.Profile, markdown string) (string, error) {
	args := m.Called(profile, markdown)
	return args.String(0), args.Error(1)
}

// MockMetrics is a mock implementation of ports.MetricsRecorder
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.Called(method, route, status, d)
}

func (m *MockMetrics) ObserveSegmentation(slides int, d time.Duration) {
	m.Called(slides, d)
}

func (m *MockMetrics) IncMetadataFallback() {
	m.Called()
}

func (m *MockMetrics) IncSessionsPurged(kind string, n int) {
	m.Called(kind, n)
}

// fixedClock always reports the same instant
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }
