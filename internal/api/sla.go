package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// SLAConfig holds per-operation response time targets.
type SLAConfig struct {
	RecordCreationMaxTime   time.Duration
	TransitionMaxTime       time.Duration
	ApprovalResponseMaxTime time.Duration
	RecordQueryMaxTime      time.Duration
}

// DefaultSLAConfig returns the default response time targets.
func DefaultSLAConfig() *SLAConfig {
	return &SLAConfig{
		RecordCreationMaxTime:   1 * time.Second,
		TransitionMaxTime:       2 * time.Second,
		ApprovalResponseMaxTime: 2 * time.Second,
		RecordQueryMaxTime:      500 * time.Millisecond,
	}
}

// getOperation classifies the request as a monitored QMS operation.
func getOperation(c *gin.Context) string {
	method := c.Request.Method
	path := c.Request.URL.Path

	if !strings.HasPrefix(path, "/api/v1/") {
		return "unknown"
	}

	if strings.HasSuffix(path, "/transition") && method == "POST" {
		return "transition"
	}
	if strings.HasSuffix(path, "/approvals/respond") || strings.HasSuffix(path, "/review-response") {
		return "approval_response"
	}
	if method == "POST" {
		return "record_creation"
	}
	if method == "GET" {
		return "record_query"
	}

	return "unknown"
}

// CheckSLA reports whether an operation finished within its target.
func CheckSLA(operation string, duration time.Duration, config *SLAConfig) bool {
	switch operation {
	case "record_creation":
		return duration <= config.RecordCreationMaxTime
	case "transition":
		return duration <= config.TransitionMaxTime
	case "approval_response":
		return duration <= config.ApprovalResponseMaxTime
	case "record_query":
		return duration <= config.RecordQueryMaxTime
	default:
		return true
	}
}

// SLAMonitorMiddleware flags responses that exceed their operation's target.
func SLAMonitorMiddleware(config *SLAConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultSLAConfig()
	}

	return func(c *gin.Context) {
		start := time.Now()
		operation := getOperation(c)

		c.Next()

		duration := time.Since(start)
		if !CheckSLA(operation, duration, config) {
			c.Header("X-SLA-Violation", "true")
			c.Header("X-SLA-Operation", operation)
			c.Header("X-SLA-Duration", duration.String())
			c.Header("X-SLA-Expected", getExpectedDuration(operation, config).String())
		}
	}
}

// getExpectedDuration returns the target for an operation.
func getExpectedDuration(operation string, config *SLAConfig) time.Duration {
	switch operation {
	case "record_creation":
		return config.RecordCreationMaxTime
	case "transition":
		return config.TransitionMaxTime
	case "approval_response":
		return config.ApprovalResponseMaxTime
	case "record_query":
		return config.RecordQueryMaxTime
	default:
		return 0
	}
}

// SLAViolation is one recorded target miss.
type SLAViolation struct {
	Operation string
	Duration  time.Duration
	Expected  time.Duration
	Timestamp time.Time
	Path      string
	Method    string
}

// SLAAlertManager aggregates violations and fires callbacks when an
// operation crosses its alert threshold.
type SLAAlertManager struct {
	violations     map[string][]SLAViolation
	thresholds     map[string]int
	alertCallbacks []func(string, []SLAViolation)
	mu             sync.RWMutex
}

// NewSLAAlertManager creates an alert manager.
func NewSLAAlertManager() *SLAAlertManager {
	return &SLAAlertManager{
		violations:     make(map[string][]SLAViolation),
		thresholds:     make(map[string]int),
		alertCallbacks: make([]func(string, []SLAViolation), 0),
	}
}

// RecordViolation stores a violation and triggers alerts past the threshold.
func (m *SLAAlertManager) RecordViolation(operation string, violation SLAViolation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.violations[operation] = append(m.violations[operation], violation)

	threshold := m.thresholds[operation]
	if threshold > 0 && len(m.violations[operation]) >= threshold {
		m.triggerAlert(operation)
	}
}

// SetAlertThreshold sets the violation count that triggers alerts.
func (m *SLAAlertManager) SetAlertThreshold(operation string, threshold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[operation] = threshold
}

// OnAlert registers an alert callback.
func (m *SLAAlertManager) OnAlert(callback func(string, []SLAViolation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertCallbacks = append(m.alertCallbacks, callback)
}

// GetViolations returns recorded violations for an operation.
func (m *SLAAlertManager) GetViolations(operation string) []SLAViolation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.violations[operation]
}

func (m *SLAAlertManager) triggerAlert(operation string) {
	violations := m.violations[operation]
	for _, callback := range m.alertCallbacks {
		callback(operation, violations)
	}
}

// SLAMonitorMiddlewareWithAlert is SLAMonitorMiddleware plus violation
// recording through an alert manager.
func SLAMonitorMiddlewareWithAlert(config *SLAConfig, alertManager *SLAAlertManager) gin.HandlerFunc {
	if config == nil {
		config = DefaultSLAConfig()
	}

	return func(c *gin.Context) {
		start := time.Now()
		operation := getOperation(c)

		c.Next()

		duration := time.Since(start)
		if !CheckSLA(operation, duration, config) {
			violation := SLAViolation{
				Operation: operation,
				Duration:  duration,
				Expected:  getExpectedDuration(operation, config),
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
				Method:    c.Request.Method,
			}

			if alertManager != nil {
				alertManager.RecordViolation(operation, violation)
			}

			c.Header("X-SLA-Violation", "true")
			c.Header("X-SLA-Operation", operation)
			c.Header("X-SLA-Duration", duration.String())
			c.Header("X-SLA-Expected", violation.Expected.String())
		}
	}
}
