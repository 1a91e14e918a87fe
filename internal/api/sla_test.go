package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/api"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestCheckSLA verifies per-operation target checks.
func TestCheckSLA(t *testing.T) {
	config := api.DefaultSLAConfig()

	assert.True(t, api.CheckSLA("record_creation", 500*time.Millisecond, config))
	assert.False(t, api.CheckSLA("record_creation", 2*time.Second, config))
	assert.True(t, api.CheckSLA("record_query", 100*time.Millisecond, config))
	assert.False(t, api.CheckSLA("record_query", time.Second, config))

	// Unknown operations are never flagged.
	assert.True(t, api.CheckSLA("unknown", time.Hour, config))
}

// TestSLAMonitorMiddleware_Violation verifies slow responses carry the
// violation headers.
func TestSLAMonitorMiddleware_Violation(t *testing.T) {
	config := &api.SLAConfig{
		RecordCreationMaxTime:   time.Nanosecond,
		TransitionMaxTime:       time.Second,
		ApprovalResponseMaxTime: time.Second,
		RecordQueryMaxTime:      time.Second,
	}

	router := gin.New()
	router.Use(api.SLAMonitorMiddleware(config))
	router.POST("/api/v1/capas", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/capas", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "true", w.Header().Get("X-SLA-Violation"))
	assert.Equal(t, "record_creation", w.Header().Get("X-SLA-Operation"))
	assert.NotEmpty(t, w.Header().Get("X-SLA-Duration"))
}

// TestSLAMonitorMiddleware_WithinTarget verifies fast responses stay
// unflagged.
func TestSLAMonitorMiddleware_WithinTarget(t *testing.T) {
	router := gin.New()
	router.Use(api.SLAMonitorMiddleware(nil))
	router.GET("/api/v1/capas", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/capas", nil)
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("X-SLA-Violation"))
}

// TestSLAAlertManager verifies threshold-triggered alert callbacks.
func TestSLAAlertManager(t *testing.T) {
	manager := api.NewSLAAlertManager()
	manager.SetAlertThreshold("transition", 2)

	var alerted string
	var count int
	manager.OnAlert(func(operation string, violations []api.SLAViolation) {
		alerted = operation
		count = len(violations)
	})

	violation := api.SLAViolation{
		Operation: "transition",
		Duration:  3 * time.Second,
		Expected:  2 * time.Second,
		Timestamp: time.Now(),
	}

	manager.RecordViolation("transition", violation)
	assert.Empty(t, alerted)

	manager.RecordViolation("transition", violation)
	assert.Equal(t, "transition", alerted)
	assert.Equal(t, 2, count)
	assert.Len(t, manager.GetViolations("transition"), 2)
}
