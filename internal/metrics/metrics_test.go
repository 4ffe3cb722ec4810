package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_WorkflowTransition(t *testing.T) {
	m := New()

	m.WorkflowTransition("budget", "submitted")
	m.WorkflowTransition("budget", "submitted")
	m.WorkflowTransition("forecast", "approved")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.workflowTransitions.WithLabelValues("budget", "submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflowTransitions.WithLabelValues("forecast", "approved")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/v1/dashboard/totals", http.StatusOK, 15*time.Millisecond)
	m.ExportGenerated("excel")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `salesplan_http_requests_total{method="GET",route="/api/v1/dashboard/totals",status="200"} 1`))
	assert.True(t, strings.Contains(body, `salesplan_exports_total{format="excel"} 1`))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.WorkflowTransition("budget", "approved")
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ExportGenerated("csv")
		m.EntitiesImported("merge", 3)
		m.ClientConnected(1)
	})
	assert.Nil(t, m.Registry())
}
