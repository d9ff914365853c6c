package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.ObserveRequest(http.MethodGet, "/images", http.StatusOK, 0.01)
	m.ObserveRequest(http.MethodGet, "/images", http.StatusOK, 0.02)
	m.RecordImageOperation("create", nil)
	m.RecordImageOperation("create", errors.New("boom"))
	m.RecordMail("confirmation", errors.New("smtp down"))
	m.RecordGuardRejection("forbidden")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/images", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imageOperations.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imageOperations.WithLabelValues("create", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mailSent.WithLabelValues("confirmation", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardRejections.WithLabelValues("forbidden")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	_, err := New()
	require.NoError(t, err)
	_, err = New()
	assert.NoError(t, err)
}

func TestMetrics_Handler(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.RecordImageOperation("delete", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `mailmanifest_image_operations_total{operation="delete",status="success"} 1`)
}
