package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuthEvent_IncrementsByLabels(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordAuthEvent("login", "success")
	c.RecordAuthEvent("login", "success")
	c.RecordAuthEvent("login", "invalid_credentials")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.authEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authEvents.WithLabelValues("login", "invalid_credentials")))
}

func TestRecordCacheLookup(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.RecordCacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
}

func TestRecordImageCleanup(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordImageCleanup(3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.imageCleanup.WithLabelValues("deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.imageCleanup.WithLabelValues("failed")))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordListingMutation("create")
	c.RecordHTTPRequest(http.MethodGet, "/api/v1/bike/resale-bikes", 200, 12*time.Millisecond)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bikeresale_listing_mutations_total{op="create"} 1`)
	assert.Contains(t, string(body), "bikeresale_http_request_duration_seconds")
}
