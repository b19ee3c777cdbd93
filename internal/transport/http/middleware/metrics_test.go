package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bike-resale-api/internal/metrics"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	metrics.Nop
	got []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.got = append(f.got, recordedRequest{method, route, status})
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	rec := &fakeRecorder{}
	r := chi.NewRouter()
	r.Use(Metrics(rec))
	r.Get("/bike/resale-bikes/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bike/resale-bikes/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bike/resale-bikes/def", nil))

	require.Len(t, rec.got, 2)
	assert.Equal(t, recordedRequest{"GET", "/bike/resale-bikes/{id}", http.StatusNotFound}, rec.got[0])
	assert.Equal(t, rec.got[0], rec.got[1])
}
