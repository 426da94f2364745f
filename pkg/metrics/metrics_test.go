package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStoreOperationOutcome(t *testing.T) {
	ok := StoreOperationsTotal.WithLabelValues("insert", "tweet", "ok")
	failed := StoreOperationsTotal.WithLabelValues("insert", "tweet", "error")
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	RecordStoreOperation("insert", "tweet", nil, time.Millisecond)
	RecordStoreOperation("insert", "tweet", errors.New("locked"), time.Millisecond)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestRecordEngagement(t *testing.T) {
	before := testutil.ToFloat64(EngagementTotal.WithLabelValues("like"))
	RecordEngagement("like")
	assert.Equal(t, before+1, testutil.ToFloat64(EngagementTotal.WithLabelValues("like")))
}

func TestMetricsAreExposed(t *testing.T) {
	RecordHttpRequest(http.MethodGet, "/api/tweets", "OK", 5*time.Millisecond)
	RecordCacheHit()

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "tweetflow_http_requests_total")
	assert.Contains(t, body, "tweetflow_cache_hits_total")
}
