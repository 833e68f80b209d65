package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordIngestionRun(t *testing.T) {
	before := testutil.ToFloat64(IngestionItems.WithLabelValues("test-src", "imported"))
	runsBefore := testutil.ToFloat64(IngestionRuns.WithLabelValues("test-src", "failed"))

	RecordIngestionRun("test-src", 4, 2, 1, time.Second, nil)
	RecordIngestionRun("test-src", 0, 0, 0, time.Second, errors.New("fetch failed"))

	assert.Equal(t, before+4, testutil.ToFloat64(IngestionItems.WithLabelValues("test-src", "imported")))
	assert.Equal(t, runsBefore+1, testutil.ToFloat64(IngestionRuns.WithLabelValues("test-src", "failed")))
}

func TestProviderCounters(t *testing.T) {
	okBefore := testutil.ToFloat64(ProviderRequests.WithLabelValues("test-provider", "success"))
	errBefore := testutil.ToFloat64(ProviderRequests.WithLabelValues("test-provider", "error"))

	RecordProviderRequest("test-provider", nil)
	RecordProviderRequest("test-provider", errors.New("503"))
	RecordFallback("test-router", "test-secondary")

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ProviderRequests.WithLabelValues("test-provider", "success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(ProviderRequests.WithLabelValues("test-provider", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ProviderFallbacks.WithLabelValues("test-router", "test-secondary")))
}

func TestKafkaProduceTimer(t *testing.T) {
	before := testutil.ToFloat64(KafkaMessagesProduced.WithLabelValues("test-topic"))
	errBefore := testutil.ToFloat64(KafkaErrors.WithLabelValues("test-topic", "produce"))

	NewKafkaProduceTimer("test-topic").Success()
	NewKafkaProduceTimer("test-topic").Error()

	assert.Equal(t, before+1, testutil.ToFloat64(KafkaMessagesProduced.WithLabelValues("test-topic")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(KafkaErrors.WithLabelValues("test-topic", "produce")))
}

func TestDbTimer_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DbErrors.WithLabelValues("test-store", "insert"))

	NewDbTimer("test-store", DbOpInsert, "reviews").Done(nil)
	NewDbTimer("test-store", DbOpInsert, "reviews").Done(errors.New("dup"))

	assert.Equal(t, before+1, testutil.ToFloat64(DbErrors.WithLabelValues("test-store", "insert")))
}

func TestGinPrometheusMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("test-svc"))
	router.GET("/reviews/:review_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reviews/"+id, nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("test-svc", "GET", "/reviews/:review_id", "200")))
}
