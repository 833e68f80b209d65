package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitWithWriter_LevelAndServiceField(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("feedback-service", "warn", &buf)

	Info().Msg("hidden")
	assert.Empty(t, buf.String())

	Warn().Str("source", "amazon").Msg("visible")
	entry := lastLine(t, &buf)
	assert.Equal(t, "feedback-service", entry["service"])
	assert.Equal(t, "amazon", entry["source"])
	assert.Equal(t, "warn", entry["level"])
}

func TestInitWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("svc", "loud", &buf)

	Debug().Msg("hidden")
	Info().Msg("shown")

	assert.Equal(t, "shown", lastLine(t, &buf)["message"])
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestComponentAndWithFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("svc", "debug", &buf)

	l := Component("dedup")
	l.Info().Msg("gate")
	assert.Equal(t, "dedup", lastLine(t, &buf)["component"])

	f := WithFields(map[string]interface{}{"owner_id": "owner-1"})
	f.Info().Msg("fields")
	assert.Equal(t, "owner-1", lastLine(t, &buf)["owner_id"])
}

func TestGinLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	InitWithWriter("svc", "info", &buf)

	router := gin.New()
	router.Use(GinLoggerMiddleware())
	router.GET("/reviews/:id", func(c *gin.Context) {
		c.Set("owner_id", "owner-1")
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/reviews/42?x=1", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	entry := lastLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "/reviews/42", entry["path"])
	assert.Equal(t, "x=1", entry["query"])
	assert.Equal(t, "owner-1", entry["owner_id"])
	assert.EqualValues(t, http.StatusNotFound, entry["status"])
}

func TestGinLoggerMiddleware_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	InitWithWriter("svc", "info", &bytes.Buffer{})

	router := gin.New()
	router.Use(GinLoggerMiddleware())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
