package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"availability_hub/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveSupplierTask("alpha", "Completed", 300*time.Millisecond)

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	assert.True(t, strings.Contains(out, "availability_http_requests_total"))
	assert.True(t, strings.Contains(out, `availability_supplier_tasks_total{state="Completed",supplier="alpha"}`))
}

func TestServeDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, observability.Serve("", observability.InitRegistry()))
}
