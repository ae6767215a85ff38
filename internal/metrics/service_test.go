package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RecordsAndExposes(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)

	s.IncIntercepted("fetch")
	s.IncIntercepted("fetch")
	s.IncCardsTransformed("index")
	s.SetStoredMatches(12)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.Intercepted.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.CardsTransformed.WithLabelValues("index")))
	assert.Equal(t, 12.0, testutil.ToFloat64(s.StoredMatches))

	rec := httptest.NewRecorder()
	NewMetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dbd_history_stored_matches 12")
}
