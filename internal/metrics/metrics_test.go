package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.ObserveCheck("changed", 200*time.Millisecond)
	r.ObserveCheck("unchanged", 100*time.Millisecond)
	r.ObserveCheck("unchanged", 100*time.Millisecond)
	r.ObserveScan(3, time.Unix(1700000000, 0))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ChecksTotal.WithLabelValues("changed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.ChecksTotal.WithLabelValues("unchanged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ScansTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.MonitoredWebsites))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.LastScan))
	assert.Equal(t, 1, testutil.CollectAndCount(r.FetchDuration))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveCheck("error", time.Second)
		r.ObserveScan(1, time.Now())
		r.SetMonitored(2)
	})
}

func TestHandler(t *testing.T) {
	r := New()
	r.SetMonitored(5)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pagewatch_monitored_websites 5")
}
