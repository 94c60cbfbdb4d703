package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckout(reg)

	m.Outcome("OK")
	m.Outcome("OK")
	m.Outcome("RATE_LIMITED")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.RateLimited()
	m.ProviderCall(120*time.Millisecond, "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("RATE_LIMITED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
	assert.Equal(t, 1, testutil.CollectAndCount(m.providerLatency))
}

func TestCheckoutMetrics_Nil(t *testing.T) {
	var m *Checkout
	assert.NotPanics(t, func() {
		m.Outcome("OK")
		m.CacheLookup(true)
		m.RateLimited()
		m.ProviderCall(time.Second, "ok")
	})
}

func TestGetSysHealth(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.db"), make([]byte, 2048), 0o644))

	h := GetSysHealth(dir, time.Now().Add(-time.Minute))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "2.0 KB", h.DataDiskSize)
	assert.Positive(t, h.Goroutines)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "3.0 MB", FormatBytes(3*1024*1024))
}
