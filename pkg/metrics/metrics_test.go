package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })
	require.Panics(t, func() { RegisterCollectors(reg) }, "double registration must fail")
}

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequests.WithLabelValues("guild", "error"))
	ObserveUpstream("guild", errors.New("boom"))
	ObserveUpstream("guild", nil)
	require.Equal(t, before+1, testutil.ToFloat64(UpstreamRequests.WithLabelValues("guild", "error")))
	require.GreaterOrEqual(t, testutil.ToFloat64(UpstreamRequests.WithLabelValues("guild", "ok")), 1.0)
}

func TestObserveSettingsWrite(t *testing.T) {
	before := testutil.ToFloat64(SettingsWrites.WithLabelValues("language", "ok"))
	ObserveSettingsWrite("language", nil)
	require.Equal(t, before+1, testutil.ToFloat64(SettingsWrites.WithLabelValues("language", "ok")))
}
