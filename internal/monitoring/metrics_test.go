package monitoring

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/l1jgo/uiasset/internal/core/event"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsFollowEvents(t *testing.T) {
	m := NewMetrics()
	bus := event.NewBus()
	m.Subscribe(bus)

	event.Emit(bus, event.PackageRequested{Name: "Main", Version: 1})
	event.Emit(bus, event.PackageRequested{Name: "Fonts", Version: 2})
	event.Emit(bus, event.PackageLoaded{Name: "Main", Version: 1})
	event.Emit(bus, event.PackageLoadFailed{Name: "Fonts", Version: 2, Reason: "empty"})
	event.Emit(bus, event.PackageUnloaded{Name: "Fonts", Version: 2})
	event.Emit(bus, event.PackageUnloaded{Name: "Main", Version: 1, Loaded: true, Forced: true})
	event.Emit(bus, event.StaleCompletion{Name: "Main", Version: 1, Kind: "package"})
	event.Emit(bus, event.ContractViolation{Name: "Main", Detail: "x"})
	event.Emit(bus, event.OrphanAssetRequest{Package: "Gone", Asset: "bg"})
	event.Emit(bus, event.AssetBound{Package: "Main", AssetID: 1, Kind: "texture"})
	event.Emit(bus, event.AssetBound{Package: "Main", AssetID: 2, Kind: "audio"})
	event.Emit(bus, event.AssetDisposed{Package: "Main", AssetID: 1, Kind: "texture"})

	assert.Zero(t, testutil.ToFloat64(m.PackageRequests), "nothing counted before dispatch")
	bus.Flush()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PackageRequests))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PackagesLive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PackageLoads.WithLabelValues("loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PackageLoads.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PackageUnloads.WithLabelValues("normal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PackageUnloads.WithLabelValues("forced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleCompletions.WithLabelValues("package")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContractViolations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrphanRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssetsBound))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObservePump(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "uiasset_pump_drained_count 1"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PumpDrained))
}
