package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/aleheux-tc/bngblaster/core"
	"github.com/aleheux-tc/bngblaster/ldp"
)

func TestRecordInterfaceStatsDrivesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.SetInterfaceCount(2)
	collector.RecordInterfaceStats("eth0",
		core.Stats{PacketsTx: 100, PacketsRx: 50, BytesTx: 12800, BytesRx: 6400},
		core.RateStats{PacketsTx: 20, PacketsRx: 10, BytesTx: 2560, BytesRx: 1280})

	if got := testutil.ToFloat64(collector.Interfaces); got != 2 {
		t.Errorf("bngblaster_interfaces = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.TxPackets.WithLabelValues("eth0")); got != 100 {
		t.Errorf("packets_tx = %v, want 100", got)
	}
	if got := testutil.ToFloat64(collector.TxPacketRate.WithLabelValues("eth0")); got != 20 {
		t.Errorf("packets_tx_rate = %v, want 20", got)
	}
}

func TestSetAdjacencyState(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	collector.SetAdjacencyState("eth0", 1, ldp.StateOperational)

	if got := gaugeValue(t, reg, "bngblaster_ldp_adjacency_state", map[string]string{
		"interface": "eth0",
		"instance":  "1",
	}); got != float64(ldp.StateOperational) {
		t.Fatalf("adjacency state gauge = %v, want %d", got, ldp.StateOperational)
	}
}

func TestNewCollectorIsIdempotentPerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	// Both collectors must share the already registered metrics.
	first.SetInterfaceCount(5)
	if got := testutil.ToFloat64(second.Interfaces); got != 5 {
		t.Fatalf("second collector gauge = %v, want shared value 5", got)
	}
}

func TestMetricsHandlerExposesInterfaceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	collector.SetInterfaceCount(1)
	collector.RecordInterfaceStats("eth0", core.Stats{PacketsTx: 7}, core.RateStats{})
	collector.SetAdjacencyState("eth0", 1, ldp.StateHelloActive)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"bngblaster_interfaces",
		"bngblaster_interface_packets_tx",
		"bngblaster_interface_bytes_rx_rate",
		"bngblaster_ldp_adjacency_state",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func gaugeValue(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetGauge() != nil {
				return m.GetGauge().GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
