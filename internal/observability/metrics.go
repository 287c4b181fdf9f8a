package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aleheux-tc/bngblaster/core"
	"github.com/aleheux-tc/bngblaster/ldp"
)

// Collector bundles the blaster's Prometheus metrics: registry size,
// per-interface cumulative counters with their smoothed rates, and LDP
// adjacency states. It satisfies core.MetricsRecorder and
// ldp.StateRecorder so the registry and the adjacency engine drive the
// gauges directly from their mutators.
type Collector struct {
	gatherer prometheus.Gatherer

	Interfaces prometheus.Gauge

	TxPackets *prometheus.GaugeVec
	RxPackets *prometheus.GaugeVec
	TxBytes   *prometheus.GaugeVec
	RxBytes   *prometheus.GaugeVec

	TxPacketRate *prometheus.GaugeVec
	RxPacketRate *prometheus.GaugeVec
	TxByteRate   *prometheus.GaugeVec
	RxByteRate   *prometheus.GaugeVec

	AdjacencyState *prometheus.GaugeVec
}

// NewCollector registers the blaster metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	interfaces, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bngblaster_interfaces",
		Help: "Number of registered interfaces.",
	}), "bngblaster_interfaces")
	if err != nil {
		return nil, err
	}

	c := &Collector{
		gatherer:   gatherer,
		Interfaces: interfaces,
	}

	counters := []struct {
		target **prometheus.GaugeVec
		name   string
		help   string
	}{
		{&c.TxPackets, "bngblaster_interface_packets_tx", "Cumulative transmitted packets per interface."},
		{&c.RxPackets, "bngblaster_interface_packets_rx", "Cumulative received packets per interface."},
		{&c.TxBytes, "bngblaster_interface_bytes_tx", "Cumulative transmitted bytes per interface."},
		{&c.RxBytes, "bngblaster_interface_bytes_rx", "Cumulative received bytes per interface."},
		{&c.TxPacketRate, "bngblaster_interface_packets_tx_rate", "Smoothed transmit packet rate per second."},
		{&c.RxPacketRate, "bngblaster_interface_packets_rx_rate", "Smoothed receive packet rate per second."},
		{&c.TxByteRate, "bngblaster_interface_bytes_tx_rate", "Smoothed transmit byte rate per second."},
		{&c.RxByteRate, "bngblaster_interface_bytes_rx_rate", "Smoothed receive byte rate per second."},
	}
	for _, def := range counters {
		vec, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: def.name,
			Help: def.help,
		}, []string{"interface"}), def.name)
		if err != nil {
			return nil, err
		}
		*def.target = vec
	}

	adjacency, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bngblaster_ldp_adjacency_state",
		Help: "LDP adjacency state (0=down, 1=hello-active, 2=operational).",
	}, []string{"interface", "instance"}), "bngblaster_ldp_adjacency_state")
	if err != nil {
		return nil, err
	}
	c.AdjacencyState = adjacency

	return c, nil
}

// SetInterfaceCount satisfies core.MetricsRecorder.
func (c *Collector) SetInterfaceCount(n int) {
	if c == nil {
		return
	}
	c.Interfaces.Set(float64(n))
}

// RecordInterfaceStats satisfies core.MetricsRecorder; the registry's
// rate job pushes a snapshot here once per second per interface.
func (c *Collector) RecordInterfaceStats(name string, stats core.Stats, rates core.RateStats) {
	if c == nil {
		return
	}
	c.TxPackets.WithLabelValues(name).Set(float64(stats.PacketsTx))
	c.RxPackets.WithLabelValues(name).Set(float64(stats.PacketsRx))
	c.TxBytes.WithLabelValues(name).Set(float64(stats.BytesTx))
	c.RxBytes.WithLabelValues(name).Set(float64(stats.BytesRx))
	c.TxPacketRate.WithLabelValues(name).Set(float64(rates.PacketsTx))
	c.RxPacketRate.WithLabelValues(name).Set(float64(rates.PacketsRx))
	c.TxByteRate.WithLabelValues(name).Set(float64(rates.BytesTx))
	c.RxByteRate.WithLabelValues(name).Set(float64(rates.BytesRx))
}

// SetAdjacencyState satisfies ldp.StateRecorder.
func (c *Collector) SetAdjacencyState(iface string, instanceID uint32, state ldp.State) {
	if c == nil {
		return
	}
	c.AdjacencyState.WithLabelValues(iface, fmt.Sprintf("%d", instanceID)).Set(float64(state))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
