// Package ldp implements the LDP Hello adjacency engine: one instance
// per configured instance ID, one adjacency per attached interface.
// Wire-format encoding and the label-distribution FSM live elsewhere;
// this package covers hello scheduling and adjacency liveness, the
// pattern every other protocol engine in the blaster follows.
package ldp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aleheux-tc/bngblaster/core"
	"github.com/aleheux-tc/bngblaster/internal/logging"
	"github.com/aleheux-tc/bngblaster/timer"
)

// Defaults applied when the instance configuration leaves the timers
// unset.
const (
	DefaultHelloInterval = 10 * time.Second
	DefaultHoldTime      = 15 * time.Second
)

// ErrAdjacencyExists is returned when an interface is attached twice to
// the same instance. Attaching twice is a configuration error, not a
// recoverable condition.
var ErrAdjacencyExists = errors.New("interface already has an LDP adjacency")

// Config is the per-instance configuration shared by all adjacencies of
// that instance.
type Config struct {
	InstanceID    uint32
	LSRID         string
	HelloInterval time.Duration
	HoldTime      time.Duration
}

func (c Config) withDefaults() Config {
	if c.HelloInterval <= 0 {
		c.HelloInterval = DefaultHelloInterval
	}
	if c.HoldTime <= 0 {
		c.HoldTime = DefaultHoldTime
	}
	return c
}

// StateRecorder receives adjacency state transitions so the
// observability layer can expose them as gauges.
type StateRecorder interface {
	SetAdjacencyState(iface string, instanceID uint32, state State)
}

// Instance owns the adjacencies of one configured LDP instance for the
// process lifetime. New adjacencies are inserted at the head of the
// collection; the order carries no meaning.
type Instance struct {
	config  Config
	timers  *timer.Engine
	log     logging.Logger
	metrics StateRecorder // optional

	adjacencies []*Adjacency
}

// NewInstance creates an instance from its configuration. The timer
// engine is required; log defaults to noop and metrics may be nil.
func NewInstance(cfg Config, timers *timer.Engine, log logging.Logger, metrics StateRecorder) *Instance {
	if log == nil {
		log = logging.Noop()
	}
	return &Instance{
		config:  cfg.withDefaults(),
		timers:  timers,
		log:     log,
		metrics: metrics,
	}
}

// Config returns the effective instance configuration.
func (i *Instance) Config() Config { return i.config }

// Adjacencies returns the instance's adjacency collection, most
// recently attached first.
func (i *Instance) Adjacencies() []*Adjacency {
	out := make([]*Adjacency, len(i.adjacencies))
	copy(out, i.adjacencies)
	return out
}

// Attach binds the instance to a network interface: it allocates the
// adjacency, stores the reverse reference on the interface, arms the
// periodic hello timer, and moves the adjacency out of DOWN. The
// instance owns the adjacency; the interface only references it.
func (i *Instance) Attach(iface *core.Interface) (*Adjacency, error) {
	if iface.LDPAdjacency() != nil {
		return nil, fmt.Errorf("interface %s: %w", iface.Name(), ErrAdjacencyExists)
	}

	i.log.Info(context.Background(), "add network interface to LDP instance",
		logging.String("interface", iface.Name()),
		logging.Uint32("instance", i.config.InstanceID))

	adj := &Adjacency{
		instance: i,
		iface:    iface,
		state:    StateDown,
	}
	i.adjacencies = append([]*Adjacency{adj}, i.adjacencies...)
	iface.SetLDPAdjacency(adj)

	adj.helloTimer = i.timers.SchedulePeriodic("LDP Hello", i.config.HelloInterval, adj, helloJob)
	adj.setState(StateHelloActive)
	return adj, nil
}

// Shutdown stops every adjacency timer and clears the interface
// back-references. Only called at instance or process teardown.
func (i *Instance) Shutdown() {
	for _, adj := range i.adjacencies {
		if adj.helloTimer != nil {
			adj.helloTimer.Stop()
		}
		if adj.holdTimer != nil {
			adj.holdTimer.Stop()
		}
		adj.iface.SetLDPAdjacency(nil)
	}
	i.adjacencies = nil
}
