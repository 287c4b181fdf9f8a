package ldp

import (
	"context"

	"github.com/aleheux-tc/bngblaster/core"
	"github.com/aleheux-tc/bngblaster/internal/logging"
	"github.com/aleheux-tc/bngblaster/timer"
)

// State is the adjacency liveness state.
type State int

const (
	// StateDown means no hello activity yet.
	StateDown State = iota
	// StateHelloActive means periodic hello requests are being
	// generated but no peer has been confirmed within the hold time.
	StateHelloActive
	// StateOperational means a peer hello was observed within the
	// current hold interval.
	StateOperational
)

func (s State) String() string {
	switch s {
	case StateDown:
		return "down"
	case StateHelloActive:
		return "hello-active"
	case StateOperational:
		return "operational"
	default:
		return "unknown"
	}
}

// Adjacency is the per-interface protocol relationship: it owns the
// hello schedule and tracks peer liveness via the hold timer. Exactly
// one instance owns it and exactly one interface is bound to it.
type Adjacency struct {
	instance *Instance
	iface    *core.Interface
	state    State

	helloTimer *timer.Timer
	holdTimer  *timer.Timer
}

// Instance returns the owning LDP instance.
func (a *Adjacency) Instance() *Instance { return a.instance }

// Interface returns the bound network interface.
func (a *Adjacency) Interface() *core.Interface { return a.iface }

// State returns the current adjacency state.
func (a *Adjacency) State() State { return a.state }

// helloJob runs on every hello timer firing. The adjacency never
// transmits directly: it only flags the interface, and the transmit
// scheduler consumes the flag on its own cadence. Unconsumed requests
// coalesce in the flag word.
func helloJob(t *timer.Timer) {
	adj := t.Data.(*Adjacency)
	adj.iface.RequestSend(core.SendLDPHello)
}

// PeerHelloReceived records a valid hello from the peer: the adjacency
// becomes operational and the hold timer restarts. This is the only
// path into StateOperational.
func (a *Adjacency) PeerHelloReceived() {
	if a.state != StateOperational {
		a.setState(StateOperational)
	}
	if a.holdTimer != nil {
		a.holdTimer.Stop()
	}
	a.holdTimer = a.instance.timers.ScheduleOnce("LDP Hold", a.instance.config.HoldTime, a, holdJob)
}

// holdJob fires when the hold interval passes without a refreshing peer
// hello. The adjacency drops back to hello-active: local hellos never
// stopped, only the peer evidence expired. Missed local transmissions
// are not retried here; the next periodic firing re-requests naturally.
func holdJob(t *timer.Timer) {
	adj := t.Data.(*Adjacency)
	adj.holdTimer = nil
	if adj.state == StateOperational {
		adj.setState(StateHelloActive)
	}
}

func (a *Adjacency) setState(s State) {
	if a.state == s {
		return
	}
	old := a.state
	a.state = s
	a.instance.log.Debug(context.Background(), "LDP adjacency state",
		logging.String("interface", a.iface.Name()),
		logging.Uint32("instance", a.instance.config.InstanceID),
		logging.String("old", old.String()),
		logging.String("new", s.String()))
	if a.instance.metrics != nil {
		a.instance.metrics.SetAdjacencyState(a.iface.Name(), a.instance.config.InstanceID, s)
	}
}
