package core

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/aleheux-tc/bngblaster/internal/logging"
	"github.com/aleheux-tc/bngblaster/timer"
)

// LockManager is the OS-level advisory locking the registry needs: one
// named lock per interface, released on shutdown.
type LockManager interface {
	Acquire(name string) error
	Release(name string) error
}

// KernelResolver answers the two independent device queries performed
// once at registration for kernel-bound backends. Either may fail.
type KernelResolver interface {
	HardwareAddr(name string) (net.HardwareAddr, error)
	Index(name string) (int, error)
}

// MetricsRecorder receives interface counts and per-interface stats so
// the observability layer can drive gauges directly from the registry.
type MetricsRecorder interface {
	SetInterfaceCount(n int)
	RecordInterfaceStats(name string, stats Stats, rates RateStats)
}

// RegistryDeps are the collaborators a registry is built from. Passing
// them explicitly (no process-wide context) lets tests run multiple
// independent registries.
type RegistryDeps struct {
	Locks    LockManager
	Kernel   KernelResolver
	Timers   *timer.Engine
	Backends BackendFactory
	LAGs     *LAGTable
	Log      logging.Logger
	Metrics  MetricsRecorder // optional
}

// Registry owns the ordered collection of all registered interfaces for
// the process lifetime. Names are unique; iteration order is
// registration order (deterministic reporting, not a correctness
// property).
type Registry struct {
	deps RegistryDeps

	mu      sync.RWMutex
	byName  map[string]*Interface
	ordered []*Interface
}

// NewRegistry creates an empty registry. Locks, Kernel, Timers and
// Backends are required; LAGs defaults to an empty table and Log to the
// noop logger.
func NewRegistry(deps RegistryDeps) *Registry {
	if deps.LAGs == nil {
		deps.LAGs = NewLAGTable()
	}
	if deps.Log == nil {
		deps.Log = logging.Noop()
	}
	return &Registry{
		deps:   deps,
		byName: make(map[string]*Interface),
	}
}

// LAGs exposes the aggregation-group table so configuration can
// populate groups before the first Register call.
func (r *Registry) LAGs() *LAGTable { return r.deps.LAGs }

// Register creates, locks, and binds one interface from its link
// configuration, inserts it at the tail of the ordered collection, and
// arms its periodic rate-computation timer. Any failure aborts with the
// interface name and underlying cause attached; a lock taken before the
// failure is released again so the registry stays consistent.
func (r *Registry) Register(name string, cfg LinkConfig) (*Interface, error) {
	ctx := context.Background()
	log := logging.ForInterface(r.deps.Log, name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, fmt.Errorf("interface %s: %w", name, ErrDuplicateInterface)
	}

	mode := cfg.IOMode
	if mode == "" {
		mode = IOModePacketMmap
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("interface %s: %w: unknown io mode %q", name, ErrBackendInit, cfg.IOMode)
	}

	if err := r.deps.Locks.Acquire(name); err != nil {
		return nil, fmt.Errorf("interface %s: %w: %w", name, ErrLockConflict, err)
	}

	iface, err := r.bind(name, mode, cfg)
	if err != nil {
		// Fail-fast startup: give the lock back rather than leaving a
		// half-registered interface behind.
		if rerr := r.deps.Locks.Release(name); rerr != nil {
			log.Warn(ctx, "lock release after failed registration", logging.Err(rerr))
		}
		return nil, err
	}

	r.byName[name] = iface
	r.ordered = append(r.ordered, iface)
	if r.deps.Metrics != nil {
		r.deps.Metrics.SetInterfaceCount(len(r.ordered))
	}

	r.deps.Timers.SchedulePeriodic("Rate Computation", time.Second, iface, r.rateJob)

	log.Info(ctx, "added interface",
		logging.String("io_mode", string(mode)),
		logging.String("mac", iface.mac.String()),
		logging.Int("ifindex", iface.ifindex))
	return iface, nil
}

// bind resolves kernel info, aggregation membership, and the I/O
// backend for a new interface.
func (r *Registry) bind(name string, mode IOMode, cfg LinkConfig) (*Interface, error) {
	iface := &Interface{
		name:   name,
		config: cfg,
		mode:   mode,
	}

	if mode.KernelBound() {
		mac, err := r.deps.Kernel.HardwareAddr(name)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w: hardware address: %w", name, ErrKernelBind, err)
		}
		idx, err := r.deps.Kernel.Index(name)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w: kernel index: %w", name, ErrKernelBind, err)
		}
		iface.mac = mac
		iface.ifindex = idx
	}

	// A configured static MAC overrides whatever the kernel reported.
	if len(cfg.MAC) == 6 && !allZero(cfg.MAC) {
		iface.mac = cfg.MAC
	}

	if cfg.LAGGroup != "" {
		group := r.deps.LAGs.Get(cfg.LAGGroup)
		if group == nil {
			return nil, fmt.Errorf("interface %s: %w: %q", name, ErrUnknownLAGGroup, cfg.LAGGroup)
		}
		group.addMember(name)
		iface.lag = group
	}

	backend, err := r.deps.Backends(mode)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w: %w", name, ErrBackendInit, err)
	}
	if err := backend.Init(iface); err != nil {
		return nil, fmt.Errorf("interface %s: %w: %w", name, ErrBackendInit, err)
	}
	iface.backend = backend

	return iface, nil
}

// rateJob recomputes one interface's smoothed rates. Runs on the timer
// thread once per second per interface.
func (r *Registry) rateJob(t *timer.Timer) {
	iface := t.Data.(*Interface)
	rates := iface.computeRates()
	if r.deps.Metrics != nil {
		r.deps.Metrics.RecordInterfaceStats(iface.name, iface.Stats(), rates)
	}
}

// Get returns an interface by name, or nil.
func (r *Registry) Get(name string) *Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns the interfaces in registration order.
func (r *Registry) All() []*Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Interface, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len reports the number of registered interfaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// UnlockAll releases the lock file of every registered interface.
// Best-effort cleanup for process shutdown.
func (r *Registry) UnlockAll() {
	ctx := context.Background()
	for _, iface := range r.All() {
		if err := r.deps.Locks.Release(iface.name); err != nil {
			r.deps.Log.Warn(ctx, "interface unlock",
				logging.String("interface", iface.name), logging.Err(err))
		}
	}
}

// Shutdown closes every backend and releases every lock. Interfaces
// stay registered; the registry is only torn down with the process.
func (r *Registry) Shutdown() {
	ctx := context.Background()
	for _, iface := range r.All() {
		if iface.backend != nil {
			if err := iface.backend.Close(); err != nil {
				r.deps.Log.Warn(ctx, "backend close",
					logging.String("interface", iface.name), logging.Err(err))
			}
		}
	}
	r.UnlockAll()
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
