// Package config loads the blaster's JSON configuration: link
// definitions, link-aggregation groups, and per-protocol instance
// settings. Loading is strict where it matters for startup fidelity:
// duplicate names and dangling references fail here rather than half
// way through interface initialisation.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/aleheux-tc/bngblaster/core"
)

// Config is the fully validated configuration.
type Config struct {
	Interfaces Interfaces
	LDP        []LDPInstance
}

// Interfaces carries the interface-subsystem section.
type Interfaces struct {
	IOMode    core.IOMode // default mode for links that do not set one
	LockDir   string      // lock file directory, default /run/lock
	LockForce bool        // override live lock holders
	LAGGroups []string    // ordered group identities
	Links     []Link
}

// Link is one link definition in configuration order.
type Link struct {
	Name          string
	IOMode        core.IOMode
	MAC           net.HardwareAddr
	LAGGroup      string
	LDPInstanceID uint32
}

// LDPInstance is one LDP instance definition.
type LDPInstance struct {
	InstanceID    uint32
	LSRID         string
	HelloInterval time.Duration
	HoldTime      time.Duration
}

// LinkConfig converts a link definition into the registry's form,
// applying the section-wide default IO mode.
func (c *Config) LinkConfig(l Link) core.LinkConfig {
	mode := l.IOMode
	if mode == "" {
		mode = c.Interfaces.IOMode
	}
	return core.LinkConfig{
		Name:          l.Name,
		IOMode:        mode,
		MAC:           l.MAC,
		LAGGroup:      l.LAGGroup,
		LDPInstanceID: l.LDPInstanceID,
	}
}

// internal JSON shapes - unexported so the wire format can evolve
// independently of the validated Config.
type configJSON struct {
	Interfaces interfacesJSON    `json:"interfaces"`
	LDP        []ldpInstanceJSON `json:"ldp"`
}

type interfacesJSON struct {
	IOMode    string     `json:"io_mode"`
	LockDir   string     `json:"lock_dir"`
	LockForce bool       `json:"lock_force"`
	LAG       []lagJSON  `json:"lag"`
	Links     []linkJSON `json:"links"`
}

type lagJSON struct {
	Interface string `json:"interface"`
}

type linkJSON struct {
	Interface     string `json:"interface"`
	IOMode        string `json:"io_mode"`
	MAC           string `json:"mac"`
	LAGInterface  string `json:"lag_interface"`
	LDPInstanceID uint32 `json:"ldp_instance_id"`
}

type ldpInstanceJSON struct {
	InstanceID    uint32 `json:"instance_id"`
	LSRID         string `json:"lsr_id"`
	HelloInterval int    `json:"hello_interval"` // seconds
	HoldTime      int    `json:"hold_time"`      // seconds
}

// Load reads and validates a JSON configuration from r.
func Load(r io.Reader) (*Config, error) {
	var payload configJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	cfg := &Config{
		Interfaces: Interfaces{
			IOMode:    core.IOModePacketMmap,
			LockDir:   "/run/lock",
			LockForce: payload.Interfaces.LockForce,
		},
	}

	if payload.Interfaces.IOMode != "" {
		mode := core.IOMode(payload.Interfaces.IOMode)
		if !mode.Valid() {
			return nil, fmt.Errorf("interfaces: unknown io_mode %q", payload.Interfaces.IOMode)
		}
		cfg.Interfaces.IOMode = mode
	}
	if payload.Interfaces.LockDir != "" {
		cfg.Interfaces.LockDir = payload.Interfaces.LockDir
	}

	lagSeen := make(map[string]bool)
	for _, lag := range payload.Interfaces.LAG {
		if lag.Interface == "" {
			return nil, fmt.Errorf("lag: empty interface name")
		}
		if lagSeen[lag.Interface] {
			return nil, fmt.Errorf("lag: duplicate group %q", lag.Interface)
		}
		lagSeen[lag.Interface] = true
		cfg.Interfaces.LAGGroups = append(cfg.Interfaces.LAGGroups, lag.Interface)
	}

	instances := make(map[uint32]bool)
	for _, inst := range payload.LDP {
		if inst.InstanceID == 0 {
			return nil, fmt.Errorf("ldp: instance_id must be set")
		}
		if instances[inst.InstanceID] {
			return nil, fmt.Errorf("ldp: duplicate instance_id %d", inst.InstanceID)
		}
		instances[inst.InstanceID] = true
		cfg.LDP = append(cfg.LDP, LDPInstance{
			InstanceID:    inst.InstanceID,
			LSRID:         inst.LSRID,
			HelloInterval: time.Duration(inst.HelloInterval) * time.Second,
			HoldTime:      time.Duration(inst.HoldTime) * time.Second,
		})
	}

	linkSeen := make(map[string]bool)
	for _, link := range payload.Interfaces.Links {
		if link.Interface == "" {
			return nil, fmt.Errorf("links: empty interface name")
		}
		if linkSeen[link.Interface] {
			return nil, fmt.Errorf("links: duplicate link configuration %q", link.Interface)
		}
		linkSeen[link.Interface] = true

		out := Link{
			Name:          link.Interface,
			LAGGroup:      link.LAGInterface,
			LDPInstanceID: link.LDPInstanceID,
		}
		if link.IOMode != "" {
			mode := core.IOMode(link.IOMode)
			if !mode.Valid() {
				return nil, fmt.Errorf("link %s: unknown io_mode %q", link.Interface, link.IOMode)
			}
			out.IOMode = mode
		}
		if link.MAC != "" {
			mac, err := net.ParseMAC(link.MAC)
			if err != nil {
				return nil, fmt.Errorf("link %s: %w", link.Interface, err)
			}
			out.MAC = mac
		}
		if link.LAGInterface != "" && !lagSeen[link.LAGInterface] {
			return nil, fmt.Errorf("link %s: %w: %q", link.Interface, core.ErrUnknownLAGGroup, link.LAGInterface)
		}
		if link.LDPInstanceID != 0 && !instances[link.LDPInstanceID] {
			return nil, fmt.Errorf("link %s: %w: ldp instance %d", link.Interface, core.ErrUnknownAdjacencyTarget, link.LDPInstanceID)
		}
		cfg.Interfaces.Links = append(cfg.Interfaces.Links, out)
	}

	return cfg, nil
}

// LoadFile loads a configuration from a file path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open configuration %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
