package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aleheux-tc/bngblaster/core"
)

func TestLoadFullConfiguration(t *testing.T) {
	doc := `{
	  "interfaces": {
	    "io_mode": "raw",
	    "lock_dir": "/tmp/locks",
	    "lock_force": true,
	    "lag": [{"interface": "lag1"}],
	    "links": [
	      {"interface": "eth0", "ldp_instance_id": 1},
	      {"interface": "eth1", "io_mode": "dpdk", "mac": "02:00:00:00:00:aa", "lag_interface": "lag1"}
	    ]
	  },
	  "ldp": [
	    {"instance_id": 1, "lsr_id": "10.0.0.1", "hello_interval": 5, "hold_time": 15}
	  ]
	}`

	cfg, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Interfaces.IOMode != core.IOModeRawSocket {
		t.Errorf("default io mode = %s, want raw", cfg.Interfaces.IOMode)
	}
	if cfg.Interfaces.LockDir != "/tmp/locks" || !cfg.Interfaces.LockForce {
		t.Errorf("lock options = %q force=%v, want /tmp/locks force=true",
			cfg.Interfaces.LockDir, cfg.Interfaces.LockForce)
	}
	if len(cfg.Interfaces.LAGGroups) != 1 || cfg.Interfaces.LAGGroups[0] != "lag1" {
		t.Errorf("lag groups = %v, want [lag1]", cfg.Interfaces.LAGGroups)
	}
	if len(cfg.Interfaces.Links) != 2 {
		t.Fatalf("links = %d, want 2", len(cfg.Interfaces.Links))
	}
	if len(cfg.LDP) != 1 || cfg.LDP[0].HelloInterval != 5*time.Second || cfg.LDP[0].HoldTime != 15*time.Second {
		t.Fatalf("ldp instances = %+v, want one with 5s/15s timers", cfg.LDP)
	}

	// Link conversion applies the section default mode.
	lc := cfg.LinkConfig(cfg.Interfaces.Links[0])
	if lc.IOMode != core.IOModeRawSocket {
		t.Errorf("eth0 effective mode = %s, want section default raw", lc.IOMode)
	}
	lc = cfg.LinkConfig(cfg.Interfaces.Links[1])
	if lc.IOMode != core.IOModeDPDK {
		t.Errorf("eth1 effective mode = %s, want link override dpdk", lc.IOMode)
	}
	if lc.MAC.String() != "02:00:00:00:00:aa" {
		t.Errorf("eth1 mac = %s, want 02:00:00:00:00:aa", lc.MAC)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(`{"interfaces": {"links": [{"interface": "eth0"}]}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interfaces.IOMode != core.IOModePacketMmap {
		t.Errorf("default io mode = %s, want packet_mmap", cfg.Interfaces.IOMode)
	}
	if cfg.Interfaces.LockDir != "/run/lock" {
		t.Errorf("default lock dir = %q, want /run/lock", cfg.Interfaces.LockDir)
	}
}

func TestLoadRejectsDuplicateLinks(t *testing.T) {
	doc := `{"interfaces": {"links": [
	  {"interface": "eth0"}, {"interface": "eth0"}
	]}}`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("duplicate link configuration accepted")
	}
}

func TestLoadRejectsUnknownLAGReference(t *testing.T) {
	doc := `{"interfaces": {"links": [{"interface": "eth0", "lag_interface": "lag9"}]}}`
	_, err := Load(strings.NewReader(doc))
	if !errors.Is(err, core.ErrUnknownLAGGroup) {
		t.Fatalf("Load = %v, want ErrUnknownLAGGroup", err)
	}
}

func TestLoadRejectsDanglingLDPReference(t *testing.T) {
	doc := `{"interfaces": {"links": [{"interface": "eth0", "ldp_instance_id": 9}]}}`
	_, err := Load(strings.NewReader(doc))
	if !errors.Is(err, core.ErrUnknownAdjacencyTarget) {
		t.Fatalf("Load = %v, want ErrUnknownAdjacencyTarget", err)
	}
}

func TestLoadRejectsBadMAC(t *testing.T) {
	doc := `{"interfaces": {"links": [{"interface": "eth0", "mac": "zz:zz"}]}}`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("invalid MAC accepted")
	}
}

func TestLoadRejectsUnknownIOMode(t *testing.T) {
	doc := `{"interfaces": {"io_mode": "xdp"}}`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("unknown io_mode accepted")
	}
}

func TestLoadRejectsDuplicateLDPInstances(t *testing.T) {
	doc := `{"ldp": [{"instance_id": 1}, {"instance_id": 1}]}`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("duplicate ldp instance accepted")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	doc := `{"interfacez": {}}`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("unknown top-level field accepted")
	}
}
