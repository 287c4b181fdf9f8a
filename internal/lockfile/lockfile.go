// Package lockfile implements the advisory per-interface lock files that
// keep two blaster processes from driving the same physical device. One
// file per interface name holds the textual PID of the owner. The lock
// is advisory only: it guards against accidental double-binding by this
// tool, not against unrelated processes using the device.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/aleheux-tc/bngblaster/internal/logging"
)

// DefaultDir is where lock files live unless configured otherwise.
const DefaultDir = "/run/lock"

// The file name pattern is kept compatible with the original C blaster
// so both builds exclude each other on the same host.
const filePattern = "bngblaster_%s.lock"

// ErrConflict is returned when the lock file belongs to a live process
// and the force override is not set.
var ErrConflict = errors.New("interface locked by live process")

// Manager acquires and releases interface lock files. It remembers what
// it acquired so a clean shutdown can release everything.
type Manager struct {
	dir   string
	force bool
	pid   int
	log   logging.Logger

	// alive reports whether a PID refers to a live process. Tests
	// replace it to simulate competing holders.
	alive func(pid int) bool

	mu   sync.Mutex
	held map[string]string // interface name -> lock file path
}

// NewManager creates a lock manager rooted at dir. With force set,
// conflicts with live holders are overridden instead of failing.
func NewManager(dir string, force bool, log logging.Logger) *Manager {
	if dir == "" {
		dir = DefaultDir
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Manager{
		dir:   dir,
		force: force,
		pid:   os.Getpid(),
		log:   log,
		alive: pidAlive,
		held:  make(map[string]string),
	}
}

// Path returns the lock file path for an interface name.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, fmt.Sprintf(filePattern, name))
}

// Acquire takes the lock for an interface name. An existing file with a
// stale PID or unparsable content is logged and overwritten; a file
// owned by a live process fails with ErrConflict unless force is set.
func (m *Manager) Acquire(name string) error {
	ctx := context.Background()
	path := m.Path(name)

	if raw, err := os.ReadFile(path); err == nil {
		holder, perr := strconv.Atoi(strings.TrimSpace(string(raw)))
		switch {
		case perr != nil || holder <= 1:
			m.log.Warn(ctx, "invalid interface lock file",
				logging.String("interface", name),
				logging.String("path", path))
		case holder == m.pid:
			// Our own file, nothing to contest.
		case m.alive(holder):
			m.log.Error(ctx, "interface in use",
				logging.String("interface", name),
				logging.Int("pid", holder),
				logging.String("path", path))
			if !m.force {
				return fmt.Errorf("%w: %s held by pid %d", ErrConflict, path, holder)
			}
		default:
			m.log.Warn(ctx, "removing stale interface lock",
				logging.String("interface", name),
				logging.Int("pid", holder),
				logging.String("path", path))
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read lock file %s: %w", path, err)
	}

	if err := writeAtomic(path, strconv.Itoa(m.pid)); err != nil {
		return fmt.Errorf("write lock file %s: %w", path, err)
	}

	m.mu.Lock()
	m.held[name] = path
	m.mu.Unlock()
	return nil
}

// Release drops the lock for a single interface name. Releasing a lock
// that was never acquired is a no-op.
func (m *Manager) Release(name string) error {
	m.mu.Lock()
	path, ok := m.held[name]
	delete(m.held, name)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file %s: %w", path, err)
	}
	return nil
}

// ReleaseAll removes every lock file this manager acquired. Best-effort:
// it continues past individual failures and returns the first error.
func (m *Manager) ReleaseAll() error {
	m.mu.Lock()
	names := make([]string, 0, len(m.held))
	for name := range m.held {
		names = append(names, name)
	}
	m.mu.Unlock()

	var first error
	for _, name := range names {
		if err := m.Release(name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Held reports whether the manager currently holds the lock for name.
func (m *Manager) Held(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[name]
	return ok
}

func writeAtomic(path, content string) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func pidAlive(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	if err != nil {
		// Mirror the /proc stat check of the original: only a clean
		// "no such process" counts as dead.
		return true
	}
	return ok
}
