// Package instance registers running tabpilot daemons in a shared
// directory so CLI invocations and other daemons can find them. Writes
// are guarded by a file lock since several daemons may start at once.
package instance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Instance describes one running daemon.
type Instance struct {
	ID        string    `json:"id"`
	PID       int       `json:"pid"`
	MCPPort   int       `json:"mcp_port"`
	BridgeURL string    `json:"bridge_url"`
	StartedAt time.Time `json:"started_at"`
	LastPing  time.Time `json:"last_ping"`
}

// Registry manages instance files in one directory.
type Registry struct {
	dir  string
	lock *flock.Flock
}

// NewRegistry creates the registry directory if needed.
func NewRegistry(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create instances directory: %w", err)
	}
	return &Registry{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}, nil
}

// DefaultDir returns the per-user instances directory.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tabpilot", "instances"), nil
}

func (r *Registry) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// Register writes the instance file, replacing any previous entry with
// the same ID.
func (r *Registry) Register(inst Instance) error {
	if inst.ID == "" {
		return fmt.Errorf("instance ID required")
	}
	inst.LastPing = time.Now()

	if err := r.lock.Lock(); err != nil {
		return fmt.Errorf("acquire instances lock: %w", err)
	}
	defer r.lock.Unlock()

	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return err
	}

	// Write-then-rename keeps readers from seeing partial files.
	tmp := r.path(inst.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path(inst.ID))
}

// Ping refreshes the instance's LastPing timestamp.
func (r *Registry) Ping(id string) error {
	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path(id))
	if err != nil {
		return err
	}
	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return err
	}
	inst.LastPing = time.Now()

	updated, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path(id), updated, 0644)
}

// Unregister removes the instance file.
func (r *Registry) Unregister(id string) error {
	if err := r.lock.Lock(); err != nil {
		return err
	}
	defer r.lock.Unlock()

	err := os.Remove(r.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// List returns all registered instances, skipping unreadable files.
func (r *Registry) List() ([]Instance, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}

	var instances []Instance
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			continue
		}
		var inst Instance
		if err := json.Unmarshal(data, &inst); err != nil {
			continue
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// CleanupStale removes instances that have not pinged within maxAge and
// returns how many were removed.
func (r *Registry) CleanupStale(maxAge time.Duration) (int, error) {
	instances, err := r.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, inst := range instances {
		if inst.LastPing.Before(cutoff) {
			if err := r.Unregister(inst.ID); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
