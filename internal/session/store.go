package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrNoSession is returned by Load when no snapshot file exists on disk.
var ErrNoSession = errors.New("no active recording")

// Store persists the Snapshot of the active recording.
type Store interface {
	Save(s *Snapshot) error
	Load() (*Snapshot, error) // returns ErrNoSession if none exists
	Delete() error
}

// diskStore is the concrete Store that writes to the XDG data directory.
type diskStore struct {
	path string // full path to session.json
}

// NewStore returns a Store backed by the XDG data directory.
// Path: $XDG_DATA_HOME/screenrec/session.json or ~/.local/share/screenrec/session.json
func NewStore() (Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: filepath.Join(dir, "session.json")}, nil
}

// DataDir returns the screenrec-specific XDG data directory.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "screenrec"), nil
}

// Save marshals s to JSON and writes it atomically via a temp file + os.Rename.
func (d *diskStore) Save(s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to persist recording state: %w", err)
	}

	// Write to a temp file in the same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(d.path), "session-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist recording state: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist recording state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist recording state: %w", err)
	}

	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist recording state: %w", err)
	}
	return nil
}

// Load reads and unmarshals the snapshot file.
// Returns ErrNoSession if the file does not exist.
func (d *diskStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read recording state: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse recording state: %w", err)
	}
	return &s, nil
}

// Delete removes the snapshot file from disk.
func (d *diskStore) Delete() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete recording state: %w", err)
	}
	return nil
}

// LoadLive loads the snapshot and checks that its owning process still runs.
// A snapshot left behind by a crashed process is deleted and reported as
// ErrNoSession.
func LoadLive(store Store) (*Snapshot, error) {
	s, err := store.Load()
	if err != nil {
		return nil, err
	}
	if s.PID == os.Getpid() || processAlive(s.PID) {
		return s, nil
	}
	if err := store.Delete(); err != nil {
		return nil, err
	}
	return nil, ErrNoSession
}

// processAlive is swapped out in tests.
var processAlive = func(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}
