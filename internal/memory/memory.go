// Package memory persists the last successful run time of each command
// identity between invocations.
//
// The state file is a JSON object keyed by command identity
// ("lastwatchedcommits AurelienLourot"), each value holding the six
// timestamp fields:
//
//	{
//	  "lastwatchedcommits AurelienLourot": {
//	    "YYYY": 2015, "MM": 7, "DD": 4, "hh": 0, "mm": 0, "ss": 0
//	  }
//	}
//
// The file is read once at start-up and rewritten as a whole at the end of a
// run. There is no locking: concurrent runs are last-writer-wins.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/blackwell-systems/gicowa/internal/timestamp"
)

// DefaultFilename is the state file name inside the user's home directory.
const DefaultFilename = ".gicowa"

var (
	// ErrCorruptStateFile is returned when the state file exists but cannot be parsed.
	ErrCorruptStateFile = errors.New("state file damaged")

	// ErrPersistenceWrite is returned when the state file cannot be written.
	ErrPersistenceWrite = errors.New("failed to write state file")
)

// DefaultPath returns ~/.gicowa.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, DefaultFilename), nil
}

// Memory maps command identities to the time they last completed.
type Memory struct {
	timestamps map[string]timestamp.Timestamp
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{timestamps: make(map[string]timestamp.Timestamp)}
}

// Load reads the state file at path. A missing file yields an empty Memory.
func Load(path string) (*Memory, error) {
	m := New()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &m.timestamps); err != nil {
		return nil, fmt.Errorf("%w? %s: %v", ErrCorruptStateFile, path, err)
	}
	if m.timestamps == nil {
		// the file held a JSON null
		m.timestamps = make(map[string]timestamp.Timestamp)
	}

	for key, ts := range m.timestamps {
		if !ts.Complete() {
			return nil, fmt.Errorf("%w? %s: entry %q is missing timestamp fields", ErrCorruptStateFile, path, key)
		}
	}

	return m, nil
}

// Get returns the recorded timestamp for key. The boolean is false when the
// identity has never completed.
func (m *Memory) Get(key string) (timestamp.Timestamp, bool) {
	ts, ok := m.timestamps[key]
	return ts, ok
}

// Set records ts for key in memory only.
func (m *Memory) Set(key string, ts timestamp.Timestamp) {
	m.timestamps[key] = ts
}

// Keys returns all recorded identities in sorted order.
func (m *Memory) Keys() []string {
	keys := make([]string, 0, len(m.timestamps))
	for k := range m.timestamps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of recorded identities.
func (m *Memory) Len() int {
	return len(m.timestamps)
}

// Save replaces the file at path with the current contents. The data is
// written to a temporary file in the same directory and renamed over path,
// so a failed save leaves the previous file intact.
func (m *Memory) Save(path string) error {
	data, err := json.MarshalIndent(m.timestamps, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPersistenceWrite, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrPersistenceWrite, path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %v", ErrPersistenceWrite, path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %v", ErrPersistenceWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %v", ErrPersistenceWrite, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w %s: %v", ErrPersistenceWrite, path, err)
	}

	return nil
}
