package facts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is bumped whenever a row type changes shape.
const SnapshotVersion = 1

// Snapshot is the on-disk form of a Tables value, as written by errgen-facts.
type Snapshot struct {
	Version int    `json:"version"`
	Tables  Tables `json:"tables"`
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Tables{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if snap.Version != SnapshotVersion {
		return Tables{}, fmt.Errorf("snapshot %s has version %d, want %d", path, snap.Version, SnapshotVersion)
	}
	normalize(&snap.Tables)
	return snap.Tables, nil
}

// SaveSnapshot writes tables atomically.
func SaveSnapshot(path string, tables Tables) error {
	data, err := json.MarshalIndent(Snapshot{Version: SnapshotVersion, Tables: tables}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("temp snapshot file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func normalize(t *Tables) {
	if t.Files == nil {
		t.Files = []FileRow{}
	}
	if t.Groups == nil {
		t.Groups = []GroupRow{}
	}
	if t.Entries == nil {
		t.Entries = []EntryRow{}
	}
}

// StabilityError is returned when previously published codes changed.
type StabilityError struct {
	Changes []Change
}

func (e *StabilityError) Error() string {
	lines := make([]string, 0, len(e.Changes))
	for _, c := range e.Changes {
		lines = append(lines, c.String())
	}
	return fmt.Sprintf("%d published code(s) changed:\n  %s", len(e.Changes), strings.Join(lines, "\n  "))
}
