package facts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "facts.json")
	want := Tables{
		Files:   []FileRow{{Path: "a.et", Groups: 1}},
		Groups:  []GroupRow{{Name: "io", Base: 0x100, File: "a.et", Line: 1, Count: 1, ErrMin: 0x100, ErrMax: 0x100}},
		Entries: []EntryRow{{Group: "io", Tag: "EIO", Code: 0x100, File: "a.et", Line: 2}},
	}
	if err := SaveSnapshot(path, want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !ComputeDelta(want, got).IsEmpty() {
		t.Fatalf("snapshot changed on round trip: %+v", got)
	}
}

func TestLoadSnapshotRejectsOtherVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "tables": {}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Fatalf("expected version mismatch error")
	}
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "none.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestStabilityErrorLists(t *testing.T) {
	err := &StabilityError{Changes: []Change{
		{Kind: ChangeRemoved, Group: "io", Tag: "EIO", File: "a.et", OldCode: 0x100},
	}}
	if !strings.Contains(err.Error(), "a.et: io_EIO (0x100) removed") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
