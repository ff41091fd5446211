package facts

import "testing"

func TestComputeDeltaAddsAndRemoves(t *testing.T) {
	prev := Tables{
		Groups: []GroupRow{
			{Name: "io", Base: 0x100, File: "f.et", Count: 1, Line: 1},
		},
		Entries: []EntryRow{
			{Group: "io", Tag: "EIO", Code: 0x100, File: "f.et", Line: 2},
		},
	}
	next := Tables{
		Groups: []GroupRow{
			{Name: "io", Base: 0x100, File: "f.et", Count: 2, Line: 5},
		},
		Entries: []EntryRow{
			{Group: "io", Tag: "EIO", Code: 0x100, File: "f.et", Line: 6},
			{Group: "io", Tag: "ENOSPC", Code: 0x101, File: "f.et", Line: 7},
		},
	}

	delta := ComputeDelta(prev, next)

	if len(delta.Added.Entries) != 1 || delta.Added.Entries[0].Tag != "ENOSPC" {
		t.Fatalf("expected ENOSPC added, got %+v", delta.Added.Entries)
	}
	if len(delta.Removed.Entries) != 0 {
		t.Fatalf("moved entry must not count as removed, got %+v", delta.Removed.Entries)
	}
	if len(delta.Added.Groups) != 1 || len(delta.Removed.Groups) != 1 {
		t.Fatalf("expected group row replaced, got %+v", delta)
	}
	if delta.IsEmpty() {
		t.Fatalf("expected non-empty delta")
	}
	if !ComputeDelta(next, next).IsEmpty() {
		t.Fatalf("expected empty delta for identical snapshots")
	}
}

func TestCheckStable(t *testing.T) {
	prev := Tables{Entries: []EntryRow{
		{Group: "io", Tag: "EIO", Code: 0x100, File: "f.et"},
		{Group: "io", Tag: "EGONE", Code: 0x101, File: "f.et"},
		{Group: "io", Tag: "EMOVED", Code: 0x102, File: "f.et"},
	}}
	next := Tables{Entries: []EntryRow{
		{Group: "io", Tag: "EIO", Code: 0x100, File: "f.et"},
		{Group: "io", Tag: "EMOVED", Code: 0x101, File: "f.et"},
		{Group: "io", Tag: "ENEW", Code: 0x102, File: "f.et"},
	}}

	changes := CheckStable(prev, next)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %+v", changes)
	}
	if changes[0].Kind != ChangeRemoved || changes[0].Tag != "EGONE" {
		t.Fatalf("expected EGONE removed, got %+v", changes[0])
	}
	if changes[1].Kind != ChangeRenumbered || changes[1].OldCode != 0x102 || changes[1].NewCode != 0x101 {
		t.Fatalf("expected EMOVED renumbered, got %+v", changes[1])
	}
	if got := changes[1].String(); got != "f.et: io_EMOVED renumbered 0x102 -> 0x101" {
		t.Fatalf("unexpected change text %q", got)
	}

	if len(CheckStable(prev, prev)) != 0 {
		t.Fatalf("expected identical snapshots to be stable")
	}
}
