package facts

import "testing"

func TestFilterTablesByFiles(t *testing.T) {
	tables := Tables{
		Files: []FileRow{
			{Path: "a.et"},
			{Path: "b.et"},
		},
		Groups: []GroupRow{
			{Name: "a", File: "a.et"},
			{Name: "b", File: "b.et"},
		},
		Entries: []EntryRow{
			{Group: "a", Tag: "X", File: "a.et"},
			{Group: "b", Tag: "Y", File: "b.et"},
		},
	}

	files := map[string]bool{"a.et": true}
	filtered := FilterTablesByFiles(tables, files)

	if len(filtered.Files) != 1 || filtered.Files[0].Path != "a.et" {
		t.Fatalf("expected only a.et file row, got %#v", filtered.Files)
	}
	if len(filtered.Groups) != 1 || filtered.Groups[0].File != "a.et" {
		t.Fatalf("expected only a.et group rows, got %#v", filtered.Groups)
	}
	if len(filtered.Entries) != 1 || filtered.Entries[0].File != "a.et" {
		t.Fatalf("expected only a.et entry rows, got %#v", filtered.Entries)
	}

	set := FileSet(tables)
	if !set["a.et"] || !set["b.et"] || len(set) != 2 {
		t.Fatalf("unexpected file set %v", set)
	}
}

func TestFilterDeltaByFilesEmpty(t *testing.T) {
	delta := Delta{
		Added: Tables{
			Files: []FileRow{{Path: "a.et"}},
		},
		Removed: Tables{
			Files: []FileRow{{Path: "b.et"}},
		},
	}

	filtered := FilterDeltaByFiles(delta, map[string]bool{})
	if len(filtered.Added.Files) != 0 || len(filtered.Removed.Files) != 0 {
		t.Fatalf("expected empty delta, got %#v", filtered)
	}
}
