package facts

// FilterTablesByFiles returns a new Tables object containing only rows whose file
// or path is present in the provided file set.
func FilterTablesByFiles(tables Tables, files map[string]bool) Tables {
	out := emptyTables()
	if len(files) == 0 {
		return out
	}

	for _, row := range tables.Files {
		if files[row.Path] {
			out.Files = append(out.Files, row)
		}
	}
	for _, row := range tables.Groups {
		if files[row.File] {
			out.Groups = append(out.Groups, row)
		}
	}
	for _, row := range tables.Entries {
		if files[row.File] {
			out.Entries = append(out.Entries, row)
		}
	}
	return out
}

// FilterDeltaByFiles applies FilterTablesByFiles to both sides of a delta.
func FilterDeltaByFiles(delta Delta, files map[string]bool) Delta {
	return Delta{
		Added:   FilterTablesByFiles(delta.Added, files),
		Removed: FilterTablesByFiles(delta.Removed, files),
	}
}

// FileSet collects the paths of the file rows.
func FileSet(tables Tables) map[string]bool {
	set := make(map[string]bool, len(tables.Files))
	for _, row := range tables.Files {
		set[row.Path] = true
	}
	return set
}
