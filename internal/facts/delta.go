package facts

import (
	"fmt"
	"strconv"
)

// Delta captures added and removed fact rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

// IsEmpty reports whether the snapshots had identical rows.
func (d Delta) IsEmpty() bool {
	return len(d.Added.Files)+len(d.Added.Groups)+len(d.Added.Entries)+
		len(d.Removed.Files)+len(d.Removed.Groups)+len(d.Removed.Entries) == 0
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Files = diffRows(from.Files, to.Files, func(r FileRow) string {
		return r.Path + "|" + strconv.Itoa(r.Groups)
	})
	out.Groups = diffRows(from.Groups, to.Groups, func(r GroupRow) string {
		return r.Name + "|" + int64Key(r.Base) + "|" + r.Label + "|" + r.Class + "|" + r.File + "|" + strconv.Itoa(r.Count)
	})
	out.Entries = diffRows(from.Entries, to.Entries, func(r EntryRow) string {
		return r.Group + "|" + r.Tag + "|" + int64Key(r.Code) + "|" + r.Message + "|" + r.File
	})

	return out
}

// diffRows returns the rows of to whose key does not occur in from. Line
// numbers stay out of the keys so moving a block around is not a change.
func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	diff := []T{}
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	return diff
}

func int64Key(v int64) string {
	return strconv.FormatInt(v, 10)
}

// ChangeKind classifies a stability break.
type ChangeKind string

const (
	ChangeRemoved    ChangeKind = "removed"
	ChangeRenumbered ChangeKind = "renumbered"
)

// Change is an existing error code that did not survive into the new
// snapshot unchanged.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Group   string     `json:"group"`
	Tag     string     `json:"tag"`
	File    string     `json:"file"`
	OldCode int64      `json:"old_code"`
	NewCode int64      `json:"new_code,omitempty"`
}

func (c Change) String() string {
	if c.Kind == ChangeRenumbered {
		return fmt.Sprintf("%s: %s_%s renumbered 0x%x -> 0x%x", c.File, c.Group, c.Tag, c.OldCode, c.NewCode)
	}
	return fmt.Sprintf("%s: %s_%s (0x%x) removed", c.File, c.Group, c.Tag, c.OldCode)
}

// CheckStable lists every entry of prev that is missing from next or has a
// different code there. New entries are not breaks.
func CheckStable(prev, next Tables) []Change {
	codes := make(map[string]int64, len(next.Entries))
	for _, e := range next.Entries {
		codes[e.Group+"\x00"+e.Tag] = e.Code
	}

	changes := []Change{}
	for _, e := range prev.Entries {
		code, ok := codes[e.Group+"\x00"+e.Tag]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeRemoved, Group: e.Group, Tag: e.Tag, File: e.File, OldCode: e.Code})
		case code != e.Code:
			changes = append(changes, Change{Kind: ChangeRenumbered, Group: e.Group, Tag: e.Tag, File: e.File, OldCode: e.Code, NewCode: code})
		}
	}
	return changes
}
