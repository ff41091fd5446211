package facts

import (
	"sort"

	"github.com/robert-at-pretension-io/errgen/internal/parser"
)

// Tables is the relational fact model of a run: one flat slice per relation.
// It is what the contract, the lint policy and errgen-facts consume.
type Tables struct {
	Files   []FileRow  `json:"files"`
	Groups  []GroupRow `json:"groups"`
	Entries []EntryRow `json:"entries"`
}

type FileRow struct {
	Path   string `json:"path"`
	Groups int    `json:"groups"`
}

// GroupRow bounds are widened to int64 so an empty group at base 0 reports
// errmax = -1 instead of wrapping.
type GroupRow struct {
	Name   string `json:"name"`
	Base   int64  `json:"base"`
	Label  string `json:"label"`
	Class  string `json:"class"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Count  int    `json:"count"`
	ErrMin int64  `json:"errmin"`
	ErrMax int64  `json:"errmax"`
}

type EntryRow struct {
	Group   string `json:"group"`
	Tag     string `json:"tag"`
	Offset  int    `json:"offset"`
	Code    int64  `json:"code"`
	Message string `json:"message"`
	File    string `json:"file"`
	Line    int    `json:"line"`
}

// BuildTables flattens parsed tables into relations. Group and entry order
// follow the input; files are sorted by path.
func BuildTables(tables []parser.FileTable) Tables {
	out := emptyTables()

	seen := make(map[string]int)
	for _, ft := range tables {
		idx, ok := seen[ft.File]
		if !ok {
			idx = len(out.Files)
			seen[ft.File] = idx
			out.Files = append(out.Files, FileRow{Path: ft.File})
		}
		out.Files[idx].Groups += len(ft.Groups)

		for _, g := range ft.Groups {
			base := int64(g.Base)
			count := g.Count()
			out.Groups = append(out.Groups, GroupRow{
				Name:   g.Name,
				Base:   base,
				Label:  g.Label,
				Class:  g.Class,
				File:   ft.File,
				Line:   g.Line,
				Count:  count,
				ErrMin: base,
				ErrMax: base + int64(count) - 1,
			})
			for _, e := range g.Entries {
				out.Entries = append(out.Entries, EntryRow{
					Group:   g.Name,
					Tag:     e.Tag,
					Offset:  int(e.Offset),
					Code:    int64(e.Code),
					Message: e.Message,
					File:    ft.File,
					Line:    e.Line,
				})
			}
		}
	}

	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Path < out.Files[j].Path })
	return out
}

func emptyTables() Tables {
	return Tables{
		Files:   []FileRow{},
		Groups:  []GroupRow{},
		Entries: []EntryRow{},
	}
}
