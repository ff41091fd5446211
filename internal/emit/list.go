package emit

import (
	"fmt"
	"io"

	"github.com/robert-at-pretension-io/errgen/internal/parser"
)

// List writes one "name_tag = seq" line per entry. The sequence starts at 1
// and keeps growing across every group given to the same List.
type List struct {
	w   io.Writer
	seq int
}

// NewList returns a List writing to w.
func NewList(w io.Writer) *List {
	return &List{w: w}
}

// Emit appends every entry of g.
func (l *List) Emit(g *parser.Group) error {
	for _, e := range g.Entries {
		l.seq++
		if _, err := fmt.Fprintf(l.w, "%s = %d\n", g.DefSymbol(e.Tag), l.seq); err != nil {
			return err
		}
	}
	return nil
}

// Seq returns the last sequence number written.
func (l *List) Seq() int {
	return l.seq
}
