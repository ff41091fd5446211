package parser

import (
	"fmt"
	"math"
)

// Assign numbers the entries of g in input order. Offsets start at 0 and
// every code is Base+Offset. It fails when a code does not fit in 32 bits.
func Assign(g *Group) error {
	for i := range g.Entries {
		code := uint64(g.Base) + uint64(i)
		if code > math.MaxUint32 {
			return fmt.Errorf("code for %s_%s overflows 32 bits (base %#x, offset %d)",
				g.Name, g.Entries[i].Tag, g.Base, i)
		}
		g.Entries[i].Offset = uint32(i)
		g.Entries[i].Code = uint32(code)
	}
	return nil
}
