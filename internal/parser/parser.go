package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Group is one named, based block of error entries.
type Group struct {
	Name    string
	Base    uint32
	Label   string
	Class   string // optional scope for metadata table symbols
	File    string
	Line    int
	Entries []Entry
}

// Entry is one tag/message pair. Offset and Code are filled in by Assign
// when the group is closed.
type Entry struct {
	Tag     string
	Message string
	Line    int
	Offset  uint32
	Code    uint32
}

// Count returns the number of entries in the group.
func (g *Group) Count() int {
	return len(g.Entries)
}

// ErrMin is the lowest code of the group.
func (g *Group) ErrMin() uint32 {
	return g.Base
}

// ErrMax is Base+Count-1 in 32-bit arithmetic. An empty group wraps to
// Base-1.
func (g *Group) ErrMax() uint32 {
	return g.Base + uint32(g.Count()) - 1
}

// DefSymbol returns the macro-style symbol name_tag, case preserved.
func (g *Group) DefSymbol(tag string) string {
	return g.Name + "_" + tag
}

// UpperName is the prefix of enum-style symbols.
func (g *Group) UpperName() string {
	return strings.ToUpper(g.Name)
}

// EnumSymbol returns the enum-style symbol NAME_tag.
func (g *Group) EnumSymbol(tag string) string {
	return g.UpperName() + "_" + tag
}

// FileTable holds the groups found in one input file, in order.
type FileTable struct {
	File   string
	Groups []*Group
}

// ParseError is a fatal problem in an input file.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// Parser turns error-table text into groups.
type Parser struct {
	file  string
	open  *Group
	names map[string]int
	tags  map[string]int
}

// New creates a Parser for the named input. The name only appears in
// errors and in Group.File.
func New(file string) *Parser {
	return &Parser{
		file:  file,
		names: make(map[string]int),
	}
}

// Scan reads r line by line and calls fn for every group as soon as its
// close marker is reached. The first error stops the scan.
func (p *Parser) Scan(r io.Reader, fn func(*Group) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		g, err := p.feed(sc.Text(), lineNum)
		if err != nil {
			return err
		}
		if g == nil {
			continue
		}
		if err := fn(g); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", p.file, err)
	}

	if p.open != nil {
		return p.errorf(p.open.Line, "group %s: missing close marker", p.open.Name)
	}
	return nil
}

// feed consumes one line. It returns the finished group when line closes one.
func (p *Parser) feed(line string, lineNum int) (*Group, error) {
	switch Classify(line) {
	case LineIgnore:
		return nil, nil

	case LineBadHeader:
		return nil, p.errorf(lineNum, "malformed group header %q", strings.TrimSpace(line))

	case LineOpen:
		m := matchHeader(line)
		if p.open != nil {
			return nil, p.errorf(lineNum, "group %s opened while group %s is still open: missing close marker", m[0], p.open.Name)
		}
		if prev, dup := p.names[m[0]]; dup {
			return nil, p.errorf(lineNum, "group %s already defined at line %d", m[0], prev)
		}
		base, err := ResolveBase(m[1])
		if err != nil {
			return nil, p.errorf(lineNum, "group %s: %v", m[0], err)
		}
		p.names[m[0]] = lineNum
		p.tags = make(map[string]int)
		p.open = &Group{
			Name:  m[0],
			Base:  base,
			Label: m[2],
			Class: m[3],
			File:  p.file,
			Line:  lineNum,
		}
		return nil, nil

	case LineClose:
		if p.open == nil {
			return nil, p.errorf(lineNum, "close marker without open group")
		}
		g := p.open
		p.open = nil
		if err := Assign(g); err != nil {
			return nil, p.errorf(lineNum, "%v", err)
		}
		return g, nil

	default:
		if p.open == nil {
			return nil, p.errorf(lineNum, "entry outside of a group: %q", strings.TrimSpace(line))
		}
		m := matchEntry(line)
		if m == nil {
			return nil, p.errorf(lineNum, "malformed entry line %q", strings.TrimSpace(line))
		}
		if prev, dup := p.tags[m[0]]; dup {
			return nil, p.errorf(lineNum, "tag %s already defined in group %s at line %d", m[0], p.open.Name, prev)
		}
		p.tags[m[0]] = lineNum
		p.open.Entries = append(p.open.Entries, Entry{
			Tag:     m[0],
			Message: m[1],
			Line:    lineNum,
		})
		return nil, nil
	}
}

func (p *Parser) errorf(line int, format string, args ...any) error {
	return &ParseError{File: p.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Parse reads a whole input and returns its groups.
func Parse(file string, r io.Reader) (FileTable, error) {
	table := FileTable{File: file}
	err := New(file).Scan(r, func(g *Group) error {
		table.Groups = append(table.Groups, g)
		return nil
	})
	if err != nil {
		return FileTable{File: file}, err
	}
	return table, nil
}

// ParseFile opens and parses one input file.
func ParseFile(path string) (FileTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTable{File: path}, fmt.Errorf("opening input: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(path, f)
}
