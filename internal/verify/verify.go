// Package verify parses generated files with tree-sitter and rejects any
// that do not come out as a clean syntax tree.
package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
)

// Problem is one ERROR or MISSING node.
type Problem struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Kind   string `json:"kind"` // "error" or "missing"
	Text   string `json:"text"`
}

// Error reports a generated file that did not parse cleanly.
type Error struct {
	File     string
	Problems []Problem
}

func (e *Error) Error() string {
	p := e.Problems[0]
	msg := fmt.Sprintf("%s:%d:%d: generated file does not parse (%s", e.File, p.Line, p.Column, p.Kind)
	if p.Text != "" {
		msg += " near " + fmt.Sprintf("%q", p.Text)
	}
	if n := len(e.Problems) - 1; n > 0 {
		msg += fmt.Sprintf(", %d more", n)
	}
	return msg + ")"
}

// Checker holds one tree-sitter parser per file extension. Headers go
// through the C++ grammar since metadata tables may use Class::tag.
type Checker struct {
	parsers map[string]*sitter.Parser
}

// New creates a Checker for .h and .go files.
func New() *Checker {
	c := &Checker{parsers: make(map[string]*sitter.Parser)}
	c.register(".h", cpp.GetLanguage())
	c.register(".go", golang.GetLanguage())
	return c
}

func (c *Checker) register(ext string, lang *sitter.Language) {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	c.parsers[ext] = p
}

// Close releases the parsers.
func (c *Checker) Close() {
	for ext, p := range c.parsers {
		p.Close()
		delete(c.parsers, ext)
	}
}

// Check parses content with the grammar picked by the extension of name.
func (c *Checker) Check(ctx context.Context, name string, content []byte) error {
	p, ok := c.parsers[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return fmt.Errorf("verify %s: no grammar for %q", name, filepath.Ext(name))
	}

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	var problems []Problem
	collect(root, content, &problems)
	if len(problems) == 0 {
		problems = append(problems, Problem{Line: 1, Column: 1, Kind: "error"})
	}
	return &Error{File: name, Problems: problems}
}

// collect walks the subtrees that contain errors.
func collect(node *sitter.Node, source []byte, out *[]Problem) {
	if node == nil {
		return
	}

	switch {
	case node.IsMissing():
		*out = append(*out, problemAt(node, "missing", node.Type()))
		return
	case node.Type() == "ERROR":
		*out = append(*out, problemAt(node, "error", snippet(node.Content(source))))
		return
	}

	if !node.HasError() {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), source, out)
	}
}

func problemAt(node *sitter.Node, kind, text string) Problem {
	start := node.StartPoint()
	return Problem{
		Line:   int(start.Row) + 1,
		Column: int(start.Column) + 1,
		Kind:   kind,
		Text:   text,
	}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
