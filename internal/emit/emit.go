// Package emit renders error-table groups into generated source units.
//
// Five kinds of unit exist (message array, metadata table, reversed
// metadata table, enum, macro definitions). Each kind is rendered once per
// group by a Target, which fixes the output language and file extension.
// The list emitter is a separate, exclusive mode (see List).
package emit

import (
	"fmt"
	"go/token"
	"strings"
	"time"
	"unicode"

	"github.com/robert-at-pretension-io/errgen/internal/parser"
)

// Kind selects one category of generated unit.
type Kind int

const (
	_ Kind = iota
	KindMessages
	KindInfo
	KindInfoBackward
	KindEnum
	KindDefines
)

// Kinds lists every unit kind in emission order.
var Kinds = []Kind{KindMessages, KindInfo, KindInfoBackward, KindEnum, KindDefines}

var kindSuffixes = map[Kind]string{
	KindMessages:     "errmsg",
	KindInfo:         "einfo",
	KindInfoBackward: "einfo-bakw",
	KindEnum:         "error-enum",
	KindDefines:      "error-def",
}

// String returns the file-name infix of the kind.
func (k Kind) String() string {
	if s, ok := kindSuffixes[k]; ok {
		return s
	}
	return fmt.Sprintf("invalid(%d)", int(k))
}

// Sentinel terminates every message array.
const Sentinel = "dummy error code"

// Unit is everything a target needs to render one output file.
type Unit struct {
	Kind   Kind
	Source string    // input file the group came from
	Stamp  time.Time // generation time shown in the banner
	File   string    // output file base name
	Group  *parser.Group
}

// Target renders units for one output language.
type Target interface {
	Name() string
	Ext() string
	Render(u Unit) ([]byte, error)
}

// FileName returns <name>-<kind>-gen<ext>.
func FileName(k Kind, g *parser.Group, ext string) string {
	return g.Name + "-" + k.String() + "-gen" + ext
}

// GuardToken derives an include guard from an output file name: upper case,
// non-alphanumerics dropped.
func GuardToken(fileName string) string {
	var b strings.Builder
	for _, r := range fileName {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	guard := b.String()
	if guard == "" || unicode.IsDigit(rune(guard[0])) {
		guard = "_" + guard
	}
	return guard
}

// InfoSymbol is the symbol used by metadata tables: Class::tag when the group
// has a class qualifier, name_tag otherwise.
func InfoSymbol(g *parser.Group, tag string) string {
	if g.Class != "" {
		return g.Class + "::" + tag
	}
	return g.DefSymbol(tag)
}

// Options tune target construction.
type Options struct {
	// GoPackage is the package clause of Go output.
	GoPackage string
}

// TargetFor returns the target for lang ("c" or "go").
func TargetFor(lang string, opts Options) (Target, error) {
	switch strings.ToLower(lang) {
	case "", "c":
		return cTarget{}, nil
	case "go":
		pkg := opts.GoPackage
		if pkg == "" {
			pkg = DefaultGoPackage
		}
		if !parser.IsIdent(pkg) || token.IsKeyword(pkg) {
			return nil, fmt.Errorf("invalid Go package name %q", pkg)
		}
		return goTarget{pkg: pkg}, nil
	default:
		return nil, fmt.Errorf("unknown target language %q", lang)
	}
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%x", v)
}

// commentSafe keeps free text from closing a block comment.
func commentSafe(s string) string {
	return strings.ReplaceAll(s, "*/", "* /")
}
