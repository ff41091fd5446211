package emit

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/tools/imports"

	"github.com/robert-at-pretension-io/errgen/internal/parser"
)

// DefaultGoPackage is the package clause used when none is configured.
const DefaultGoPackage = "errtab"

// goTarget renders Go source. All units of a run share one package.
type goTarget struct {
	pkg string
}

func (goTarget) Name() string { return "go" }

func (goTarget) Ext() string { return ".go" }

func (t goTarget) Render(u Unit) ([]byte, error) {
	var b bytes.Buffer
	g := u.Group

	fmt.Fprintf(&b, "// Code generated by errgen from %s on %s. DO NOT EDIT.\n\n",
		u.Source, u.Stamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "package %s\n\n", t.pkg)

	switch u.Kind {
	case KindMessages:
		fmt.Fprintf(&b, "// %s_MSGCNT is the number of %s messages, sentinel excluded.\n", g.UpperName(), g.Name)
		fmt.Fprintf(&b, "const %s_MSGCNT = %d\n\n", g.UpperName(), g.Count())
		fmt.Fprintf(&b, "// %s_ERRMSG holds the %s messages indexed by offset.\n", g.UpperName(), g.Name)
		fmt.Fprintf(&b, "var %s_ERRMSG = [%s_MSGCNT + 1]string{\n", g.UpperName(), g.UpperName())
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "%s, // %s\n", strconv.Quote(e.Message), g.EnumSymbol(e.Tag))
		}
		fmt.Fprintf(&b, "%s,\n}\n", strconv.Quote(Sentinel))

	case KindInfo, KindInfoBackward:
		array := g.UpperName() + "_EINFO"
		size := g.UpperName() + "_ERRCNT"
		if u.Kind == KindInfoBackward {
			array += "_BAKW"
			size = "..."
		} else {
			fmt.Fprintf(&b, "// %s_ERRCNT is the length of %s_EINFO, terminator included.\n", g.UpperName(), g.UpperName())
			fmt.Fprintf(&b, "const %s_ERRCNT = %d\n\n", g.UpperName(), g.Count()+1)
		}
		fmt.Fprintf(&b, "var %s = [%s]struct {\nCode uint32\nName string\nText string\n}{\n", array, size)
		for _, e := range g.Entries {
			sym := goInfoSymbol(u, e.Tag)
			text := e.Message
			if u.Kind == KindInfoBackward {
				text = sym
			}
			fmt.Fprintf(&b, "{%s, %s, %s},\n", hex(e.Code), strconv.Quote(sym), strconv.Quote(text))
		}
		b.WriteString("{},\n}\n")

	case KindEnum:
		b.WriteString("const (\n")
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "%s = %s\n", g.EnumSymbol(e.Tag), hex(e.Code))
		}
		fmt.Fprintf(&b, "%s_ERRMIN = %s\n", g.UpperName(), hex(g.ErrMin()))
		fmt.Fprintf(&b, "%s_ERRMAX = %s\n", g.UpperName(), hex(g.ErrMax()))
		b.WriteString(")\n")

	case KindDefines:
		b.WriteString("const (\n")
		for _, e := range g.Entries {
			fmt.Fprintf(&b, "%s = %s\n", g.DefSymbol(e.Tag), hex(e.Code))
		}
		fmt.Fprintf(&b, "%s_ERRMIN = %s\n", g.Name, hex(g.ErrMin()))
		fmt.Fprintf(&b, "%s_ERRMAX = %s\n", g.Name, hex(g.ErrMax()))
		b.WriteString(")\n")

	default:
		return nil, fmt.Errorf("go target: unsupported kind %v", u.Kind)
	}

	out, err := imports.Process(u.File, b.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("formatting %s: %w", u.File, err)
	}
	return out, nil
}

// Decls lists the package-level identifiers the Go unit of kind k declares
// for g. Every Go unit of a run shares one package, so these must not
// repeat. The C enum and defines units declare the same names.
func Decls(k Kind, g *parser.Group) []string {
	up := g.UpperName()
	switch k {
	case KindMessages:
		return []string{up + "_MSGCNT", up + "_ERRMSG"}
	case KindInfo:
		return []string{up + "_ERRCNT", up + "_EINFO"}
	case KindInfoBackward:
		return []string{up + "_EINFO_BAKW"}
	case KindEnum:
		names := make([]string, 0, g.Count()+2)
		for _, e := range g.Entries {
			names = append(names, g.EnumSymbol(e.Tag))
		}
		return append(names, up+"_ERRMIN", up+"_ERRMAX")
	case KindDefines:
		names := make([]string, 0, g.Count()+2)
		for _, e := range g.Entries {
			names = append(names, g.DefSymbol(e.Tag))
		}
		return append(names, g.Name+"_ERRMIN", g.Name+"_ERRMAX")
	}
	return nil
}

// goInfoSymbol spells class-qualified symbols with a dot, as Go has no ::.
func goInfoSymbol(u Unit, tag string) string {
	if u.Group.Class != "" {
		return u.Group.Class + "." + tag
	}
	return u.Group.DefSymbol(tag)
}
