package emit

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// cTarget renders header-guarded C/C++ headers.
type cTarget struct{}

func (cTarget) Name() string { return "c" }

func (cTarget) Ext() string { return ".h" }

func (t cTarget) Render(u Unit) ([]byte, error) {
	var b bytes.Buffer
	guard := GuardToken(u.File)

	writeCBanner(&b, u)
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)

	switch u.Kind {
	case KindMessages:
		cMessages(&b, u)
	case KindInfo:
		cInfo(&b, u, false)
	case KindInfoBackward:
		cInfo(&b, u, true)
	case KindEnum:
		cEnum(&b, u)
	case KindDefines:
		cDefines(&b, u)
	default:
		return nil, fmt.Errorf("c target: unsupported kind %v", u.Kind)
	}

	fmt.Fprintf(&b, "\n#endif /* %s */\n", guard)
	return b.Bytes(), nil
}

func writeCBanner(b *bytes.Buffer, u Unit) {
	g := u.Group
	fmt.Fprintf(b, "/*\n * %s\n *\n", commentSafe(u.File))
	fmt.Fprintf(b, " * Generated by errgen from %s on %s.\n", commentSafe(u.Source), u.Stamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(b, " * Group %s", g.Name)
	if g.Label != "" {
		fmt.Fprintf(b, " (%s)", commentSafe(g.Label))
	}
	fmt.Fprintf(b, ", base %s, %d entries.\n", hex(g.Base), g.Count())
	b.WriteString(" * DO NOT EDIT.\n */\n\n")
}

func cMessages(b *bytes.Buffer, u Unit) {
	g := u.Group
	fmt.Fprintf(b, "#define %s_MSGCNT %d\n\n", g.UpperName(), g.Count())
	fmt.Fprintf(b, "static const char *const %s_errmsg[%s_MSGCNT + 1] = {\n", g.Name, g.UpperName())
	for _, e := range g.Entries {
		fmt.Fprintf(b, "\t/* %s */ %s,\n", g.EnumSymbol(e.Tag), cQuote(e.Message))
	}
	fmt.Fprintf(b, "\t/* sentinel */ %s\n};\n", cQuote(Sentinel))
}

const cInfoStruct = `#ifndef ERRGEN_EINFO_DEFINED
#define ERRGEN_EINFO_DEFINED
struct errgen_einfo {
	unsigned long code;
	const char *text;
};
#endif

`

func cInfo(b *bytes.Buffer, u Unit, backward bool) {
	g := u.Group
	count := g.UpperName() + "_ERRCNT"
	array := g.Name + "_einfo"
	if backward {
		array += "_bakw"
	}

	b.WriteString(cInfoStruct)
	fmt.Fprintf(b, "#ifndef %s\n#define %s %d\n#endif\n\n", count, count, g.Count()+1)
	fmt.Fprintf(b, "static const struct errgen_einfo %s[%s] = {\n", array, count)
	for _, e := range g.Entries {
		sym := InfoSymbol(g, e.Tag)
		text := e.Message
		if backward {
			text = sym
		}
		fmt.Fprintf(b, "\t{ %s, %s },\n", sym, cQuote(text))
	}
	b.WriteString("\t{ 0, 0 }\n};\n")
}

func cEnum(b *bytes.Buffer, u Unit) {
	g := u.Group
	rows := make([][2]string, 0, g.Count()+2)
	for _, e := range g.Entries {
		rows = append(rows, [2]string{g.EnumSymbol(e.Tag), hex(e.Code)})
	}
	rows = append(rows,
		[2]string{g.UpperName() + "_ERRMIN", hex(g.ErrMin())},
		[2]string{g.UpperName() + "_ERRMAX", hex(g.ErrMax())},
	)

	fmt.Fprintf(b, "enum %s_errcode {\n", g.Name)
	for i, r := range rows {
		sep := ","
		if i == len(rows)-1 {
			sep = ""
		}
		fmt.Fprintf(b, "\t%s = %s%s\n", r[0], r[1], sep)
	}
	b.WriteString("};\n")
}

func cDefines(b *bytes.Buffer, u Unit) {
	g := u.Group
	rows := make([][2]string, 0, g.Count()+2)
	for _, e := range g.Entries {
		rows = append(rows, [2]string{g.DefSymbol(e.Tag), hex(e.Code)})
	}
	rows = append(rows,
		[2]string{g.Name + "_ERRMIN", hex(g.ErrMin())},
		[2]string{g.Name + "_ERRMAX", hex(g.ErrMax())},
	)

	for _, r := range rows {
		fmt.Fprintf(b, "#define %s %s\n", r[0], r[1])
	}
}

// cQuote renders s as a C string literal. Control characters and bytes
// outside printable ASCII become octal escapes so the literal is valid in
// any source character set.
func cQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c == '?' && i+1 < len(s) && s[i+1] == '?':
			b.WriteString(`?\`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\%03o`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
