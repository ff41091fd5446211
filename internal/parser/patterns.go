package parser

import (
	"regexp"
	"strings"
)

// LineKind is the shape of one input line.
type LineKind int

const (
	LineIgnore LineKind = iota
	LineOpen
	LineClose
	LineEntry
	LineBadHeader
)

var lineKindNames = map[LineKind]string{
	LineIgnore:    "ignore",
	LineOpen:      "open",
	LineClose:     "close",
	LineEntry:     "entry",
	LineBadHeader: "bad-header",
}

func (k LineKind) String() string {
	if s, ok := lineKindNames[k]; ok {
		return s
	}
	return "invalid"
}

var (
	// Pattern: <name> = <base> "<label>" [<class>] {
	headerPattern = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*=\s*(\w+)\s+"([^"]*)"\s*([A-Za-z_][\w:]*)?\s*\{\s*$`)

	// Pattern: <ident> = ... {
	headerLikePattern = regexp.MustCompile(`^\s*[A-Za-z_]\w*\s*=.*\{\s*$`)

	// Pattern: <tag> <message>
	entryPattern = regexp.MustCompile(`^\s*(\S+)(?:\s+(.*))?$`)

	identPattern = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// Classify returns the shape of a raw line.
func Classify(line string) LineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "", strings.HasPrefix(trimmed, "#"):
		return LineIgnore
	case strings.HasPrefix(trimmed, "}"):
		return LineClose
	case headerPattern.MatchString(line):
		return LineOpen
	case headerLikePattern.MatchString(line):
		return LineBadHeader
	default:
		return LineEntry
	}
}

// matchHeader returns [name, base, label, class] if line opens a group
func matchHeader(line string) []string {
	if m := headerPattern.FindStringSubmatch(line); m != nil {
		return []string{m[1], m[2], m[3], m[4]}
	}
	return nil
}

// matchEntry returns [tag, message] if line holds an entry with a valid tag
func matchEntry(line string) []string {
	m := entryPattern.FindStringSubmatch(line)
	if m == nil || !identPattern.MatchString(m[1]) {
		return nil
	}
	return []string{m[1], unquote(strings.TrimSpace(m[2]))}
}

// unquote strips one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// IsIdent reports whether s is a valid tag or group name.
func IsIdent(s string) bool {
	return identPattern.MatchString(s)
}
