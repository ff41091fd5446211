package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// ResolveBase parses a group base token. A leading 0x or 0X selects hex, a
// leading 0 selects octal, anything else is decimal. The result must fit
// in 32 bits.
func ResolveBase(token string) (uint32, error) {
	digits, radix := token, 10
	switch {
	case strings.HasPrefix(token, "0x"), strings.HasPrefix(token, "0X"):
		digits, radix = token[2:], 16
	case len(token) > 1 && token[0] == '0':
		digits, radix = token[1:], 8
	}
	if digits == "" || strings.ContainsAny(digits, "+-_") {
		return 0, fmt.Errorf("invalid base %q", token)
	}

	v, err := strconv.ParseUint(digits, radix, 32)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("base %q does not fit in 32 bits", token)
		}
		return 0, fmt.Errorf("invalid base %q", token)
	}
	return uint32(v), nil
}
