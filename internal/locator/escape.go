package locator

import (
	"fmt"
	"strings"
)

// escapeAttr escapes a value for use inside a double-quoted CSS
// attribute selector.
func escapeAttr(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, "\n", `\a `)
	return v
}

// escapeIdent escapes a CSS identifier (id or class token) following the
// CSS.escape algorithm closely enough for locator synthesis: anything
// outside [a-zA-Z0-9_-] is backslash-escaped, and a leading digit (or a
// digit after a leading hyphen) becomes a code-point escape.
func escapeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r > 0x7f:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 || (i == 1 && s[0] == '-') {
				fmt.Fprintf(&b, `\%x `, r)
			} else {
				b.WriteRune(r)
			}
		case r == '-':
			if i == 0 && len(s) == 1 {
				b.WriteString(`\-`)
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
