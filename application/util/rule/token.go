package rule

// IsTokenChar reports whether c is a tchar.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsTokenChar(c byte) bool {
	if IsAlpha(rune(c)) || IsDigit(rune(c)) {
		return true
	}

	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+',
		'-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// IsValidToken reports whether s is a non-empty run of tchars, as field
// names and methods must be.
func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsTokenChar(s[i]) {
			return false
		}
	}
	return true
}

// Unquote strips the double quotes around a quoted-string and resolves its
// quoted-pairs. Anything else is returned as a copy.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.4
func Unquote(b []byte) []byte {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return append([]byte(nil), b...)
	}

	inner := b[1 : len(b)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		out = append(out, inner[i])
	}
	return out
}
