package uri

import "strings"

// EncType selects how reserved bytes and spaces are percent-encoded.
type EncType uint8

const (
	// EncRFC1738 encodes spaces as '+' and leaves only ALPHA, DIGIT, '-', '_'
	// and '.' as is. This is what HTML forms send.
	EncRFC1738 EncType = 1 + iota

	// EncRFC3986 encodes spaces as "%20" and leaves unreserved characters as is.
	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
	EncRFC3986
)

func hex(c byte) (h [2]byte) {
	const hexSet = "0123456789ABCDEF"
	h[0] = hexSet[c>>4]
	h[1] = hexSet[c&0xF]
	return
}

// Escape percent-encodes s for use as a query key or value.
func Escape(s string, enc EncType) string {
	b := new(strings.Builder)
	b.Grow(len(s))

	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		switch {
		case c == ' ' && enc != EncRFC3986:
			b.WriteByte('+')
		case shouldEscape(c, enc):
			hex := hex(c)
			b.Write([]byte{'%', hex[0], hex[1]})
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

func shouldEscape(c byte, enc EncType) bool {
	if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
		return false
	}

	switch c {
	case '-', '_', '.':
		return false
	case '~':
		// '~' is unreserved on RFC 3986 but not on RFC 1738.
		return enc != EncRFC3986
	}

	return true
}
