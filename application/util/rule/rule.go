package rule

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
	VT   byte = 0x0B
	FF   byte = 0x0C
)

var (
	OWS         = []byte{SP, HTAB}
	CRLF        = []byte{CR, LF}
	Whitespaces = []byte{SP, HTAB, VT, FF, CR}

	// HeadEnd terminates the status line and field lines of a message.
	HeadEnd = []byte{CR, LF, CR, LF}

	// VersionPrefix starts every HTTP/1.x status line.
	VersionPrefix = []byte("HTTP/")
)

func IsWhitespace(r rune) bool {
	for _, ws := range Whitespaces {
		if r == rune(ws) {
			return true
		}
	}
	return false
}

func IsAlpha(r rune) bool { return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') }
func IsDigit(r rune) bool { return '0' <= r && r <= '9' }

// HasVersionPrefix reports whether b begins with "HTTP/<digit>.<digit>".
func HasVersionPrefix(b []byte) bool {
	n := len(VersionPrefix)
	if len(b) < n+3 {
		return false
	}
	for i, c := range VersionPrefix {
		if b[i] != c {
			return false
		}
	}
	return IsDigit(rune(b[n])) && b[n+1] == '.' && IsDigit(rune(b[n+2]))
}
