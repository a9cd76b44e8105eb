package transfer

import (
	"strings"
)

type Coding string

const (
	CodingChunked Coding = "chunked"
)

// ParseCodings splits Transfer-Encoding field values into their codings,
// in the order they were applied. Parameters are dropped.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.1
func ParseCodings(values []string) []Coding {
	codings := make([]Coding, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			name, _, _ := strings.Cut(part, ";")
			name = strings.ToLower(strings.Trim(name, " \t"))
			if name == "" {
				continue
			}
			codings = append(codings, Coding(name))
		}
	}
	return codings
}
