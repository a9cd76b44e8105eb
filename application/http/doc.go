// Package http parses and encodes HTTP/1.x messages as they travel
// between a request builder and a transfer engine.
//
// A transfer engine hands back the raw bytes of a completed transfer:
// zero or more interim heads (e.g. "100 Continue" or redirect hops), the
// final head and the body. [ParseResponse] splits those bytes into a
// [ParsedResponse] holding the final head's fields and the exact body.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
