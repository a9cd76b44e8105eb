// Package uri builds the query component of request URLs and
// application/x-www-form-urlencoded bodies.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - https://datatracker.ietf.org/doc/html/rfc1738
package uri
