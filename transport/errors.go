package transport

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// HandshakeError is a failed TLS handshake.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string { return "tls handshake: " + e.Err.Error() }

func (e *HandshakeError) Unwrap() error { return e.Err }

func IsHandshake(err error) bool {
	var hsErr *HandshakeError
	return errors.As(err, &hsErr)
}

// IsTimeout reports whether err is a timeout or an expired deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsDNS reports whether err is a failed host name lookup.
func IsDNS(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
