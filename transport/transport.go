// Package transport opens the byte streams HTTP messages travel over.
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/pkg/errors"
)

type Dialer interface {
	Dial(ctx context.Context, network, address string) (net.Conn, error)
}

// TLSDialer is a [Dialer] which can also open TLS connections.
type TLSDialer interface {
	Dialer
	DialTLS(ctx context.Context, address, serverName string) (net.Conn, error)
}

// NetDialer dials TCP with the operating system's network stack.
type NetDialer struct {
	// Timeout bounds connection establishment. Zero means no timeout.
	Timeout time.Duration

	// TLSConfig is cloned for every TLS connection. Nil uses defaults.
	TLSConfig *tls.Config
}

var _ TLSDialer = (*NetDialer)(nil)

func (d *NetDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}

	conn, err := nd.DialContext(ctx, network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", address)
	}

	return conn, nil
}

// DialTLS dials TCP and completes a TLS handshake for serverName.
func (d *NetDialer) DialTLS(ctx context.Context, address, serverName string) (net.Conn, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	conn, err := d.Dial(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	tlsConn, err := Handshake(ctx, conn, d.TLSConfig, serverName)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return tlsConn, nil
}

// Handshake runs a client TLS handshake over conn. cfg is not modified.
func Handshake(ctx context.Context, conn net.Conn, cfg *tls.Config, serverName string) (net.Conn, error) {
	if cfg == nil {
		cfg = &tls.Config{}
	}
	cfg = cfg.Clone()
	if cfg.ServerName == "" {
		cfg.ServerName = serverName
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, &HandshakeError{Err: err}
	}

	return tlsConn, nil
}
