// Package transporttest provides in-memory connections for tests.
package transporttest

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"curl-request/application/util/rule"
	iolib "curl-request/lib/io"
	"curl-request/transport"

	"github.com/pkg/errors"
)

// Dialer answers every Dial with one end of a [net.Pipe] and runs Serve with
// the other end in its own goroutine. The server end is closed once Serve
// returns.
type Dialer struct {
	Serve func(conn net.Conn)

	// Err, if set, fails every Dial.
	Err error

	mu        sync.Mutex
	addresses []string
	wg        sync.WaitGroup
}

var _ transport.Dialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	d.addresses = append(d.addresses, address)
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, server := net.Pipe()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer server.Close()
		d.Serve(server)
	}()

	return client, nil
}

// Addresses returns every address dialed so far.
func (d *Dialer) Addresses() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.addresses...)
}

// Wait blocks until every Serve returned.
func (d *Dialer) Wait() { d.wg.Wait() }

// Request is a request as received by a test server.
type Request struct {
	Method string
	Target string
	// Headers keeps the received order.
	Headers [][2]string
	Body    []byte
}

// Get returns the last value of a header, compared case-insensitively.
func (r *Request) Get(name string) string {
	value := ""
	for _, h := range r.Headers {
		if strings.EqualFold(h[0], name) {
			value = h[1]
		}
	}
	return value
}

func (r *Request) Has(name string) bool {
	for _, h := range r.Headers {
		if strings.EqualFold(h[0], name) {
			return true
		}
	}
	return false
}

// ReadRequest reads one request with a Content-Length framed body.
func ReadRequest(r io.Reader) (*Request, error) {
	ur := iolib.NewUntilReader(r)

	head, err := ur.ReadUntil(rule.HeadEnd)
	if err != nil {
		return nil, errors.Wrap(err, "reading head")
	}

	lines := bytes.Split(head[:len(head)-len(rule.HeadEnd)], rule.CRLF)
	parts := strings.SplitN(string(lines[0]), " ", 3)
	if len(parts) != 3 {
		return nil, errors.Errorf("malformed request line: %q", lines[0])
	}

	req := &Request{Method: parts[0], Target: parts[1]}
	for _, line := range lines[1:] {
		name, value, found := strings.Cut(string(line), ":")
		if !found {
			return nil, errors.Errorf("malformed field line: %q", line)
		}
		req.Headers = append(req.Headers, [2]string{name, strings.TrimSpace(value)})
	}

	if cl := req.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err != nil {
			return nil, errors.Wrap(err, "parsing content-length")
		}

		req.Body = make([]byte, n)
		if _, err := io.ReadFull(ur, req.Body); err != nil {
			return nil, errors.Wrap(err, "reading body")
		}
	}

	return req, nil
}
