// Package wire is an [engine.Engine] speaking HTTP/1.1 over connections
// opened by a [transport.Dialer]. Every transfer uses its own connection.
package wire

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"curl-request/application/http"
	"curl-request/application/http/engine"
	"curl-request/transport"

	"github.com/benbjohnson/clock"
	"golang.org/x/net/idna"
)

type Options struct {
	// MaxHeadSize bounds every response head, in bytes.
	MaxHeadSize uint
	// MaxLineSize bounds chunk size and trailer lines, in bytes.
	MaxLineSize uint

	// MaxRedirs is used when [engine.OptMaxRedirs] is unset.
	// Negative means no limit.
	MaxRedirs int64

	// TLSConfig is used for https. Nil leaves TLS to the dialer.
	TLSConfig *tls.Config

	Encode http.EncodeOptions
}

var DefaultOptions = Options{
	MaxHeadSize: 64 << 10,
	MaxLineSize: 8 << 10,
	MaxRedirs:   20,
	Encode:      http.DefaultEncodeOptions,
}

type Engine struct {
	dialer transport.Dialer
	opts   Options

	logger *slog.Logger
	clock  clock.Clock
}

var _ engine.Engine = (*Engine)(nil)

func New(dialer transport.Dialer, logger *slog.Logger, clk clock.Clock) *Engine {
	return NewWithOptions(dialer, DefaultOptions, logger, clk)
}

func NewWithOptions(dialer transport.Dialer, opts Options, logger *slog.Logger, clk clock.Clock) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Engine{dialer: dialer, opts: opts, logger: logger, clock: clk}
}

func (e *Engine) Init(rawURL string) (engine.Handle, error) {
	if !strings.Contains(rawURL, "://") {
		// Like curl, a URL without scheme is http.
		rawURL = "http://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, engine.Errorf(engine.CodeURLMalformat, "URL rejected: %s", err)
	}

	u, engErr := normalizeURL(u)
	if engErr != nil {
		return nil, engErr
	}

	return &Handle{engine: e, url: u, opts: engine.Options{}}, nil
}

// normalizeURL checks the scheme and converts the host to its ASCII form.
// u is not modified.
func normalizeURL(u *url.URL) (*url.URL, *engine.Error) {
	clone := *u
	clone.Scheme = strings.ToLower(clone.Scheme)

	switch clone.Scheme {
	case "http", "https":
	default:
		return nil, engine.Errorf(engine.CodeUnsupportedProtocol, "Protocol %q not supported", clone.Scheme)
	}

	hostname := clone.Hostname()
	if hostname == "" {
		return nil, engine.Errorf(engine.CodeURLMalformat, "No host part in the URL")
	}

	if strings.Contains(hostname, ":") {
		// IPv6 literal.
		hostname = "[" + hostname + "]"
	} else {
		ascii, err := idna.Lookup.ToASCII(hostname)
		if err != nil {
			return nil, engine.Errorf(engine.CodeURLMalformat, "Bad host name %q: %s", hostname, err)
		}
		hostname = ascii
	}

	switch port := clone.Port(); {
	case port == "", port == defaultPort(clone.Scheme):
		clone.Host = hostname
	default:
		clone.Host = hostname + ":" + port
	}

	return &clone, nil
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}

// dialAddress is host:port with the scheme's default port filled in.
func dialAddress(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = defaultPort(u.Scheme)
	}
	return net.JoinHostPort(u.Hostname(), port)
}
