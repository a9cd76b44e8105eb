package wire

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"curl-request/application/http"
	"curl-request/application/http/engine"
)

// Handle is one transfer of an [Engine].
type Handle struct {
	engine *Engine
	url    *url.URL
	opts   engine.Options

	code    engine.Code
	message string
	closed  bool
}

var _ engine.Handle = (*Handle)(nil)

// request is what is sent on one hop.
type request struct {
	method  string
	url     *url.URL
	referer string
	// body is nil when no body is sent.
	body *string
}

func (h *Handle) SetOptions(opts engine.Options) error {
	if h.closed {
		return engine.Errorf(engine.CodeFailedInit, "handle is closed")
	}

	for k, v := range opts {
		h.opts[k] = v
	}
	return nil
}

func (h *Handle) ErrorCode() engine.Code { return h.code }

func (h *Handle) ErrorMessage() string { return h.message }

func (h *Handle) Close() error {
	h.closed = true
	return nil
}

func (h *Handle) Execute(ctx context.Context) ([]byte, error) {
	if h.closed {
		return nil, engine.Errorf(engine.CodeFailedInit, "handle is closed")
	}

	out, err := h.execute(ctx, h.engine.clock.Now())
	if err != nil {
		h.code, h.message = err.Code, err.Message
		return nil, err
	}

	h.code, h.message = engine.CodeOK, ""
	return out, nil
}

func (h *Handle) execute(ctx context.Context, start time.Time) ([]byte, *engine.Error) {
	if ms := h.opts[engine.OptTimeout].Int64(); ms > 0 {
		var cancel context.CancelFunc
		ctx, cancel = h.engine.clock.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}

	req := request{
		method:  requestMethod(h.opts),
		url:     h.url,
		referer: h.opts[engine.OptReferer].Str(),
	}
	if h.opts.Has(engine.OptPostFields) {
		body := h.opts[engine.OptPostFields].Str()
		req.body = &body
	}

	var (
		includeHead = h.opts[engine.OptHeader].Truthy()
		follow      = h.opts[engine.OptFollowLocation].Truthy()
		autoReferer = h.opts[engine.OptAutoReferer].Truthy()
		customized  = h.opts.Has(engine.OptCustomRequest)
		maxRedirs   = h.engine.opts.MaxRedirs
	)
	if h.opts.Has(engine.OptMaxRedirs) {
		maxRedirs = h.opts[engine.OptMaxRedirs].Int64()
	}

	out := bytes.NewBuffer(nil)
	for hops := int64(0); ; hops++ {
		res, err := h.roundTrip(ctx, req, start)
		if err != nil {
			return nil, err
		}

		if includeHead {
			out.Write(res.heads)
		}

		location := res.head.Get("Location")
		if !follow || !isRedirect(res.head.StatusCode) || location == "" {
			out.Write(res.body)
			return out.Bytes(), nil
		}

		if maxRedirs >= 0 && hops >= maxRedirs {
			return nil, engine.Errorf(engine.CodeTooManyRedirects, "Maximum (%d) redirects followed", maxRedirs)
		}

		next, err := resolveLocation(req.url, location)
		if err != nil {
			return nil, err
		}

		h.engine.logger.DebugContext(ctx, "following redirect",
			slog.Int("status", int(res.head.StatusCode)),
			slog.String("location", next.String()),
		)

		if !customized && switchesToGet(res.head.StatusCode, req.method) {
			req.method = http.MethodGet
			req.body = nil
		}
		if autoReferer {
			prev := *req.url
			prev.User, prev.Fragment = nil, ""
			req.referer = prev.String()
		}
		req.url = next
	}
}

// requestMethod picks the method from the option flags. A custom request
// wins over HEAD, which wins over POST.
func requestMethod(opts engine.Options) string {
	switch {
	case !opts[engine.OptCustomRequest].IsEmpty():
		return opts[engine.OptCustomRequest].Str()
	case opts[engine.OptNoBody].Truthy():
		return http.MethodHead
	case opts[engine.OptPost].Truthy(), opts.Has(engine.OptPostFields):
		return http.MethodPost
	}
	return http.MethodGet
}

func isRedirect(code uint) bool {
	switch code {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// switchesToGet reports whether a redirect turns the next request into GET.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
func switchesToGet(code uint, method string) bool {
	switch code {
	case 303:
		return method != http.MethodHead
	case 301, 302:
		return method == http.MethodPost
	}
	return false
}

func resolveLocation(base *url.URL, location string) (*url.URL, *engine.Error) {
	ref, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return nil, engine.Errorf(engine.CodeURLMalformat, "Redirect location %q rejected: %s", location, err)
	}

	next := base.ResolveReference(ref)
	if ref.Fragment == "" {
		// A location without fragment keeps the fragment of the request.
		next.Fragment = base.Fragment
	}

	return normalizeURL(next)
}
