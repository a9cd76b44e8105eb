package wire

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"curl-request/application/http"
	"curl-request/application/http/engine"
	"curl-request/application/http/transfer"
	"curl-request/application/util/rule"
	iolib "curl-request/lib/io"
	"curl-request/transport"

	"github.com/pkg/errors"
)

const contentTypeForm = "application/x-www-form-urlencoded"

// aLongTimeAgo is a deadline which expires every pending read and write.
var aLongTimeAgo = time.Unix(1, 0)

type response struct {
	head http.Head
	// heads holds every head received, verbatim.
	heads []byte
	body  []byte
}

// roundTrip sends req on a new connection and reads the response.
func (h *Handle) roundTrip(ctx context.Context, req request, start time.Time) (*response, *engine.Error) {
	conn, engErr := h.dial(ctx, req, start)
	if engErr != nil {
		return nil, engErr
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(aLongTimeAgo) })
	defer stop()

	encoder := http.NewRequestEncoder(conn, h.engine.opts.Encode)
	if err := encoder.Encode(h.buildRequest(req)); err != nil {
		return nil, h.failure(ctx, start, engine.CodeSendError, err)
	}

	ur := iolib.NewUntilReader(conn)

	res, engErr := h.readHeads(ctx, ur, start)
	if engErr != nil {
		return nil, engErr
	}

	framing, length, err := transfer.DecideFraming(req.method, res.head)
	if err != nil {
		return nil, engine.Errorf(engine.CodeWeirdServerReply, "%s: %s", engine.CodeWeirdServerReply, err)
	}

	h.engine.logger.DebugContext(ctx, "reading body",
		slog.Int("status", int(res.head.StatusCode)),
		slog.String("framing", framing.String()),
	)

	body, err := io.ReadAll(transfer.NewBodyReader(ur, framing, length, h.engine.opts.MaxLineSize))
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, engine.Errorf(engine.CodePartialFile, "%s: %d bytes received", engine.CodePartialFile, len(body))
		}
		return nil, h.failure(ctx, start, engine.CodeRecvError, err)
	}
	res.body = body

	return res, nil
}

// readHeads reads heads until a final one. Interim heads are kept.
func (h *Handle) readHeads(ctx context.Context, ur *iolib.UntilReader, start time.Time) (*response, *engine.Error) {
	heads := bytes.NewBuffer(nil)
	for {
		block, err := ur.ReadUntilLimit(rule.HeadEnd, h.engine.opts.MaxHeadSize)
		if err != nil {
			switch {
			case errors.Is(err, iolib.ErrLimitReached):
				return nil, engine.Errorf(engine.CodeWeirdServerReply, "Response head larger than %d bytes", h.engine.opts.MaxHeadSize)
			case ctx.Err() == nil && errors.Is(err, io.EOF) && heads.Len() == 0 && len(block) == 0:
				return nil, engine.Errorf(engine.CodeGotNothing, "Empty reply from server")
			case ctx.Err() == nil && errors.Is(err, io.EOF):
				return nil, engine.Errorf(engine.CodeRecvError, "Connection closed in the middle of a response head")
			}
			return nil, h.failure(ctx, start, engine.CodeRecvError, err)
		}

		head, err := http.ParseHead(block, http.DefaultParseOptions)
		if err != nil {
			return nil, engine.Errorf(engine.CodeWeirdServerReply, "%s: %s", engine.CodeWeirdServerReply, err)
		}
		heads.Write(block)

		// 101 ends the exchange.
		if !head.IsInterim() || head.StatusCode == 101 {
			return &response{head: head, heads: heads.Bytes()}, nil
		}
	}
}

func (h *Handle) dial(ctx context.Context, req request, start time.Time) (net.Conn, *engine.Error) {
	dialCtx := ctx
	if ms := h.opts[engine.OptConnectTimeout].Int64(); ms > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = h.engine.clock.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
		defer cancel()
	}

	address := dialAddress(req.url)
	h.engine.logger.DebugContext(ctx, "dialing", slog.String("address", address))

	conn, err := h.connect(dialCtx, req, address)
	if err == nil {
		return conn, nil
	}

	switch {
	case ctx.Err() != nil:
		return nil, h.failure(ctx, start, engine.CodeCouldntConnect, err)
	case dialCtx.Err() != nil:
		return nil, engine.Errorf(engine.CodeOperationTimedOut,
			"Connection timed out after %d milliseconds", h.engine.clock.Since(start).Milliseconds())
	case transport.IsDNS(err):
		return nil, engine.Errorf(engine.CodeCouldntResolveHost, "Could not resolve host: %s", req.url.Hostname())
	case transport.IsHandshake(err):
		return nil, engine.Errorf(engine.CodeSSLConnectError, "%s: %s", engine.CodeSSLConnectError, err)
	case transport.IsTimeout(err):
		return nil, h.failure(ctx, start, engine.CodeOperationTimedOut, err)
	}
	return nil, engine.Errorf(engine.CodeCouldntConnect, "Failed to connect to %s: %s", address, err)
}

func (h *Handle) connect(ctx context.Context, req request, address string) (net.Conn, error) {
	dialer := h.engine.dialer
	if req.url.Scheme != "https" {
		return dialer.Dial(ctx, "tcp", address)
	}

	serverName := req.url.Hostname()
	if td, ok := dialer.(transport.TLSDialer); ok && h.engine.opts.TLSConfig == nil {
		return td.DialTLS(ctx, address, serverName)
	}

	raw, err := dialer.Dial(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	conn, err := transport.Handshake(ctx, raw, h.engine.opts.TLSConfig, serverName)
	if err != nil {
		raw.Close()
		return nil, err
	}
	return conn, nil
}

// failure maps err onto code unless the transfer ran out of time.
func (h *Handle) failure(ctx context.Context, start time.Time, code engine.Code, err error) *engine.Error {
	if ctx.Err() != nil || transport.IsTimeout(err) {
		return engine.Errorf(engine.CodeOperationTimedOut,
			"Operation timed out after %d milliseconds", h.engine.clock.Since(start).Milliseconds())
	}
	return engine.Errorf(code, "%s: %s", code, err)
}

// buildRequest lays out the request head. Header lines given by the user
// replace built-in ones of the same name; a line with an empty value
// ("Accept:") removes it, and "Name;" sends an empty value. Lines whose name
// is not a token, and values carrying CR, LF or NUL, are dropped.
func (h *Handle) buildRequest(req request) http.Request {
	fields := &fieldList{}

	fields.set("Host", req.url.Host)
	if user := req.url.User; user != nil {
		password, _ := user.Password()
		credentials := base64.StdEncoding.EncodeToString([]byte(user.Username() + ":" + password))
		fields.set("Authorization", "Basic "+credentials)
	}
	if ua := h.opts[engine.OptUserAgent].Str(); ua != "" && isFieldValue(ua) {
		fields.set("User-Agent", ua)
	}
	fields.set("Accept", "*/*")
	if req.referer != "" && isFieldValue(req.referer) {
		fields.set("Referer", req.referer)
	}

	for _, line := range h.opts[engine.OptHTTPHeader].List() {
		if name, found := strings.CutSuffix(strings.TrimSpace(line), ";"); found && !strings.Contains(name, ":") {
			if name = strings.TrimSpace(name); rule.IsValidToken(name) {
				fields.set(name, "")
			}
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !rule.IsValidToken(name) || !isFieldValue(value) {
			continue
		}
		if value == "" {
			fields.del(name)
			continue
		}
		fields.set(name, value)
	}

	var body io.Reader
	if req.body != nil {
		if !fields.has("Content-Type") {
			fields.set("Content-Type", contentTypeForm)
		}
		fields.set("Content-Length", strconv.Itoa(len(*req.body)))
		body = strings.NewReader(*req.body)
	}
	fields.set("Connection", "close")

	return http.Request{
		RequestLine: http.RequestLine{
			Method:  req.method,
			Target:  req.url.RequestURI(),
			Version: http.Version11,
		},
		Headers: fields.list,
		Body:    body,
	}
}

// isFieldValue reports whether v can be written on one field line.
func isFieldValue(v string) bool { return !strings.ContainsAny(v, "\r\n\x00") }

// fieldList keeps fields in insertion order with case-insensitive names.
type fieldList struct {
	list []http.Field
}

func (fl *fieldList) index(name string) int {
	for i, f := range fl.list {
		if strings.EqualFold(string(f.Name), name) {
			return i
		}
	}
	return -1
}

func (fl *fieldList) has(name string) bool { return fl.index(name) >= 0 }

// set replaces the value in place, or appends the field.
func (fl *fieldList) set(name, value string) {
	field := http.Field{Name: []byte(name), Value: []byte(value)}
	if i := fl.index(name); i >= 0 {
		fl.list[i] = field
		return
	}
	fl.list = append(fl.list, field)
}

func (fl *fieldList) del(name string) {
	if i := fl.index(name); i >= 0 {
		fl.list = append(fl.list[:i], fl.list[i+1:]...)
	}
}
