package client

import (
	"context"
	"log/slog"
	"strings"

	"curl-request/application/http"
	"curl-request/application/http/engine"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Client builds requests and runs them through an engine one at a time.
// It is not safe for concurrent use.
type Client struct {
	engine engine.Engine

	logger *slog.Logger
	clock  clock.Clock

	requestOptions engine.Options
	options        engine.Options
	headers        map[string]string
	encoder        ParamsEncoder
	throwOnError   bool

	errorCode    engine.Code
	errorMessage string
}

func New(eng engine.Engine, cfg Config, logger *slog.Logger, clk clock.Clock) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.New()
	}
	if cfg.Encoder == nil {
		cfg.Encoder = FormEncoder{}
	}

	c := &Client{
		engine:         eng,
		logger:         logger,
		clock:          clk,
		requestOptions: cfg.defaultRequestOptions(),
		encoder:        cfg.Encoder,
		throwOnError:   cfg.ThrowOnError,
	}
	c.SetHeaders(cfg.Headers)
	c.SetOptions(cfg.Options)

	return c
}

// NewJSON creates a client which sends its parameters as a JSON body.
func NewJSON(eng engine.Engine, cfg Config, logger *slog.Logger, clk clock.Clock) *Client {
	cfg.Encoder = JSONEncoder{}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if !hasHeader(headers, "Content-Type") {
		headers["Content-Type"] = ContentTypeJSON
	}
	cfg.Headers = headers

	return New(eng, cfg, logger, clk)
}

func (c *Client) ErrorCode() engine.Code { return c.errorCode }

func (c *Client) ErrorMessage() string { return c.errorMessage }

func (c *Client) Headers() map[string]string {
	clone := make(map[string]string, len(c.headers))
	for k, v := range c.headers {
		clone[k] = v
	}
	return clone
}

// SetHeaders replaces every header.
func (c *Client) SetHeaders(headers map[string]string) *Client {
	c.headers = make(map[string]string, len(headers))
	for k, v := range headers {
		c.headers[k] = v
	}
	return c
}

func (c *Client) AddHeader(key, value string) *Client {
	c.headers[key] = value
	return c
}

func (c *Client) DeleteHeader(key string) *Client {
	delete(c.headers, key)
	return c
}

func (c *Client) Options() engine.Options { return c.options.Clone() }

// SetOptions replaces the raw option overrides.
func (c *Client) SetOptions(opts engine.Options) *Client {
	c.options = opts.Clone()
	return c
}

// RequestOptions returns the defaults the overrides are resolved against.
func (c *Client) RequestOptions() engine.Options { return c.requestOptions.Clone() }

func (c *Client) SetFollowLocation(follow bool) *Client {
	c.requestOptions[engine.OptFollowLocation] = engine.Bool(follow)
	return c
}

func (c *Client) ThrowOnError() bool { return c.throwOnError }

func (c *Client) SetThrowOnError(throw bool) *Client {
	c.throwOnError = throw
	return c
}

func (c *Client) Get(ctx context.Context, url string, params Params) (*http.ParsedResponse, error) {
	return c.Execute(ctx, MethodGet, url, params)
}

func (c *Client) Head(ctx context.Context, url string, params Params) (*http.ParsedResponse, error) {
	return c.Execute(ctx, MethodHead, url, params)
}

func (c *Client) Post(ctx context.Context, url string, params Params) (*http.ParsedResponse, error) {
	return c.Execute(ctx, MethodPost, url, params)
}

func (c *Client) Put(ctx context.Context, url string, params Params) (*http.ParsedResponse, error) {
	return c.Execute(ctx, MethodPut, url, params)
}

func (c *Client) Delete(ctx context.Context, url string, params Params) (*http.ParsedResponse, error) {
	return c.Execute(ctx, MethodDelete, url, params)
}

func (c *Client) Patch(ctx context.Context, url string, params Params) (*http.ParsedResponse, error) {
	return c.Execute(ctx, MethodPatch, url, params)
}

// Execute runs one transfer with the given method.
//
// When the transfer fails and the client does not throw on error, Execute
// returns a nil response and a nil error; [Client.ErrorCode] and
// [Client.ErrorMessage] then describe the failure. Bytes that cannot be
// parsed always yield an [*http.ParseError].
func (c *Client) Execute(ctx context.Context, method, url string, params Params) (*http.ParsedResponse, error) {
	c.errorCode, c.errorMessage = engine.CodeOK, ""

	composed, err := Compose(ComposeInput{
		Defaults:  c.requestOptions,
		Overrides: c.options,
		Headers:   c.headers,
		Method:    method,
		URL:       url,
		Params:    params,
		Encoder:   c.encoder,
	})
	if err != nil {
		return nil, errors.Wrap(err, "composing request")
	}

	logger := c.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("method", composed.Method),
		slog.String("url", composed.URL),
	)
	start := c.clock.Now()

	raw, err := c.transfer(ctx, composed)

	logger.DebugContext(ctx, "transfer finished",
		slog.Duration("elapsed", c.clock.Since(start)),
		slog.Int("code", int(c.errorCode)),
	)

	if err != nil {
		logger.WarnContext(ctx, "transfer failed", slog.String("error", c.errorMessage))
		if c.throwOnError {
			return nil, &TransportError{Code: c.errorCode, Message: c.errorMessage}
		}
		return nil, nil
	}

	res, err := http.ParseResponse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing response")
	}

	return res, nil
}

func (c *Client) transfer(ctx context.Context, composed Composed) ([]byte, error) {
	handle, err := c.engine.Init(composed.URL)
	if err != nil {
		return nil, c.recordFailure(err, engine.CodeURLMalformat)
	}
	defer func() {
		if err := handle.Close(); err != nil {
			c.logger.Debug("closing handle", slog.String("error", err.Error()))
		}
	}()

	if err := handle.SetOptions(composed.Options); err != nil {
		return nil, c.recordFailure(err, engine.CodeURLMalformat)
	}

	raw, err := handle.Execute(ctx)
	c.errorCode, c.errorMessage = handle.ErrorCode(), handle.ErrorMessage()
	if err != nil {
		if c.errorCode == engine.CodeOK {
			return nil, c.recordFailure(err, engine.CodeRecvError)
		}
		if c.errorMessage == "" {
			c.errorMessage = err.Error()
		}
		return nil, &engine.Error{Code: c.errorCode, Message: c.errorMessage}
	}

	return raw, nil
}

// recordFailure stores err as the last error. Errors which carry no code
// get fallback.
func (c *Client) recordFailure(err error, fallback engine.Code) *engine.Error {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		c.errorCode, c.errorMessage = engErr.Code, engErr.Message
	} else {
		c.errorCode, c.errorMessage = fallback, strings.TrimSpace(err.Error())
	}
	return &engine.Error{Code: c.errorCode, Message: c.errorMessage}
}
