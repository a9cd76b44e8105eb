package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"

	"curl-request/application/http/actor/client"
	"curl-request/transport/transporttest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func serveOnce(response string, received chan<- *transporttest.Request) *transporttest.Dialer {
	return &transporttest.Dialer{Serve: func(conn net.Conn) {
		req, err := transporttest.ReadRequest(conn)
		if err != nil {
			return
		}
		if received != nil {
			received <- req
		}
		io.WriteString(conn, response)
	}}
}

func TestRun(t *testing.T) {
	received := make(chan *transporttest.Request, 1)
	dialer := serveOnce("HTTP/1.1 200 OK\r\nServer: test\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello", received)
	defer dialer.Wait()

	stdout, stderr := bytes.NewBuffer(nil), bytes.NewBuffer(nil)
	cli := &CLI{
		Method:  "get",
		URL:     "http://example.com/search",
		Params:  []string{"q=go", "tag=a", "tag=b"},
		Header:  []string{"X-Token: abc"},
		Include: true,
	}

	code := run(context.Background(), cli, dialer, stdout, stderr, true)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Equal(t, ""+
		"HTTP/1.1 200 OK\n"+
		"Content-Length: 5\n"+
		"Content-Type: text/plain\n"+
		"Server: test\n"+
		"\n"+
		"hello\n",
		stdout.String(),
	)

	req := <-received
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/search?q=go&tag%5B0%5D=a&tag%5B1%5D=b", req.Target)
	assert.Equal(t, "abc", req.Get("X-Token"))
	assert.Equal(t, client.DefaultUserAgent, req.Get("User-Agent"))
}

func TestRunJSON(t *testing.T) {
	received := make(chan *transporttest.Request, 1)
	dialer := serveOnce("HTTP/1.1 201 Created\r\nContent-Length: 0\r\n\r\n", received)
	defer dialer.Wait()

	cli := &CLI{Method: "POST", URL: "http://example.com/items", Params: []string{"name=x"}, JSON: true}

	code := run(context.Background(), cli, dialer, io.Discard, io.Discard, false)
	require.Equal(t, exitOK, code)

	req := <-received
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "application/json", req.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"x"}`, string(req.Body))
}

func TestRunTransportError(t *testing.T) {
	dialer := &transporttest.Dialer{Err: errors.New("connection refused")}

	stderr := bytes.NewBuffer(nil)
	code := run(context.Background(), &CLI{Method: "GET", URL: "http://example.com/"}, dialer, io.Discard, stderr, false)
	assert.Equal(t, exitTransport, code)
	assert.Contains(t, stderr.String(), "(7)")

	stderr.Reset()
	code = run(context.Background(), &CLI{Method: "GET", URL: "http://example.com/", NoThrow: true}, dialer, io.Discard, stderr, false)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr.String(), "(7)")
}

func TestRunUsageErrors(t *testing.T) {
	dir := t.TempDir()
	badConfig := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badConfig, []byte("client: ["), 0o644))

	testcases := []struct {
		desc string
		cli  CLI
	}{
		{desc: "bad config", cli: CLI{Method: "GET", URL: "http://example.com/", Config: badConfig}},
		{desc: "bad header", cli: CLI{Method: "GET", URL: "http://example.com/", Header: []string{"nocolon"}}},
		{desc: "bad param", cli: CLI{Method: "GET", URL: "http://example.com/", Params: []string{"=x"}}},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			dialer := &transporttest.Dialer{Err: errors.New("not dialed")}
			code := run(context.Background(), &tc.cli, dialer, io.Discard, io.Discard, false)
			assert.Equal(t, exitUsage, code)
			assert.Empty(t, dialer.Addresses())
		})
	}
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"a=1", "b=", "a=2", "a=3", "c=x=y"})
	require.NoError(t, err)
	assert.Equal(t, client.Params{"a": []any{"1", "2", "3"}, "b": "", "c": "x=y"}, params)

	params, err = parseParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)
}
