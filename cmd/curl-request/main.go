package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"curl-request/application/http"
	"curl-request/application/http/actor/client"
	"curl-request/application/http/engine/wire"
	"curl-request/config"
	"curl-request/transport"

	"github.com/alecthomas/kong"
	"github.com/benbjohnson/clock"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

const (
	exitOK        = 0
	exitTransport = 1
	exitParse     = 2
	exitUsage     = 3
)

type CLI struct {
	Config   string        `type:"path" help:"YAML config file."`
	Header   []string      `short:"H" help:"Extra request header, as \"Name: Value\"."`
	JSON     bool          `help:"Send parameters as a JSON body."`
	NoFollow bool          `help:"Do not follow redirects."`
	NoThrow  bool          `help:"Report a failed transfer without failing."`
	Include  bool          `short:"i" help:"Print the response status and headers."`
	Timeout  time.Duration `help:"Timeout of the whole transfer."`
	Verbose  bool          `short:"v" help:"Log transfer details to stderr."`

	Method string   `arg:"" help:"Request method."`
	URL    string   `arg:"" help:"Request URL."`
	Params []string `arg:"" optional:"" help:"Request parameters, as key=value."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("curl-request"),
		kong.Description("Send one HTTP request and print the response."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	dialer := &transport.NetDialer{Timeout: 30 * time.Second}
	code := run(ctx, &cli, dialer, os.Stdout, os.Stderr, isatty.IsTerminal(os.Stdout.Fd()))

	cancel()
	os.Exit(code)
}

func run(ctx context.Context, cli *CLI, dialer transport.Dialer, stdout, stderr io.Writer, terminal bool) int {
	c, err := newClient(cli, dialer, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "curl-request: %s\n", err)
		return exitUsage
	}

	params, err := parseParams(cli.Params)
	if err != nil {
		fmt.Fprintf(stderr, "curl-request: %s\n", err)
		return exitUsage
	}

	res, err := c.Execute(ctx, cli.Method, cli.URL, params)

	var (
		transportErr *client.TransportError
		parseErr     *http.ParseError
	)
	switch {
	case errors.As(err, &transportErr):
		fmt.Fprintf(stderr, "curl-request: (%d) %s\n", int(transportErr.Code), transportErr.Message)
		return exitTransport
	case errors.As(err, &parseErr):
		fmt.Fprintf(stderr, "curl-request: %s\n", err)
		return exitParse
	case err != nil:
		fmt.Fprintf(stderr, "curl-request: %s\n", err)
		return exitUsage
	case res == nil:
		fmt.Fprintf(stderr, "curl-request: (%d) %s\n", int(c.ErrorCode()), c.ErrorMessage())
		return exitOK
	}

	if cli.Include {
		writeHead(stdout, res)
	}

	body := res.BodyBytes()
	stdout.Write(body)
	if terminal && len(body) > 0 && body[len(body)-1] != '\n' {
		fmt.Fprintln(stdout)
	}

	return exitOK
}

func newClient(cli *CLI, dialer transport.Dialer, stderr io.Writer) (*client.Client, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}

	if cli.Verbose {
		cfg.Log.Level = "debug"
	}
	if cli.Timeout > 0 {
		cfg.Transfer.Timeout = cli.Timeout
	}
	if cli.JSON {
		cfg.Client.JSON = true
	}

	logger, err := cfg.Logger(stderr)
	if err != nil {
		return nil, err
	}

	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, err
	}
	if cli.NoFollow {
		clientCfg.FollowLocation = false
	}
	if cli.NoThrow {
		clientCfg.ThrowOnError = false
	}
	for _, header := range cli.Header {
		name, value, found := strings.Cut(header, ":")
		if !found || strings.TrimSpace(name) == "" {
			return nil, errors.Errorf("malformed header %q", header)
		}
		clientCfg.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	eng := wire.NewWithOptions(dialer, cfg.WireOptions(), logger, clock.New())
	if cfg.Client.JSON {
		return client.NewJSON(eng, clientCfg, logger, nil), nil
	}
	return client.New(eng, clientCfg, logger, nil), nil
}

// parseParams turns key=value arguments into parameters. A repeated key
// becomes a list.
func parseParams(args []string) (client.Params, error) {
	if len(args) == 0 {
		return nil, nil
	}

	params := make(client.Params, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, errors.Errorf("malformed parameter %q, want key=value", arg)
		}

		switch prev := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []any{prev, value}
		case []any:
			params[key] = append(prev, value)
		}
	}
	return params, nil
}

// writeHead prints the final status line and the headers sorted by name.
func writeHead(w io.Writer, res *http.ParsedResponse) {
	fmt.Fprintf(w, "%s %s\n", res.Version(), res.Status())

	headers := res.Headers()
	names := make([]string, 0, len(headers))
	for name := range headers {
		switch name {
		case http.KeyHTTPVersion, http.KeyStatusCode, http.KeyStatus:
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w, "%s: %s\n", name, headers[name])
	}
	fmt.Fprintln(w)
}
