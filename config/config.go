// Package config loads client settings from a YAML file and the environment.
package config

import (
	"crypto/tls"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"curl-request/application/http/actor/client"
	"curl-request/application/http/engine"
	"curl-request/application/http/engine/wire"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	EnvUserAgent      = "CURL_REQUEST_USER_AGENT"
	EnvReferer        = "CURL_REQUEST_REFERER"
	EnvTimeout        = "CURL_REQUEST_TIMEOUT"
	EnvConnectTimeout = "CURL_REQUEST_CONNECT_TIMEOUT"
	EnvMaxRedirects   = "CURL_REQUEST_MAX_REDIRECTS"
	EnvLogLevel       = "CURL_REQUEST_LOG_LEVEL"
)

type Config struct {
	Client   ClientConfig   `yaml:"client"`
	Transfer TransferConfig `yaml:"transfer"`
	Log      LogConfig      `yaml:"log"`
}

type ClientConfig struct {
	UserAgent      string            `yaml:"user_agent"`
	Referer        string            `yaml:"referer"`
	FollowLocation *bool             `yaml:"follow_location"`
	ThrowOnError   *bool             `yaml:"throw_on_error"`
	JSON           bool              `yaml:"json"`
	Headers        map[string]string `yaml:"headers"`

	// Options are raw engine options keyed by name, e.g. "AUTOREFERER".
	Options map[string]any `yaml:"options"`
}

type TransferConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// MaxRedirects of -1 follows without limit.
	MaxRedirects *int64 `yaml:"max_redirects"`
	MaxHeadSize  uint   `yaml:"max_head_size"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			UserAgent: client.DefaultUserAgent,
			Headers:   make(map[string]string),
			Options:   make(map[string]any),
		},
		Log: LogConfig{Level: "warn", Format: "text"},
	}
}

// Load reads config from a YAML file. A missing file yields the defaults;
// a file which cannot be parsed is an error. Environment variables are
// applied on top in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrap(err, "reading config")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parsing config %s", path)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.Client.UserAgent = v
	}
	if v := os.Getenv(EnvReferer); v != "" {
		c.Client.Referer = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvTimeout)
		}
		c.Transfer.Timeout = d
	}
	if v := os.Getenv(EnvConnectTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvConnectTimeout)
		}
		c.Transfer.ConnectTimeout = d
	}
	if v := os.Getenv(EnvMaxRedirects); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvMaxRedirects)
		}
		c.Transfer.MaxRedirects = &n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// applyDefaults fills in values a partial file left empty.
func (c *Config) applyDefaults() {
	if c.Client.Headers == nil {
		c.Client.Headers = make(map[string]string)
	}
	if c.Client.Options == nil {
		c.Client.Options = make(map[string]any)
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ClientConfig builds the client settings. Unknown option names and values
// of unsupported types are errors.
func (c *Config) ClientConfig() (client.Config, error) {
	cfg := client.DefaultConfig()
	cfg.UserAgent = c.Client.UserAgent
	cfg.Referer = c.Client.Referer
	if c.Client.FollowLocation != nil {
		cfg.FollowLocation = *c.Client.FollowLocation
	}
	if c.Client.ThrowOnError != nil {
		cfg.ThrowOnError = *c.Client.ThrowOnError
	}
	for k, v := range c.Client.Headers {
		cfg.Headers[k] = v
	}
	if c.Client.JSON {
		cfg.Encoder = client.JSONEncoder{}
	}

	for name, raw := range c.Client.Options {
		opt, ok := engine.ParseOption(name)
		if !ok {
			return client.Config{}, errors.Errorf("unknown option %q", name)
		}
		v, err := engine.ValueOf(raw)
		if err != nil {
			return client.Config{}, errors.Wrapf(err, "option %s", name)
		}
		cfg.Options[opt] = v
	}

	if d := c.Transfer.Timeout; d > 0 {
		cfg.Options[engine.OptTimeout] = engine.Int(d.Milliseconds())
	}
	if d := c.Transfer.ConnectTimeout; d > 0 {
		cfg.Options[engine.OptConnectTimeout] = engine.Int(d.Milliseconds())
	}
	if n := c.Transfer.MaxRedirects; n != nil {
		cfg.Options[engine.OptMaxRedirs] = engine.Int(*n)
	}

	return cfg, nil
}

// WireOptions builds the options of the built-in engine.
func (c *Config) WireOptions() wire.Options {
	opts := wire.DefaultOptions
	if c.Transfer.MaxHeadSize > 0 {
		opts.MaxHeadSize = c.Transfer.MaxHeadSize
	}
	if c.Transfer.InsecureSkipVerify {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opts
}

// Logger builds a logger writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return nil, errors.Wrap(err, "parsing log level")
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	switch c.Log.Format {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return nil, errors.Errorf("unknown log format %q", c.Log.Format)
}
