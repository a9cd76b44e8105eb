package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"curl-request/application/http/actor/client"
	"curl-request/application/http/engine"
	"curl-request/application/http/engine/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadValidYAML(t *testing.T) {
	path := writeConfig(t, `
client:
  user_agent: test-agent/2.0
  follow_location: false
  json: true
  headers:
    X-Token: abc
  options:
    autoreferer: true
    CURLOPT_HTTPHEADER:
      - "Accept: text/html"
transfer:
  timeout: 5s
  connect_timeout: 250ms
  max_redirects: 3
  max_head_size: 1024
  insecure_skip_verify: true
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-agent/2.0", cfg.Client.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.Transfer.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)

	clientCfg, err := cfg.ClientConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-agent/2.0", clientCfg.UserAgent)
	assert.False(t, clientCfg.FollowLocation)
	assert.True(t, clientCfg.ThrowOnError)
	assert.Equal(t, client.JSONEncoder{}, clientCfg.Encoder)
	assert.Equal(t, map[string]string{"X-Token": "abc"}, clientCfg.Headers)
	assert.Equal(t, engine.Options{
		engine.OptAutoReferer:    engine.Bool(true),
		engine.OptHTTPHeader:     engine.Strings("Accept: text/html"),
		engine.OptTimeout:        engine.Int(5000),
		engine.OptConnectTimeout: engine.Int(250),
		engine.OptMaxRedirs:      engine.Int(3),
	}, clientCfg.Options)

	wireOpts := cfg.WireOptions()
	assert.Equal(t, uint(1024), wireOpts.MaxHeadSize)
	assert.Equal(t, wire.DefaultOptions.MaxRedirs, wireOpts.MaxRedirs)
	require.NotNil(t, wireOpts.TLSConfig)
	assert.True(t, wireOpts.TLSConfig.InsecureSkipVerify)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "client: [unclosed"))
	assert.Error(t, err)
}

func TestLoadPartialYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  format: json\n"))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, client.DefaultUserAgent, cfg.Client.UserAgent)
	assert.NotNil(t, cfg.Client.Headers)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvUserAgent, "env-agent")
	t.Setenv(EnvReferer, "http://env.example/")
	t.Setenv(EnvTimeout, "2s")
	t.Setenv(EnvConnectTimeout, "100ms")
	t.Setenv(EnvMaxRedirects, "-1")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(writeConfig(t, "client:\n  user_agent: file-agent\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-agent", cfg.Client.UserAgent)
	assert.Equal(t, "http://env.example/", cfg.Client.Referer)
	assert.Equal(t, 2*time.Second, cfg.Transfer.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Transfer.ConnectTimeout)
	require.NotNil(t, cfg.Transfer.MaxRedirects)
	assert.Equal(t, int64(-1), *cfg.Transfer.MaxRedirects)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestEnvOverridesInvalid(t *testing.T) {
	testcases := []struct {
		desc string
		key  string
		val  string
	}{
		{desc: "timeout", key: EnvTimeout, val: "soon"},
		{desc: "connect timeout", key: EnvConnectTimeout, val: "10"},
		{desc: "max redirects", key: EnvMaxRedirects, val: "many"},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestClientConfigErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Client.Options["NOT_AN_OPTION"] = true
	_, err := cfg.ClientConfig()
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Client.Options["TIMEOUT_MS"] = map[string]any{"x": 1}
	_, err = cfg.ClientConfig()
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	buf := bytes.NewBuffer(nil)

	cfg := DefaultConfig()
	cfg.Log = LogConfig{Level: "info", Format: "json"}
	logger, err := cfg.Logger(buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"key":"value"`)

	cfg.Log.Format = "xml"
	_, err = cfg.Logger(buf)
	assert.Error(t, err)

	cfg.Log = LogConfig{Level: "loud", Format: "text"}
	_, err = cfg.Logger(buf)
	assert.Error(t, err)
}
