package client

import (
	"curl-request/application/http/engine"
)

const DefaultUserAgent = "curl-request Client 1.0"

type Config struct {
	// UserAgent and Referer are sent on every request. An empty value sends none.
	UserAgent string
	Referer   string

	FollowLocation bool

	// ThrowOnError makes a failed transfer return a [*TransportError].
	// If false, the failure is only visible through [Client.ErrorCode] and
	// [Client.ErrorMessage].
	ThrowOnError bool

	Headers map[string]string

	// Options are raw engine options which take precedence over the defaults.
	Options engine.Options

	// Encoder encodes parameters into request bodies. Defaults to [FormEncoder].
	Encoder ParamsEncoder
}

func DefaultConfig() Config {
	return Config{
		UserAgent:      DefaultUserAgent,
		FollowLocation: true,
		ThrowOnError:   true,
		Headers:        map[string]string{},
		Options:        engine.Options{},
		Encoder:        FormEncoder{},
	}
}

// defaultRequestOptions are set on every transfer unless overridden.
func (cfg Config) defaultRequestOptions() engine.Options {
	return engine.Options{
		engine.OptHeader:         engine.Bool(true),
		engine.OptReturnTransfer: engine.Bool(true),
		engine.OptFollowLocation: engine.Bool(cfg.FollowLocation),
		engine.OptUserAgent:      engine.String(cfg.UserAgent),
		engine.OptReferer:        engine.String(cfg.Referer),
	}
}
