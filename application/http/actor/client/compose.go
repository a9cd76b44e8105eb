package client

import (
	"sort"
	"strings"

	"curl-request/application/http"
	"curl-request/application/http/engine"
	"curl-request/application/util/uri"

	"github.com/pkg/errors"
)

const (
	MethodGet    = http.MethodGet
	MethodHead   = http.MethodHead
	MethodPost   = http.MethodPost
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
	MethodPatch  = "PATCH"
)

type ComposeInput struct {
	Defaults  engine.Options
	Overrides engine.Options
	Headers   map[string]string

	Method string
	URL    string

	// Params is nil when the request carries no parameters.
	Params  Params
	Encoder ParamsEncoder
}

type Composed struct {
	Method  string
	URL     string
	Options engine.Options
}

// Compose produces the URL and the final option set for one transfer.
func Compose(in ComposeInput) (Composed, error) {
	method := strings.ToUpper(in.Method)
	url := in.URL

	opts := engine.Resolve(in.Defaults, in.Overrides)

	headers := make(map[string]string, len(in.Headers)+1)
	for k, v := range in.Headers {
		headers[k] = v
	}

	if in.Params != nil {
		switch method {
		case MethodGet, MethodHead:
			url = uri.AppendQuery(url, uri.BuildQuery(in.Params, queryEncType(in.Encoder)))
		default:
			encoder := in.Encoder
			if encoder == nil {
				encoder = FormEncoder{}
			}

			body, err := encoder.Encode(in.Params)
			if err != nil {
				return Composed{}, errors.Wrap(err, "encoding parameters")
			}
			opts[engine.OptPostFields] = engine.String(body)

			if ct := encoder.ContentType(); ct != "" && !hasHeader(headers, "Content-Type") {
				headers["Content-Type"] = ct
			}
		}
	}

	switch method {
	case MethodGet:
		opts[engine.OptHTTPGet] = engine.Bool(true)
	case MethodHead:
		opts[engine.OptNoBody] = engine.Bool(true)
	case MethodPost:
		opts[engine.OptPost] = engine.Bool(true)
	default:
		opts[engine.OptCustomRequest] = engine.String(method)
	}

	opts[engine.OptHTTPHeader] = engine.Strings(FormatHeaders(headers)...)

	return Composed{Method: method, URL: url, Options: opts}, nil
}

// FormatHeaders renders headers as "Name: Value" lines sorted by name.
func FormatHeaders(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+headers[name])
	}
	return lines
}

// queryEncType follows the form encoder's escaping, RFC 1738 otherwise.
func queryEncType(encoder ParamsEncoder) uri.EncType {
	switch e := encoder.(type) {
	case FormEncoder:
		if e.EncType != 0 {
			return e.EncType
		}
	case *FormEncoder:
		if e != nil && e.EncType != 0 {
			return e.EncType
		}
	}
	return uri.EncRFC1738
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
