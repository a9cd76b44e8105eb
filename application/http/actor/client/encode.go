package client

import (
	"encoding/json"

	"curl-request/application/util/uri"

	"github.com/pkg/errors"
)

// Params are request parameters. Values may be scalars, nested maps or slices.
type Params map[string]any

type ParamsEncoder interface {
	Encode(params Params) (string, error)

	// ContentType is sent along with the encoded body. Empty leaves the
	// engine's default in place.
	ContentType() string
}

// FormEncoder encodes parameters as application/x-www-form-urlencoded.
type FormEncoder struct {
	// EncType defaults to [uri.EncRFC1738].
	EncType uri.EncType
}

var _ ParamsEncoder = FormEncoder{}

func (e FormEncoder) Encode(params Params) (string, error) {
	return uri.BuildQuery(params, e.EncType), nil
}

func (FormEncoder) ContentType() string { return "" }

const ContentTypeJSON = "application/json"

type JSONEncoder struct{}

var _ ParamsEncoder = JSONEncoder{}

func (JSONEncoder) Encode(params Params) (string, error) {
	b, err := json.Marshal(map[string]any(params))
	if err != nil {
		return "", errors.Wrap(err, "marshaling parameters")
	}
	return string(b), nil
}

func (JSONEncoder) ContentType() string { return ContentTypeJSON }
