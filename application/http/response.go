package http

import (
	"bytes"
	"strconv"
	"strings"
)

// Synthetic keys carried in [ParsedResponse.Headers] next to the received fields.
const (
	KeyHTTPVersion = "Http-Version"
	KeyStatusCode  = "Status-Code"
	KeyStatus      = "Status"
)

// ParsedResponse is the result of a completed transfer. It never changes
// after construction.
type ParsedResponse struct {
	raw        []byte
	bodyOffset int
	status     StatusLine
	headers    map[string]string
	heads      int
}

func newParsedResponse(raw []byte, bodyOffset int, head Head, heads int) *ParsedResponse {
	headers := make(map[string]string, len(head.Fields)+3)
	headers[KeyHTTPVersion] = head.Version.Number()
	headers[KeyStatusCode] = strconv.FormatUint(uint64(head.StatusCode), 10)
	headers[KeyStatus] = head.Status()

	// Later duplicates overwrite earlier ones.
	for _, field := range head.Fields {
		headers[string(field.Name)] = string(field.Value)
	}

	return &ParsedResponse{
		raw:        raw,
		bodyOffset: bodyOffset,
		status:     head.StatusLine,
		headers:    headers,
		heads:      heads,
	}
}

func (r *ParsedResponse) Raw() []byte { return bytes.Clone(r.raw) }

func (r *ParsedResponse) Body() string { return string(r.raw[r.bodyOffset:]) }

func (r *ParsedResponse) BodyBytes() []byte { return bytes.Clone(r.raw[r.bodyOffset:]) }

// BodyOffset is the byte length of every head up to and including the final
// one's terminating empty line.
func (r *ParsedResponse) BodyOffset() int { return r.bodyOffset }

func (r *ParsedResponse) String() string { return r.Body() }

// Headers returns a copy of the final head's fields plus the synthetic keys.
func (r *ParsedResponse) Headers() map[string]string {
	clone := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		clone[k] = v
	}
	return clone
}

// Header looks name up as received first and falls back to a
// case-insensitive match.
func (r *ParsedResponse) Header(name string) (string, bool) {
	if v, ok := r.headers[name]; ok {
		return v, true
	}
	for k, v := range r.headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func (r *ParsedResponse) StatusCode() int { return int(r.status.StatusCode) }

func (r *ParsedResponse) Status() string { return r.status.Status() }

func (r *ParsedResponse) ReasonPhrase() string { return r.status.ReasonPhrase }

func (r *ParsedResponse) Version() Version { return r.status.Version }

// HeadCount is the number of heads found before the body, interim ones included.
func (r *ParsedResponse) HeadCount() int { return r.heads }
