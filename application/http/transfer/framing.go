package transfer

import (
	"io"
	"strconv"
	"strings"

	"curl-request/application/http"
	iolib "curl-request/lib/io"

	"github.com/pkg/errors"
)

// Framing is how the end of a response body is found.
type Framing uint8

const (
	// FramingNone means the response has no body.
	FramingNone Framing = iota
	FramingChunked
	FramingLength
	// FramingClose reads until the server closes the connection.
	FramingClose
)

func (f Framing) String() string {
	switch f {
	case FramingNone:
		return "none"
	case FramingChunked:
		return "chunked"
	case FramingLength:
		return "content-length"
	case FramingClose:
		return "close"
	}
	return "Framing(" + strconv.Itoa(int(f)) + ")"
}

var ErrInvalidContentLength = errors.New("invalid content-length")

// DecideFraming picks the body framing of a response to a request sent
// with method. length is only meaningful for [FramingLength].
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3
func DecideFraming(method string, head http.Head) (framing Framing, length int64, err error) {
	code := head.StatusCode
	if strings.EqualFold(method, "HEAD") || head.IsInterim() || code == 204 || code == 304 {
		return FramingNone, 0, nil
	}

	if te := head.Values("Transfer-Encoding"); len(te) > 0 {
		// Transfer-Encoding overrides Content-Length.
		codings := ParseCodings(te)
		if len(codings) > 0 && codings[len(codings)-1] == CodingChunked {
			return FramingChunked, 0, nil
		}
		return FramingClose, 0, nil
	}

	if cl := head.Values("Content-Length"); len(cl) > 0 {
		length, err := parseContentLength(cl)
		if err != nil {
			return 0, 0, err
		}
		return FramingLength, length, nil
	}

	return FramingClose, 0, nil
}

// parseContentLength accepts a list of identical values, e.g. "42, 42".
func parseContentLength(values []string) (int64, error) {
	length := int64(-1)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.Trim(part, " \t")
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil || n < 0 || part[0] == '+' {
				return 0, errors.Wrapf(ErrInvalidContentLength, "%q", value)
			}
			if length >= 0 && n != length {
				return 0, errors.Wrapf(ErrInvalidContentLength, "conflicting values %d and %d", length, n)
			}
			length = n
		}
	}
	return length, nil
}

// NewBodyReader returns a reader which ends where the body does.
func NewBodyReader(ur *iolib.UntilReader, framing Framing, length int64, maxLine uint) io.Reader {
	switch framing {
	case FramingChunked:
		return NewChunkedReader(ur, maxLine)
	case FramingLength:
		return &lengthReader{r: ur, remain: length}
	case FramingClose:
		return ur
	}
	return eofReader{}
}

// lengthReader is io.LimitReader which reports a source ending early as
// io.ErrUnexpectedEOF.
type lengthReader struct {
	r      io.Reader
	remain int64
}

func (lr *lengthReader) Read(p []byte) (int, error) {
	if lr.remain <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > lr.remain {
		p = p[:lr.remain]
	}

	n, err := lr.r.Read(p)
	lr.remain -= int64(n)
	if err == io.EOF {
		if lr.remain > 0 {
			return n, io.ErrUnexpectedEOF
		}
		err = nil
	}
	return n, err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
