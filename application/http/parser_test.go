package http

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ParseResponseTestSuite struct {
	suite.Suite
}

func TestParseResponseTestSuite(t *testing.T) {
	suite.Run(t, new(ParseResponseTestSuite))
}

func (s *ParseResponseTestSuite) TestSimple() {
	raw := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nhello"

	res, err := ParseResponse([]byte(raw))
	s.Require().NoError(err)

	s.Equal("hello", res.Body())
	s.Equal("hello", res.String())
	s.Equal(map[string]string{
		KeyHTTPVersion: "1.1",
		KeyStatusCode:  "200",
		KeyStatus:      "200 OK",
		"Content-Type": "text/plain",
	}, res.Headers())
	s.Equal(200, res.StatusCode())
	s.Equal("200 OK", res.Status())
	s.Equal(Version11, res.Version())
	s.Equal(1, res.HeadCount())
	s.Equal(raw, string(res.Raw()))
}

func (s *ParseResponseTestSuite) TestBodyOffset() {
	testcases := []struct {
		desc string
		head string
		body string
	}{
		{
			desc: "empty body",
			head: "HTTP/1.1 204 No Content\r\nDate: today\r\n\r\n",
			body: "",
		},
		{
			desc: "binary body",
			head: "HTTP/1.1 200 OK\r\nContent-Type: application/octet-stream\r\n\r\n",
			body: "\x00\xff\r\n\r\n\x01HTTP/1.1 200 OK\r\n\r\n",
		},
		{
			desc: "body with blank lines",
			head: "HTTP/1.0 200 OK\r\n\r\n",
			body: "line\r\n\r\nline",
		},
		{
			desc: "interim continue",
			head: "HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 201 Created\r\nLocation: /a\r\n\r\n",
			body: "{}",
		},
		{
			desc: "body starting with a version",
			head: "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\n",
			body: "HTTP/1.1 is a protocol",
		},
		{
			desc: "body starting with a bad status line",
			head: "HTTP/1.1 200 OK\r\n\r\n",
			body: "HTTP/1.1 rocks\r\nsecond line",
		},
		{
			desc: "body starting with an unterminated head",
			head: "HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 200 OK\r\n\r\n",
			body: "HTTP/1.1 200 OK\r\nX-Part: 1\r\n",
		},
		{
			desc: "body starting with a bad field line",
			head: "HTTP/1.1 200 OK\r\n\r\n",
			body: "HTTP/1.0 404 Not Found\r\nnot a field\r\n\r\n",
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			res, err := ParseResponse([]byte(tc.head + tc.body))
			s.Require().NoError(err)

			s.Equal(len(tc.head), res.BodyOffset())
			s.Equal(tc.body, res.Body())
			s.Equal([]byte(tc.body), res.BodyBytes())
		})
	}
}

func (s *ParseResponseTestSuite) TestLastHeadWins() {
	raw := "" +
		"HTTP/1.1 301 Moved Permanently\r\n" +
		"Location: https://example.com/\r\n" +
		"X-Hop: first\r\n" +
		"\r\n" +
		"HTTP/1.1 200 OK\r\n" +
		"Content-Length: 2\r\n" +
		"\r\n" +
		"ok"

	res, err := ParseResponse([]byte(raw))
	s.Require().NoError(err)

	s.Equal(2, res.HeadCount())
	s.Equal("200 OK", res.Headers()[KeyStatus])
	s.Equal("2", res.Headers()["Content-Length"])
	_, ok := res.Headers()["X-Hop"]
	s.False(ok)
	s.Equal("ok", res.Body())
}

func (s *ParseResponseTestSuite) TestLastHeadWinsBeforeVersionLikeBody() {
	raw := "" +
		"HTTP/1.1 302 Found\r\n" +
		"Location: /next\r\n" +
		"\r\n" +
		"HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"HTTP/1.1 rocks\r\nsecond line"

	res, err := ParseResponse([]byte(raw))
	s.Require().NoError(err)

	s.Equal(2, res.HeadCount())
	s.Equal("200 OK", res.Status())
	s.Equal("HTTP/1.1 rocks\r\nsecond line", res.Body())
}

func (s *ParseResponseTestSuite) TestDuplicateFieldLastWins() {
	raw := "HTTP/1.1 200 OK\r\nSet-Cookie: a=1\r\nSet-Cookie: b=2\r\n\r\n"

	res, err := ParseResponse([]byte(raw))
	s.Require().NoError(err)

	s.Equal("b=2", res.Headers()["Set-Cookie"])
}

func (s *ParseResponseTestSuite) TestHeaderLookup() {
	raw := "HTTP/1.1 200 OK\r\ncontent-type: text/html\r\n\r\n"

	res, err := ParseResponse([]byte(raw))
	s.Require().NoError(err)

	v, ok := res.Header("content-type")
	s.True(ok)
	s.Equal("text/html", v)

	v, ok = res.Header("Content-Type")
	s.True(ok)
	s.Equal("text/html", v)

	_, ok = res.Header("Server")
	s.False(ok)
}

func (s *ParseResponseTestSuite) TestImmutable() {
	raw := []byte("HTTP/1.1 200 OK\r\nA: b\r\n\r\nbody")

	res, err := ParseResponse(raw)
	s.Require().NoError(err)

	raw[len(raw)-1] = 'X'
	res.Headers()["A"] = "changed"
	res.Raw()[0] = 'X'

	s.Equal("body", res.Body())
	s.Equal("b", res.Headers()["A"])
	s.Equal(byte('H'), res.Raw()[0])
}

func (s *ParseResponseTestSuite) TestLeadingEmptyLines() {
	res, err := ParseResponse([]byte("\r\nHTTP/1.1 200 OK\r\n\r\nx"))
	s.Require().NoError(err)
	s.Equal("x", res.Body())
	s.Equal(len("\r\nHTTP/1.1 200 OK\r\n\r\n"), res.BodyOffset())
}

func (s *ParseResponseTestSuite) TestMalformed() {
	testcases := []struct {
		desc    string
		input   string
		wantErr error
	}{
		{
			desc:    "empty input",
			input:   "",
			wantErr: ErrHeaderBlockNotFound,
		},
		{
			desc:    "body only",
			input:   "hello world",
			wantErr: ErrHeaderBlockNotFound,
		},
		{
			desc:    "unterminated head",
			input:   "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n",
			wantErr: ErrHeaderBlockNotFound,
		},
		{
			desc:    "garbage before head",
			input:   "junk\r\nHTTP/1.1 200 OK\r\n\r\n",
			wantErr: ErrHeaderBlockNotFound,
		},
		{
			desc:    "sole LF in strict mode",
			input:   "HTTP/1.1 200 OK\n\nbody",
			wantErr: ErrHeaderBlockNotFound,
		},
		{
			desc:    "bad status code",
			input:   "HTTP/1.1 2000 OK\r\n\r\n",
			wantErr: ErrMalformedStatusLine,
		},
		{
			desc:    "bad field line",
			input:   "HTTP/1.1 200 OK\r\nno separator here\r\n\r\n",
			wantErr: ErrMalformedFieldLine,
		},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			res, err := ParseResponse([]byte(tc.input))
			s.Nil(res)
			s.ErrorIs(err, tc.wantErr)

			var parseErr *ParseError
			s.True(errors.As(err, &parseErr))
		})
	}
}

func (s *ParseResponseTestSuite) TestParseErrorOffset() {
	_, err := ParseResponse([]byte("HTTP/1.1 200 OK\r\nbroken\r\n\r\n"))

	var parseErr *ParseError
	s.Require().True(errors.As(err, &parseErr))
	s.Equal(len("HTTP/1.1 200 OK\r\n"), parseErr.Offset)
	s.Equal("broken", parseErr.Line)
}

func (s *ParseResponseTestSuite) TestAllowSoleLF() {
	res, err := ParseResponseWithOptions(
		[]byte("HTTP/1.1 200 OK\nServer: test\r\n\nbody"),
		ParseOptions{AllowSoleLF: true},
	)
	s.Require().NoError(err)

	s.Equal("test", res.Headers()["Server"])
	s.Equal("body", res.Body())
}

func (s *ParseResponseTestSuite) TestParseHead() {
	head, err := ParseHead([]byte("HTTP/1.1 302 Found\r\nLocation: /next\r\n\r\n"), DefaultParseOptions)
	s.Require().NoError(err)

	s.Equal(uint(302), head.StatusCode)
	s.Equal([]Field{{[]byte("Location"), []byte("/next")}}, head.Fields)
}

func (s *ParseResponseTestSuite) TestHeadValues() {
	head, err := ParseHead([]byte(""+
		"HTTP/1.1 200 OK\r\n"+
		"Transfer-Encoding: gzip\r\n"+
		"transfer-encoding: chunked\r\n"+
		"\r\n",
	), DefaultParseOptions)
	s.Require().NoError(err)

	s.Equal([]string{"gzip", "chunked"}, head.Values("Transfer-Encoding"))
	s.Equal("chunked", head.Get("TRANSFER-ENCODING"))
	s.Empty(head.Values("Content-Length"))
	s.Equal("", head.Get("Content-Length"))
}
