package http

import (
	"bytes"

	"curl-request/application/util/rule"

	"github.com/pkg/errors"
)

type ParseOptions struct {
	// AllowSoleLF specifies wheter a single LF character should be recognized as a valid line terminator.
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-3
	AllowSoleLF bool
}

var DefaultParseOptions = ParseOptions{
	AllowSoleLF: false,
}

// Head is a status line and the field lines following it.
type Head struct {
	StatusLine
	Fields []Field
}

// Values returns the values of every field named name, compared
// case-insensitively, in the order they were received.
func (h Head) Values(name string) []string {
	values := make([]string, 0)
	for _, f := range h.Fields {
		if bytes.EqualFold(f.Name, []byte(name)) {
			values = append(values, string(f.Value))
		}
	}
	return values
}

// Get returns the last value of the field named name, or "".
func (h Head) Get(name string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

type scanner struct {
	raw  []byte
	pos  int
	opts ParseOptions
}

// nextLine returns the line starting at the current position without its
// terminator. ok is false when no terminator is left.
func (sc *scanner) nextLine() (line []byte, start int, ok bool) {
	start = sc.pos
	rest := sc.raw[sc.pos:]

	if sc.opts.AllowSoleLF {
		idx := bytes.IndexByte(rest, rule.LF)
		if idx < 0 {
			return nil, start, false
		}
		sc.pos += idx + 1
		return bytes.TrimSuffix(rest[:idx], []byte{rule.CR}), start, true
	}

	idx := bytes.Index(rest, rule.CRLF)
	if idx < 0 {
		return nil, start, false
	}
	sc.pos += idx + len(rule.CRLF)
	return rest[:idx], start, true
}

// scan walks every consecutive head at the front of raw and returns the
// last one together with the offset the body starts at. A block after a head
// counts as another head only if it parses completely; otherwise the body
// starts right after the previous head.
func (sc *scanner) scan() (last Head, bodyOffset int, heads int, err error) {
	last, err = sc.scanHead(true)
	if err != nil {
		return Head{}, 0, 0, err
	}
	heads = 1

	for rule.HasVersionPrefix(sc.raw[sc.pos:]) {
		// Another head may follow: an interim response or a redirect hop.
		saved := sc.pos
		next, err := sc.scanHead(false)
		if err != nil {
			sc.pos = saved
			break
		}
		last, heads = next, heads+1
	}

	return last, sc.pos, heads, nil
}

// scanHead reads one status line, its field lines and the empty line ending
// them. Empty lines before the status line are skipped when leading is set.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
func (sc *scanner) scanHead(leading bool) (Head, error) {
	var head Head
	statusDone := false

	for {
		line, start, ok := sc.nextLine()
		if !ok {
			return Head{}, &ParseError{Offset: start, Err: ErrHeaderBlockNotFound}
		}

		if !statusDone {
			if len(line) == 0 && leading {
				continue
			}
			if !rule.HasVersionPrefix(line) {
				return Head{}, &ParseError{Offset: start, Line: string(line), Err: ErrHeaderBlockNotFound}
			}

			statusLine, err := ParseStatusLine(line)
			if err != nil {
				return Head{}, &ParseError{
					Offset: start,
					Line:   string(line),
					Err:    errors.Wrap(ErrMalformedStatusLine, err.Error()),
				}
			}
			head = Head{StatusLine: statusLine, Fields: make([]Field, 0)}
			statusDone = true
			continue
		}

		if len(line) == 0 {
			// An empty line. This means that there are no more headers.
			return head, nil
		}

		field, err := ParseField(line)
		if err != nil {
			return Head{}, &ParseError{Offset: start, Line: string(line), Err: ErrMalformedFieldLine}
		}
		head.Fields = append(head.Fields, field)
	}
}

// ParseHead parses a single head block: a status line, field lines and the
// terminating empty line.
func ParseHead(block []byte, opts ParseOptions) (Head, error) {
	sc := scanner{raw: block, opts: opts}
	head, _, _, err := sc.scan()
	return head, err
}

// ParseResponse splits the raw bytes of a completed transfer into its final
// head and body. When several heads precede the body, the last one wins.
func ParseResponse(raw []byte) (*ParsedResponse, error) {
	return ParseResponseWithOptions(raw, DefaultParseOptions)
}

func ParseResponseWithOptions(raw []byte, opts ParseOptions) (*ParsedResponse, error) {
	raw = bytes.Clone(raw)

	sc := scanner{raw: raw, opts: opts}
	head, offset, heads, err := sc.scan()
	if err != nil {
		return nil, err
	}

	return newParsedResponse(raw, offset, head, heads), nil
}
