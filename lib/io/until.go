package iolib

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

var (
	ErrZeroLenDelim = errors.New("delim has zero length")
	ErrLimitReached = errors.New("limit reached before delim")
)

// UntilReader reads delimited chunks out of a stream while keeping the
// bytes read past the delimiter available to Read.
type UntilReader struct {
	r   io.Reader
	buf *bytes.Buffer
	tmp []byte
}

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r, buf: bytes.NewBuffer(nil), tmp: make([]byte, 1024)}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if ur.buf.Len() > 0 {
		n, _ = ur.buf.Read(p)
		return n, nil
	}
	return ur.r.Read(p)
}

// Buffered is the number of bytes read from the source but not yet consumed.
func (ur *UntilReader) Buffered() int { return ur.buf.Len() }

// ReadUntil reads until delim and returns everything up to and including it.
// If the source fails first, the bytes read so far are returned with the error.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	return ur.ReadUntilLimit(delim, 0)
}

// ReadUntilLimit is ReadUntil which gives up with [ErrLimitReached] once
// limit bytes are buffered without a delim. Zero means no limit.
func (ur *UntilReader) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	// Bytes before searchFrom were already checked for delim.
	searchFrom := 0
	for {
		if idx := bytes.Index(ur.buf.Bytes()[searchFrom:], delim); idx >= 0 {
			end := searchFrom + idx + len(delim)
			if limit == 0 || uint(end) <= limit {
				return bytes.Clone(ur.buf.Next(end)), nil
			}
		}

		if limit > 0 && uint(ur.buf.Len()) >= limit {
			return bytes.Clone(ur.buf.Next(int(limit))), ErrLimitReached
		}

		searchFrom = max(0, ur.buf.Len()-len(delim)+1)

		n, err := ur.r.Read(ur.tmp)
		ur.buf.Write(ur.tmp[:n])

		if err != nil && n == 0 {
			// Underlying reader returned error before delim.
			b := bytes.Clone(ur.buf.Bytes())
			ur.buf.Reset()
			return b, err
		}
	}
}
