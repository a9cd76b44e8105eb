package transfer

import (
	"bytes"
	"io"
	"strconv"

	"curl-request/application/http"
	"curl-request/application/util/rule"
	iolib "curl-request/lib/io"

	"github.com/pkg/errors"
)

var ErrMissingChunkDelimiter = errors.New("CRLF delimiter not found after chunk data")

type Chunk struct {
	Size       uint
	Extensions [][2]string
}

// ChunkedReader converts a chunked message body into a byte stream.
// Trailers are available once Read returned io.EOF.
type ChunkedReader struct {
	ur      *iolib.UntilReader
	maxLine uint

	chunk    *Chunk
	read     uint // reset for each chunk
	done     bool
	trailers []http.Field
}

var _ io.Reader = (*ChunkedReader)(nil)

// NewChunkedReader reads chunks from ur. Lines longer than maxLine fail
// the read; zero means no limit.
func NewChunkedReader(ur *iolib.UntilReader, maxLine uint) *ChunkedReader {
	return &ChunkedReader{ur: ur, maxLine: maxLine}
}

func (cr *ChunkedReader) LastChunk() *Chunk { return cr.chunk }

func (cr *ChunkedReader) Trailers() []http.Field { return cr.trailers }

func (cr *ChunkedReader) Read(b []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if cr.chunk == nil {
		if err := cr.decodeChunk(); err != nil {
			return 0, errors.Wrap(err, "decoding chunk")
		}

		if cr.chunk.Size == 0 {
			// Last chunk.
			if err := cr.decodeTrailers(); err != nil {
				return 0, errors.Wrap(err, "decoding trailer")
			}
			cr.done = true
			return 0, io.EOF
		}
	}

	if len(b) == 0 {
		return 0, nil
	}

	remain := cr.chunk.Size - cr.read
	if uint(len(b)) > remain {
		b = b[:remain]
	}

	n, err := cr.ur.Read(b)
	cr.read += uint(n)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return n, errors.Wrap(err, "reading chunk data")
	}

	if cr.read == cr.chunk.Size {
		line, err := cr.readLine()
		if err != nil {
			return n, errors.Wrap(err, "reading chunk delimiter")
		}
		if len(line) != 0 {
			return n, ErrMissingChunkDelimiter
		}

		cr.chunk = nil
		cr.read = 0
	}

	return n, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
func (cr *ChunkedReader) decodeChunk() error {
	line, err := cr.readLine()
	if err != nil {
		return err
	}

	parts := bytes.Split(line, []byte{';'})

	sizeRaw := bytes.TrimFunc(parts[0], rule.IsWhitespace)
	chunkSize, err := decodeChunkSize(sizeRaw)
	if err != nil {
		return errors.Wrap(err, "decoding chunk size")
	}

	extensions := make([][2]string, 0)
	for _, part := range parts[1:] {
		k, v, _ := bytes.Cut(part, []byte{'='})
		// Trim BWS.
		k = bytes.TrimFunc(k, rule.IsWhitespace)
		v = bytes.TrimFunc(v, rule.IsWhitespace)

		extensions = append(extensions, [2]string{
			string(k),
			string(rule.Unquote(v)),
		})
	}

	cr.chunk = &Chunk{Size: chunkSize, Extensions: extensions}
	return nil
}

func decodeChunkSize(b []byte) (uint, error) {
	if len(b) == 0 {
		return 0, errors.New("chunk size is empty")
	}

	size, err := strconv.ParseUint(string(b), 16, 64)
	if err != nil {
		return 0, errors.Errorf("failed to decode hex: %q", string(b))
	}

	return uint(size), nil
}

func (cr *ChunkedReader) decodeTrailers() error {
	fields := make([]http.Field, 0)
	for {
		line, err := cr.readLine()
		if err != nil {
			return errors.Wrap(err, "reading line")
		}

		if len(line) == 0 {
			// Last field.
			break
		}

		field, err := http.ParseField(line)
		if err != nil {
			return errors.Wrap(err, "parsing field")
		}

		fields = append(fields, field)
	}

	cr.trailers = fields
	return nil
}

// readLine reads until CRLF and cuts it.
func (cr *ChunkedReader) readLine() ([]byte, error) {
	line, err := cr.ur.ReadUntilLimit(rule.CRLF, cr.maxLine)
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return line[:len(line)-len(rule.CRLF)], nil
}
