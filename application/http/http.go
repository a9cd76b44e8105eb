package http

import (
	"bytes"
	"strconv"

	"curl-request/application/util/rule"

	"github.com/pkg/errors"
)

// [Major, Minor]
type Version [2]uint

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	if !bytes.HasPrefix(b, rule.VersionPrefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	// Get major and minor version.
	first, second, found := bytes.Cut(b[len(rule.VersionPrefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot seperator not found on version: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(rule.VersionPrefix)
	buf.WriteString(ver.Number())
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

// Number is the version without its "HTTP/" prefix, e.g. "1.1".
func (ver Version) Number() string {
	return strconv.FormatUint(uint64(ver[0]), 10) + "." + strconv.FormatUint(uint64(ver[1]), 10)
}

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
)

type StatusLine struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
}

// Status is the code followed by the reason phrase, e.g. "200 OK".
// The reason phrase is optional; without it only the code is returned.
func (sl StatusLine) Status() string {
	code := strconv.FormatUint(uint64(sl.StatusCode), 10)
	if sl.ReasonPhrase == "" {
		return code
	}
	return code + " " + sl.ReasonPhrase
}

// IsInterim reports whether the status is informational (1xx).
func (sl StatusLine) IsInterim() bool { return sl.StatusCode >= 100 && sl.StatusCode < 200 }

// ParseStatusLine parses "HTTP/<d>.<d> <3-digit code> <reason phrase>".
func ParseStatusLine(line []byte) (StatusLine, error) {
	if !rule.HasVersionPrefix(line) {
		return StatusLine{}, errors.Errorf("status line has no version: %q", line)
	}

	versionRaw, rest, found := bytes.Cut(line, []byte{rule.SP})
	if !found {
		return StatusLine{}, errors.Errorf("status code not found: %q", line)
	}

	ver, err := ParseVersion(versionRaw)
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	codeRaw, reason, _ := bytes.Cut(rest, []byte{rule.SP})
	if len(codeRaw) != 3 {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", codeRaw)
	}
	for _, c := range codeRaw {
		if !rule.IsDigit(rune(c)) {
			return StatusLine{}, errors.Errorf("status code is malformed: %q", codeRaw)
		}
	}
	code, _ := strconv.ParseUint(string(codeRaw), 10, 64)

	return StatusLine{Version: ver, StatusCode: uint(code), ReasonPhrase: string(reason)}, nil
}

func (sl StatusLine) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(sl.Version.Text())
	buf.WriteByte(rule.SP)
	buf.WriteString(sl.Status())
	return buf.Bytes()
}

type Field struct{ Name, Value []byte }

// ParseField splits a field line on its first colon followed by whitespace.
// The value is everything after that single separator byte. A line ending
// right after the colon yields an empty value.
func ParseField(fieldLine []byte) (Field, error) {
	for idx := 0; idx < len(fieldLine); idx++ {
		if fieldLine[idx] != ':' {
			continue
		}
		if idx == 0 {
			break
		}

		rest := fieldLine[idx+1:]
		if len(rest) == 0 {
			return Field{Name: fieldLine[:idx], Value: []byte{}}, nil
		}
		if bytes.IndexByte(rule.OWS, rest[0]) >= 0 {
			return Field{Name: fieldLine[:idx], Value: rest[1:]}, nil
		}
	}

	return Field{}, errors.Errorf("colon seperator not found on header: %q", string(fieldLine))
}

func (f *Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(f.Name)
	buf.Write([]byte(": "))
	buf.Write(f.Value)
	return buf.Bytes()
}
