package engine

import (
	"context"
	"fmt"
)

type Engine interface {
	// Init prepares a transfer for rawURL.
	Init(rawURL string) (Handle, error)
}

// Handle is one transfer. It is not safe for concurrent use.
type Handle interface {
	// SetOptions applies opts on top of the options already set.
	SetOptions(opts Options) error

	// Execute performs the transfer and returns the raw response bytes.
	// On failure it returns an *[Error], and a nil slice.
	Execute(ctx context.Context) ([]byte, error)

	// ErrorCode and ErrorMessage describe the last Execute.
	ErrorCode() Code
	ErrorMessage() string

	Close() error
}

type Code int

// Values match libcurl's CURLcode numbering.
const (
	CodeOK                  Code = 0
	CodeUnsupportedProtocol Code = 1
	CodeFailedInit          Code = 2
	CodeURLMalformat        Code = 3
	CodeCouldntResolveHost  Code = 6
	CodeCouldntConnect      Code = 7
	CodeWeirdServerReply    Code = 8
	CodePartialFile         Code = 18
	CodeOperationTimedOut   Code = 28
	CodeSSLConnectError     Code = 35
	CodeTooManyRedirects    Code = 47
	CodeGotNothing          Code = 52
	CodeSendError           Code = 55
	CodeRecvError           Code = 56
)

var codeNames = map[Code]string{
	CodeOK:                  "No error",
	CodeUnsupportedProtocol: "Unsupported protocol",
	CodeFailedInit:          "Failed initialization",
	CodeURLMalformat:        "URL using bad/illegal format or missing URL",
	CodeCouldntResolveHost:  "Couldn't resolve host name",
	CodeCouldntConnect:      "Couldn't connect to server",
	CodeWeirdServerReply:    "Weird server reply",
	CodePartialFile:         "Transferred a partial file",
	CodeOperationTimedOut:   "Timeout was reached",
	CodeSSLConnectError:     "SSL connect error",
	CodeTooManyRedirects:    "Number of redirects hit maximum amount",
	CodeGotNothing:          "Server returned nothing (no headers, no data)",
	CodeSendError:           "Failed sending data to the peer",
	CodeRecvError:           "Failure when receiving data from the peer",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Unknown error (%d)", int(c))
}

// Error is a failed transfer.
type Error struct {
	Code    Code
	Message string
}

func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}
