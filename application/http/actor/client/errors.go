package client

import (
	"fmt"

	"curl-request/application/http/engine"
)

// TransportError is returned for a failed transfer when the client throws on error.
type TransportError struct {
	Code    engine.Code
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transfer failed (code %d): %s", int(e.Code), e.Message)
}
