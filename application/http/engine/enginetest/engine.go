// Package enginetest provides an in-memory [engine.Engine] that records
// what it was asked to do and replies with canned bytes.
package enginetest

import (
	"context"
	"sync"

	"curl-request/application/http/engine"
)

// Reply is what the next Execute returns. A non-zero Code makes it fail.
type Reply struct {
	Raw     []byte
	Code    engine.Code
	Message string
}

type Engine struct {
	mu      sync.Mutex
	replies []Reply
	handles []*Handle
	initErr error
}

var _ engine.Engine = (*Engine)(nil)

func New(replies ...Reply) *Engine {
	return &Engine{replies: replies}
}

// FailInit makes every following Init fail with err.
func (e *Engine) FailInit(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.initErr = err
}

func (e *Engine) Push(reply Reply) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replies = append(e.replies, reply)
}

func (e *Engine) Init(rawURL string) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initErr != nil {
		return nil, e.initErr
	}

	reply := Reply{Code: engine.CodeGotNothing}
	if len(e.replies) > 0 {
		reply, e.replies = e.replies[0], e.replies[1:]
	}

	h := &Handle{URL: rawURL, Options: engine.Options{}, reply: reply}
	e.handles = append(e.handles, h)
	return h, nil
}

// Handles returns every handle created so far, oldest first.
func (e *Engine) Handles() []*Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Handle(nil), e.handles...)
}

// Last returns the newest handle, or nil.
func (e *Engine) Last() *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}

type Handle struct {
	URL     string
	Options engine.Options

	Executed bool
	Closed   bool

	reply   Reply
	code    engine.Code
	message string
}

var _ engine.Handle = (*Handle)(nil)

func (h *Handle) SetOptions(opts engine.Options) error {
	for k, v := range opts {
		h.Options[k] = v
	}
	return nil
}

func (h *Handle) Execute(ctx context.Context) ([]byte, error) {
	h.Executed = true

	if err := ctx.Err(); err != nil {
		h.code, h.message = engine.CodeOperationTimedOut, err.Error()
		return nil, &engine.Error{Code: h.code, Message: h.message}
	}

	h.code, h.message = h.reply.Code, h.reply.Message
	if h.code != engine.CodeOK {
		if h.message == "" {
			h.message = h.code.String()
		}
		return nil, &engine.Error{Code: h.code, Message: h.message}
	}

	return h.reply.Raw, nil
}

func (h *Handle) ErrorCode() engine.Code { return h.code }

func (h *Handle) ErrorMessage() string { return h.message }

func (h *Handle) Close() error {
	h.Closed = true
	return nil
}
